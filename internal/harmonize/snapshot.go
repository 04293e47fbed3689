package harmonize

import "sort"

// Snapshot：筛选指定年份的记录并保持相对顺序；无该年份数据时返回空切片而非错误
func Snapshot(records []Record, year int) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}

// Timeline：单个行政动的全部年份记录（按年份升序），供详情面板使用
func Timeline(records []Record, joinKey string) []Record {
	out := make([]Record, 0, 2)
	for _, r := range records {
		if r.JoinKey == joinKey {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Years：去重后的年份列表（升序）
func Years(records []Record) []int {
	seen := make(map[int]struct{})
	var ys []int
	for _, r := range records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		ys = append(ys, r.Year)
	}
	sort.Ints(ys)
	return ys
}

// 文档注释：合并结果的只读索引
// 背景：数据集每次加载只构建一次；请求期按年份与 JoinKey 高频读取，预先分桶避免重复扫描。
// 约束：构建后不可变，可在多个 goroutine 间共享；返回的切片由调用方只读使用。
type Index struct {
	records []Record
	byYear  map[int][]Record
	byKey   map[string][]Record
	years   []int
}

func NewIndex(records []Record) *Index {
	ix := &Index{
		records: records,
		byYear:  make(map[int][]Record),
		byKey:   make(map[string][]Record),
		years:   Years(records),
	}
	for _, y := range ix.years {
		ix.byYear[y] = Snapshot(records, y)
	}
	for _, r := range records {
		ix.byKey[r.JoinKey] = append(ix.byKey[r.JoinKey], r)
	}
	for _, t := range ix.byKey {
		sort.SliceStable(t, func(i, j int) bool { return t[i].Year < t[j].Year })
	}
	return ix
}

func (ix *Index) Records() []Record { return ix.records }

func (ix *Index) Years() []int { return ix.years }

func (ix *Index) Len() int { return len(ix.records) }

// Snapshot：未知年份返回空切片
func (ix *Index) Snapshot(year int) []Record {
	if s, ok := ix.byYear[year]; ok {
		return s
	}
	return []Record{}
}

func (ix *Index) Timeline(joinKey string) []Record {
	if t, ok := ix.byKey[joinKey]; ok {
		return t
	}
	return []Record{}
}

func (ix *Index) Find(joinKey string, year int) (Record, bool) {
	for _, r := range ix.byKey[joinKey] {
		if r.Year == year {
			return r, true
		}
	}
	return Record{}, false
}
