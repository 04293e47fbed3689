package harmonize

// 合并统计：供调用方记录日志与指标，本包不直接输出日志
type Stats struct {
	Base             int `json:"base"`
	Matched          int `json:"matched"`
	Unmatched        int `json:"unmatched"`
	DuplicateChanges int `json:"duplicate_changes"`
}

// 文档注释：记录合并（左连接）
// 背景：将变化数据集按 JoinKey 挂接到每条基础记录上，同时派生显示名与上级分组编码。
// 约束：输出条数恒等于 base；同一 JoinKey 多条变化数据时取第一条（计入 DuplicateChanges，不报错）；
// 未匹配时变化字段保持缺失；基础属性不会被变化数据覆盖；输入切片与映射均不修改。
func Reconcile(base []Record, changes []Change) ([]Record, Stats) {
	st := Stats{Base: len(base)}
	idx := make(map[string]int, len(changes))
	for i, c := range changes {
		k, _ := NormalizeKey(c.JoinKey)
		if _, dup := idx[k]; dup {
			st.DuplicateChanges++
			continue
		}
		idx[k] = i
	}
	out := make([]Record, 0, len(base))
	for _, b := range base {
		r := b
		r.JoinKey, _ = NormalizeKey(b.JoinKey)
		r.DisplayName = DisplayName(b.RawName)
		r.ParentGroupKey = ParentGroup(r.JoinKey)
		r.ChangeRatioA, r.ChangeRatioB = None, None
		r.Attrs = copyAttrs(b.Attrs)
		if i, ok := idx[r.JoinKey]; ok {
			c := changes[i]
			r.ChangeRatioA = c.ChangeRatioA
			r.ChangeRatioB = c.ChangeRatioB
			for k, v := range c.Attrs {
				if _, exists := r.Attrs[k]; !exists {
					r.Attrs[k] = v
				}
			}
			st.Matched++
		} else {
			st.Unmatched++
		}
		out = append(out, r)
	}
	return out, st
}

func copyAttrs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
