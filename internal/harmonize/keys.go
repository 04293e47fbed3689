package harmonize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// 上级分组（区）编码 = 行政动编码去掉末尾两位
const GroupSuffixLen = 2

// 文档注释：连接键归一化
// 背景：上游 GeoJSON 与变化数据可能分别以字符串或数字编码行政动代码；在边界统一转为规范字符串再比较，
// 不依赖隐式类型转换。
// 约束：整数值浮点数输出无小数（1101053.0 → "1101053"）；非整数浮点按最短表示；不支持的类型返回 false。
func NormalizeKey(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, true
	case json.Number:
		return normalizeNumeric(x.String())
	case float64:
		return formatKeyFloat(x)
	case float32:
		return formatKeyFloat(float64(x))
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	}
	return "", false
}

func normalizeNumeric(s string) (string, bool) {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	return formatKeyFloat(f)
}

func formatKeyFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// ParentGroup：按固定后缀长度截断得到上级分组编码；长度不足时返回空串
func ParentGroup(joinKey string) string {
	if len(joinKey) <= GroupSuffixLen {
		return ""
	}
	return joinKey[:len(joinKey)-GroupSuffixLen]
}

// DisplayName：去掉首个以空格分隔的片段（顶层行政区前缀），仅一个片段时返回空串
func DisplayName(raw string) string {
	_, rest, ok := strings.Cut(raw, " ")
	if !ok {
		return ""
	}
	return rest
}
