// 包 harmonize：行政动记录的跨年合并、派生键与按年快照，纯函数实现，不做任何几何运算
package harmonize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/paulmach/orb"
)

// 文档注释：可缺省数值
// 背景：变化量等字段仅在匹配到变化数据时存在；缺失与 0 语义不同，需显式区分。
// 约束：Present=false 时 Value 无意义；序列化为 JSON null。
type Measure struct {
	Value   float64
	Present bool
}

var None = Measure{}

func Some(v float64) Measure { return Measure{Value: v, Present: true} }

// Float：缺失时返回 NaN，供分级器统一按中性色处理
func (m Measure) Float() float64 {
	if !m.Present {
		return math.NaN()
	}
	return m.Value
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Present || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Measure) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*m = None
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}

// MeasureOf：把原始属性值转换为 Measure；非数值（含无法解析的字符串）视为缺失
func MeasureOf(v any) Measure {
	switch x := v.(type) {
	case float64:
		return Some(x)
	case float32:
		return Some(float64(x))
	case int:
		return Some(float64(x))
	case int64:
		return Some(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Some(f)
		}
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return Some(f)
		}
	}
	return None
}

// 文档注释：行政动单年记录（Feature Record）
// 背景：同一行政动在不同年份各有一条记录，以 JoinKey 关联；Attrs 保留原始属性供前端展示。
// 约束：JoinKey 载入后不可变；ParentGroupKey 与 DisplayName 由 Reconcile 派生，不单独维护。
// Geometry 仅透传，核心逻辑从不读取。
type Record struct {
	JoinKey        string         `json:"join_key"`
	ParentGroupKey string         `json:"parent_group_key"`
	DisplayName    string         `json:"display_name"`
	RawName        string         `json:"raw_name"`
	Year           int            `json:"year"`
	RatioA         Measure        `json:"ratio_a"`
	RatioB         Measure        `json:"ratio_b"`
	ChangeRatioA   Measure        `json:"change_ratio_a"`
	ChangeRatioB   Measure        `json:"change_ratio_b"`
	Attrs          map[string]any `json:"attrs,omitempty"`
	Geometry       orb.Geometry   `json:"-"`
}

// Attr：读取数值属性，缺失或非数值返回 None
func (r Record) Attr(name string) Measure {
	if r.Attrs == nil {
		return None
	}
	v, ok := r.Attrs[name]
	if !ok {
		return None
	}
	return MeasureOf(v)
}

// 变化数据集条目：每个行政动一条，覆盖 2016→2024 窗口
type Change struct {
	JoinKey      string
	ChangeRatioA Measure
	ChangeRatioB Measure
	Attrs        map[string]any
}
