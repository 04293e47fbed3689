// 包 series：比率序列目录（“2024 结果”与“2016→2024 变化”等）及其字段选择
package series

import (
	"errors"
	"fmt"
	"math"

	"votemap-api/internal/harmonize"
)

// 原始字段名（与上游数据集一致）
const (
	FieldRatioA       = "w_dem_ratio_"
	FieldRatioB       = "w_rep_ratio_"
	FieldChangeRatioA = "w_dem_ratio_change"
	FieldChangeRatioB = "w_rep_ratio_change"
)

var (
	ErrEmptyCatalog    = errors.New("series: empty catalog")
	ErrDuplicateSeries = errors.New("series: duplicate value")
	ErrBadMultiplier   = errors.New("series: multiplier must be a positive number")
	ErrMissingField    = errors.New("series: missing field identifier")
	ErrUnknownSeries   = errors.New("series: unknown series")
)

// 文档注释：比率序列
// 背景：同一张地图可切换展示不同的一对竞争序列；倍率用于把阈值阶梯缩放到该序列的取值范围。
type Series struct {
	Value       string  `json:"value" yaml:"value"`
	DisplayName string  `json:"display_name" yaml:"display_name"`
	Multiplier  float64 `json:"multiplier" yaml:"multiplier"`
	FieldA      string  `json:"field_a" yaml:"field_a"`
	FieldB      string  `json:"field_b" yaml:"field_b"`
}

// Pick：读取记录中的两个序列值；缺失或非数值返回 NaN
func (s Series) Pick(r harmonize.Record) (float64, float64) {
	return field(r, s.FieldA).Float(), field(r, s.FieldB).Float()
}

// Dominant：两值中较大者（悬停提示展示值）；任一缺失时返回另一个，均缺失为 NaN
func (s Series) Dominant(r harmonize.Record) float64 {
	a, b := s.Pick(r)
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case a > b:
		return a
	default:
		return b
	}
}

// field：已知字段走类型化字段，其余从原始属性读取
func field(r harmonize.Record, name string) harmonize.Measure {
	switch name {
	case FieldRatioA:
		if r.RatioA.Present {
			return r.RatioA
		}
	case FieldRatioB:
		if r.RatioB.Present {
			return r.RatioB
		}
	case FieldChangeRatioA:
		if r.ChangeRatioA.Present {
			return r.ChangeRatioA
		}
	case FieldChangeRatioB:
		if r.ChangeRatioB.Present {
			return r.ChangeRatioB
		}
	}
	return r.Attr(name)
}

func (s Series) validate() error {
	if s.Value == "" || s.FieldA == "" || s.FieldB == "" {
		return fmt.Errorf("%w: %q", ErrMissingField, s.Value)
	}
	if math.IsNaN(s.Multiplier) || math.IsInf(s.Multiplier, 0) || s.Multiplier <= 0 {
		return fmt.Errorf("%w: %q=%v", ErrBadMultiplier, s.Value, s.Multiplier)
	}
	return nil
}

// 文档注释：序列目录
// 约束：第一个条目为默认序列；构建后只读。
type Catalog struct {
	items []Series
	byVal map[string]int
}

func NewCatalog(items ...Series) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{items: append([]Series(nil), items...), byVal: make(map[string]int, len(items))}
	for i, s := range c.items {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byVal[s.Value]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSeries, s.Value)
		}
		c.byVal[s.Value] = i
	}
	return c, nil
}

func (c *Catalog) Default() Series { return c.items[0] }

func (c *Catalog) All() []Series { return append([]Series(nil), c.items...) }

// Lookup：空值返回默认序列
func (c *Catalog) Lookup(value string) (Series, error) {
	if value == "" {
		return c.Default(), nil
	}
	i, ok := c.byVal[value]
	if !ok {
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownSeries, value)
	}
	return c.items[i], nil
}

var (
	Result = Series{Value: "result", DisplayName: "2024년 득표율", Multiplier: 2.5, FieldA: FieldRatioA, FieldB: FieldRatioB}
	Change = Series{Value: "change", DisplayName: "2016년-2024년 변화", Multiplier: 1, FieldA: FieldChangeRatioA, FieldB: FieldChangeRatioB}
)

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Result, Change)
	if err != nil {
		panic(err)
	}
	return c
}
