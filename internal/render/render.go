// 包 render：把快照记录组装为前端可直接绘制的着色图层、描边列表与悬停提示
package render

import (
	"fmt"
	"math"

	"votemap-api/internal/classify"
	"votemap-api/internal/harmonize"
	"votemap-api/internal/highlight"
	"votemap-api/internal/series"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// 图层要素附加的属性名
const (
	PropName      = "name"
	PropGroupCode = "gu_code"
	PropJoinKey   = "join_key"
	PropFillColor = "fill_color"
	PropSeries    = "series"
)

// 文档注释：着色图层
// 背景：每条记录输出一个 Feature，保留原始属性并附加显示名、区编码与填充色；几何原样透传，缺失时以空集合占位。
// 返回：FeatureCollection 与落入中性色的要素数量（用于指标）。
func Layer(recs []harmonize.Record, s series.Series, l *classify.Ladder) (*geojson.FeatureCollection, int) {
	fc := geojson.NewFeatureCollection()
	neutral := 0
	for _, r := range recs {
		g := r.Geometry
		if g == nil {
			g = orb.Collection{}
		}
		f := geojson.NewFeature(g)
		for k, v := range r.Attrs {
			f.Properties[k] = v
		}
		a, b := s.Pick(r)
		color, ok := l.ClassifyOK(a, b, s.Multiplier)
		if !ok {
			neutral++
		}
		f.Properties[PropJoinKey] = r.JoinKey
		f.Properties[PropName] = r.DisplayName
		f.Properties[PropGroupCode] = r.ParentGroupKey
		f.Properties[PropFillColor] = color
		f.Properties[PropSeries] = s.Value
		fc.Append(f)
	}
	return fc, neutral
}

// Highlights：当前选择状态下需要描边的要素
func Highlights(recs []harmonize.Record, st highlight.State) []highlight.Outline {
	return highlight.ResolveAll(recs, st)
}

// 悬停提示：展示主导序列数值（百分比两位小数）
type Tooltip struct {
	JoinKey  string   `json:"join_key"`
	Name     string   `json:"name"`
	GroupKey string   `json:"gu_code"`
	Value    *float64 `json:"value"`
	Label    string   `json:"label"`
}

func NewTooltip(r harmonize.Record, s series.Series) Tooltip {
	t := Tooltip{JoinKey: r.JoinKey, Name: r.DisplayName, GroupKey: r.ParentGroupKey, Label: "-"}
	v := s.Dominant(r)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return t
	}
	t.Value = &v
	t.Label = fmt.Sprintf("%.2f%%", v*100)
	return t
}
