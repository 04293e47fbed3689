// 包 panel：详情面板柱状图数据（同一行政动两次选举的两阵营得票率对比）
package panel

import (
	"errors"
	"math"
	"strconv"

	"votemap-api/internal/classify"
	"votemap-api/internal/harmonize"
)

var ErrIncompleteTimeline = errors.New("panel: timeline missing a compared year")

// 比较的两个年份与阵营名称
type Labels struct {
	FromYear int
	ToYear   int
	BlocA    string
	BlocB    string
}

var DefaultLabels = Labels{FromYear: 2016, ToYear: 2024, BlocA: "민주당계열", BlocB: "국힘당계열"}

// 单根柱：Values 以年份为键，值为百分比（保留两位小数）
type Bar struct {
	Name   string              `json:"name"`
	Values map[string]*float64 `json:"values"`
	Color  string              `json:"color"`
}

type Chart struct {
	Title   string `json:"title"`
	JoinKey string `json:"join_key"`
	Years   []int  `json:"years"`
	Bars    []Bar  `json:"bars"`
}

// 文档注释：构建面板数据
// 背景：面板展示选中行政动在两个年份的两阵营得票率；颜色取各阵营色阶第 1 级。
// 约束：任一比较年份缺失返回 ErrIncompleteTimeline，调用方展示空面板；缺失的比率以 null 输出。
func Build(timeline []harmonize.Record, ladder *classify.Ladder, lb Labels) (*Chart, error) {
	var from, to *harmonize.Record
	for i := range timeline {
		switch timeline[i].Year {
		case lb.FromYear:
			if from == nil {
				from = &timeline[i]
			}
		case lb.ToYear:
			if to == nil {
				to = &timeline[i]
			}
		}
	}
	if from == nil || to == nil {
		return nil, ErrIncompleteTimeline
	}
	fy, ty := strconv.Itoa(lb.FromYear), strconv.Itoa(lb.ToYear)
	colorIdx := 1
	if ladder.Len() < 2 {
		colorIdx = 0
	}
	return &Chart{
		Title:   to.DisplayName,
		JoinKey: to.JoinKey,
		Years:   []int{lb.FromYear, lb.ToYear},
		Bars: []Bar{
			{
				Name:   lb.BlocA,
				Values: map[string]*float64{fy: percent(from.RatioA), ty: percent(to.RatioA)},
				Color:  ladder.ColorsA()[colorIdx],
			},
			{
				Name:   lb.BlocB,
				Values: map[string]*float64{fy: percent(from.RatioB), ty: percent(to.RatioB)},
				Color:  ladder.ColorsB()[colorIdx],
			},
		},
	}, nil
}

// percent：比率转百分比并四舍五入到两位小数
func percent(m harmonize.Measure) *float64 {
	if !m.Present || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return nil
	}
	v, _ := strconv.ParseFloat(strconv.FormatFloat(m.Value*100, 'f', 2, 64), 64)
	return &v
}
