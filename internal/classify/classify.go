package classify

import (
	"fmt"
	"math"
)

// 文档注释：分级取色
// 背景：比较两序列取严格较大者作为主导值，在按倍率缩放后的阶梯中定位分级，返回主导序列色阶中对应颜色。
// 约束：相等、NaN/Inf、倍率非正时返回中性色；单条记录异常不影响其它要素。
func (l *Ladder) Classify(a, b, multiplier float64) string {
	c, _ := l.ClassifyOK(a, b, multiplier)
	return c
}

// ClassifyOK：同 Classify；ok=false 表示落入中性色（与色阶中是否含有同名颜色无关）
func (l *Ladder) ClassifyOK(a, b, multiplier float64) (string, bool) {
	if !finite(a) || !finite(b) {
		return l.neutral, false
	}
	var v float64
	var colors []string
	switch {
	case a > b:
		v, colors = a, l.colorsA
	case b > a:
		v, colors = b, l.colorsB
	default:
		return l.neutral, false
	}
	i, ok := l.Bucket(v, multiplier)
	if !ok {
		return l.neutral, false
	}
	return colors[i], true
}

// Bucket：返回满足 v >= T[i]*m 的最大下标；末级无上界；低于 T[0]*m 或输入非法时 ok=false
func (l *Ladder) Bucket(v, multiplier float64) (int, bool) {
	if !finite(v) || !finite(multiplier) || multiplier <= 0 {
		return 0, false
	}
	idx := -1
	for i, t := range l.thresholds {
		if v >= t*multiplier {
			idx = i
			continue
		}
		break
	}
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// 图例行：跳过第 0 级（无色差的起始段），标签按倍率换算为整数百分比
type LegendEntry struct {
	Lower  float64 `json:"lower"`
	Label  string  `json:"label"`
	ColorA string  `json:"color_a"`
	ColorB string  `json:"color_b"`
}

func (l *Ladder) Legend(multiplier float64) []LegendEntry {
	out := make([]LegendEntry, 0, len(l.thresholds))
	for i := 1; i < len(l.thresholds); i++ {
		lower := l.thresholds[i] * multiplier
		out = append(out, LegendEntry{
			Lower:  lower,
			Label:  fmt.Sprintf("%d%%", int(math.Round(lower*100*1e6)/1e6)),
			ColorA: l.colorsA[i],
			ColorB: l.colorsB[i],
		})
	}
	return out
}
