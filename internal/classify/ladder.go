// 包 classify：双序列阈值分级着色（主导序列 + 单调阈值阶梯）
package classify

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyLadder    = errors.New("classify: empty ladder")
	ErrLengthMismatch = errors.New("classify: thresholds and colors differ in length")
	ErrNotAscending   = errors.New("classify: thresholds not strictly ascending")
	ErrBaseNotZero    = errors.New("classify: first threshold must be 0")
	ErrBadThreshold   = errors.New("classify: threshold is not a finite number")
)

// 默认中性色：平局、缺失或非法输入时使用
const Neutral = "grey"

// 文档注释：阈值阶梯（配置）
// 背景：两个竞争序列共用同一组阈值，各自使用独立色阶；倍率在分级时施加，用于适配“结果/变化”不同的取值范围。
// 约束：只能通过 NewLadder 构建，配置错误在启动期暴露；构建后只读，可并发使用。
type Ladder struct {
	thresholds []float64
	colorsA    []string
	colorsB    []string
	neutral    string
}

// NewLadder：校验并构建阶梯；neutral 为空时使用 Neutral
func NewLadder(thresholds []float64, colorsA, colorsB []string, neutral string) (*Ladder, error) {
	if len(thresholds) == 0 {
		return nil, ErrEmptyLadder
	}
	if len(colorsA) != len(thresholds) || len(colorsB) != len(thresholds) {
		return nil, fmt.Errorf("%w: thresholds=%d colorsA=%d colorsB=%d", ErrLengthMismatch, len(thresholds), len(colorsA), len(colorsB))
	}
	for i, t := range thresholds {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: index %d", ErrBadThreshold, i)
		}
		if i > 0 && t <= thresholds[i-1] {
			return nil, fmt.Errorf("%w: index %d (%v <= %v)", ErrNotAscending, i, t, thresholds[i-1])
		}
	}
	if thresholds[0] != 0 {
		return nil, ErrBaseNotZero
	}
	if neutral == "" {
		neutral = Neutral
	}
	return &Ladder{
		thresholds: append([]float64(nil), thresholds...),
		colorsA:    append([]string(nil), colorsA...),
		colorsB:    append([]string(nil), colorsB...),
		neutral:    neutral,
	}, nil
}

func (l *Ladder) Thresholds() []float64 { return append([]float64(nil), l.thresholds...) }
func (l *Ladder) ColorsA() []string { return append([]string(nil), l.colorsA...) }
func (l *Ladder) ColorsB() []string { return append([]string(nil), l.colorsB...) }
func (l *Ladder) Neutral() string { return l.neutral }
func (l *Ladder) Len() int { return len(l.thresholds) }

// HSLRamp：生成由浅到深的色阶，第 i 级亮度为 90-10i
func HSLRamp(hue, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("hsl(%d, 100%%, %d%%)", hue, 90-i*10)
	}
	return out
}

var DefaultThresholds = []float64{0, 0.05, 0.1, 0.15, 0.2, 0.25}

const (
	HueA = 220
	HueB = 0
)

// DefaultLadder：默认阶梯（蓝/红两色阶）；配置为常量，构建失败即为程序错误
func DefaultLadder() *Ladder {
	n := len(DefaultThresholds)
	l, err := NewLadder(DefaultThresholds, HSLRamp(HueA, n), HSLRamp(HueB, n), Neutral)
	if err != nil {
		panic(err)
	}
	return l
}
