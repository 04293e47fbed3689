package highlight

import "votemap-api/internal/harmonize"

// 描边层级，数值越大优先级越高
type Tier int

const (
	TierNone Tier = iota
	TierGroup
	TierHoverExact
	TierSelectedExact
)

func (t Tier) String() string {
	switch t {
	case TierGroup:
		return "group"
	case TierHoverExact:
		return "hover-exact"
	case TierSelectedExact:
		return "selected-exact"
	default:
		return "none"
	}
}

// Visible：TierNone 的要素不进入描边层
func (t Tier) Visible() bool { return t != TierNone }

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

type Weight struct {
	Opacity float64 `json:"opacity"`
	Width   float64 `json:"width"`
}

var (
	WeightSelected = Weight{Opacity: 1.0, Width: 3}
	WeightHover    = Weight{Opacity: 0.8, Width: 3}
	WeightDefault  = Weight{Opacity: 0.25, Width: 2}
)

// 文档注释：解析单个要素的描边层级
// 背景：点击目标若同时是悬停目标，则以悬停为准并抑制其自身的选中高亮（选中状态本身不清除）。
// 优先级：选中精确 > 悬停精确 > 分组（悬停要素所在区或无冲突的点击目标）> 无。
// 约束：从不失败；未设置的状态字段一律视为不匹配。
func Resolve(joinKey, groupKey string, st State) (Tier, Weight) {
	clicked := effectiveSelection(st)
	if clicked.Matches(joinKey) {
		return TierSelectedExact, WeightSelected
	}
	if st.Hover.Matches(joinKey) {
		return TierHoverExact, WeightHover
	}
	if st.HoverGroup.Matches(groupKey) {
		return TierGroup, WeightDefault
	}
	return TierNone, WeightDefault
}

// effectiveSelection：点击目标与悬停目标相同时返回 None（自身高亮被抑制）
func effectiveSelection(st State) Target {
	if !st.Selected.IsSet() {
		return None
	}
	if st.Hover.IsSet() && st.Hover.Equal(st.Selected) {
		return None
	}
	return st.Selected
}

// 可见要素的描边结果
type Outline struct {
	JoinKey string `json:"join_key"`
	Tier    Tier   `json:"tier"`
	Weight
}

// ResolveAll：批量解析，仅返回可见层级的要素，顺序与输入一致
func ResolveAll(recs []harmonize.Record, st State) []Outline {
	out := make([]Outline, 0)
	for _, r := range recs {
		tier, w := Resolve(r.JoinKey, r.ParentGroupKey, st)
		if !tier.Visible() {
			continue
		}
		out = append(out, Outline{JoinKey: r.JoinKey, Tier: tier, Weight: w})
	}
	return out
}
