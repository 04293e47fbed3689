// 包 highlight：根据悬停与点击状态计算每个要素的描边层级与权重
package highlight

// 文档注释：带哨兵的目标键
// 背景：行政动编码可能为空串，不能用 "" 表示“无目标”；None 与 Key("") 必须可区分。
// 约束：零值即 None；None 不匹配任何键（包括空串）。
type Target struct {
	key string
	set bool
}

var None = Target{}

func Key(k string) Target { return Target{key: k, set: true} }

func (t Target) IsSet() bool { return t.set }

// Value：未设置时返回 ("", false)
func (t Target) Value() (string, bool) { return t.key, t.set }

func (t Target) Matches(k string) bool { return t.set && t.key == k }

func (t Target) Equal(o Target) bool { return t.set == o.set && t.key == o.key }

func (t Target) String() string {
	if !t.set {
		return "<none>"
	}
	return t.key
}

// 文档注释：选择状态
// 背景：由渲染端持有并在每次变化时整体传入解析函数，核心不保存任何全局可变状态。
// 约束：值类型，转换方法返回新状态；从不持久化。
type State struct {
	Hover      Target `json:"-"`
	HoverGroup Target `json:"-"`
	Selected   Target `json:"-"`
}

// OnHover：指针移动到要素上，同时记录其上级分组
func (s State) OnHover(joinKey, groupKey string) State {
	s.Hover = Key(joinKey)
	s.HoverGroup = Key(groupKey)
	return s
}

// OnPointerLeave：指针移出任何要素
func (s State) OnPointerLeave() State {
	s.Hover = None
	s.HoverGroup = None
	return s
}

func (s State) OnClick(joinKey string) State {
	s.Selected = Key(joinKey)
	return s
}

// OnEmptyClick：点击空白处仅清除悬停，已选中的要素保留
func (s State) OnEmptyClick() State { return s.OnPointerLeave() }

func (s State) Reset() State { return State{} }
