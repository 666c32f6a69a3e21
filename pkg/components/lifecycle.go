package components

// LifecycleState 生命周期状态
//
// 没有 LifecycleComponent 的鱼处于"存活"状态。
// 状态只允许 Entering → Alive → Dying → Removed 单向流转。
type LifecycleState int

const (
	// LifecycleEntering 入场动画中（淡入 + 放大）
	LifecycleEntering LifecycleState = iota
	// LifecycleDying 死亡动画中（翻转 + 淡出 + 下坠）
	LifecycleDying
)

// String 返回状态名，用于日志
func (s LifecycleState) String() string {
	switch s {
	case LifecycleEntering:
		return "entering"
	case LifecycleDying:
		return "dying"
	default:
		return "unknown"
	}
}

// LifecycleComponent 入场/死亡动画状态
//
// 所有时间都是鱼缸时钟（秒），由 LifecycleSystem 统一推进，
// 不依赖任何独立定时器。
type LifecycleComponent struct {
	State     LifecycleState
	StartTime float64
	Duration  float64

	// Opacity 当前透明度(0-1)，Scale 当前缩放（仅入场使用）
	Opacity float64
	Scale   float64

	// 死亡动画起始快照
	StartY     float64
	StartSpeed float64
	// UpsideDown 渲染时垂直翻转
	UpsideDown bool
}

// Progress 返回动画进度 [0, 1]
func (c *LifecycleComponent) Progress(now float64) float64 {
	if c.Duration <= 0 {
		return 1
	}
	p := (now - c.StartTime) / c.Duration
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Elapsed 检查动画时长是否已到
func (c *LifecycleComponent) Elapsed(now float64) bool {
	return now-c.StartTime >= c.Duration
}
