// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Point 屏幕坐标
type Point struct {
	X, Y int
}

// AppendTaps 追加本帧新按下的指针位置
// 同时支持鼠标左键和多点触摸，每个新触摸各算一次
func AppendTaps(dst []Point) []Point {
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		dst = append(dst, Point{X: x, Y: y})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		dst = append(dst, Point{X: x, Y: y})
	}
	return dst
}

// LongPressTracker 长按检测
// 触摸设备没有右键，按住同一位置满 Ticks 帧视为一次长按，每次按下只触发一次
type LongPressTracker struct {
	Ticks int
	fired map[ebiten.TouchID]bool
}

// NewLongPressTracker 创建长按检测器
func NewLongPressTracker(ticks int) *LongPressTracker {
	return &LongPressTracker{Ticks: ticks, fired: make(map[ebiten.TouchID]bool)}
}

// Update 返回本帧触发长按的触摸位置
func (t *LongPressTracker) Update() []Point {
	var out []Point
	active := ebiten.AppendTouchIDs(nil)
	for _, id := range active {
		if t.observe(id, inpututil.TouchPressDuration(id)) {
			x, y := ebiten.TouchPosition(id)
			out = append(out, Point{X: x, Y: y})
		}
	}
	t.prune(active)
	return out
}

// observe 记录一个触摸的按住时长，首次达到阈值时返回 true
func (t *LongPressTracker) observe(id ebiten.TouchID, duration int) bool {
	if t.fired == nil {
		t.fired = make(map[ebiten.TouchID]bool)
	}
	if t.Ticks <= 0 || duration < t.Ticks || t.fired[id] {
		return false
	}
	t.fired[id] = true
	return true
}

// prune 丢弃已经松开的触摸
func (t *LongPressTracker) prune(active []ebiten.TouchID) {
	if len(t.fired) == 0 {
		return
	}
	live := make(map[ebiten.TouchID]bool, len(active))
	for _, id := range active {
		live[id] = true
	}
	for id := range t.fired {
		if !live[id] {
			delete(t.fired, id)
		}
	}
}
