package game

import "math/rand"

// TankState 鱼缸的共享运行时状态
//
// 所有系统读取同一个时钟：Time 在每个 tick 开始时推进一次，
// 生命周期、防抖、错开死亡等所有计时都以它为准，不使用独立定时器。
type TankState struct {
	// Width, Height 鱼缸尺寸（逻辑像素）
	Width, Height float64
	// Time 鱼缸时钟（秒）
	Time float64
	// Frame 已推进的帧数
	Frame int
	// Rand 模拟使用的随机源（测试中可替换为固定种子）
	Rand *rand.Rand
}

// NewTankState 创建鱼缸状态
func NewTankState(width, height float64, seed int64) *TankState {
	return &TankState{
		Width:  width,
		Height: height,
		Rand:   rand.New(rand.NewSource(seed)),
	}
}

// Advance 推进时钟一帧
func (s *TankState) Advance(deltaTime float64) {
	s.Time += deltaTime
	s.Frame++
}

// RandRange 返回 [min, max) 范围内的随机数
func (s *TankState) RandRange(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.Rand.Float64()*(max-min)
}
