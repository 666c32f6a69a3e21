package components

import "image/color"

// ParticleKind 粒子特效种类
type ParticleKind int

const (
	// ParticleSplash 投食时的水花
	ParticleSplash ParticleKind = iota
	// ParticleSparkle 鱼吃到食物时的闪光
	ParticleSparkle
)

// Particle 单个粒子的运行时状态
//
// 位置相对于鱼缸坐标，速度单位为像素/帧。
// Life 从 1 线性衰减到 0，渲染时直接作为透明度。
type Particle struct {
	X, Y   float64
	VX, VY float64
	Life   float64
	Size   float64
}

// ParticleBurstComponent 一组一次性粒子（纯视觉反馈）
//
// 由 ParticleSystem 推进运动与衰减；到期后由 LifetimeSystem 删除整组。
// 与鱼的状态没有任何耦合。
type ParticleBurstComponent struct {
	Kind      ParticleKind
	Particles []Particle
	CreatedAt float64
	Duration  float64
	Color     color.RGBA
}
