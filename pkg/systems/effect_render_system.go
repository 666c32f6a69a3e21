package systems

import (
	"image/color"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var pelletColor = color.RGBA{R: 196, G: 128, B: 64, A: 255}

// EffectRenderSystem 绘制鱼食和粒子
type EffectRenderSystem struct {
	entityManager *ecs.EntityManager
}

// NewEffectRenderSystem 创建特效渲染系统
func NewEffectRenderSystem(em *ecs.EntityManager) *EffectRenderSystem {
	return &EffectRenderSystem{entityManager: em}
}

// DrawFood 绘制鱼食颗粒
func (s *EffectRenderSystem) DrawFood(screen *ebiten.Image) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith2[*components.FoodComponent, *components.PositionComponent](em) {
		if !liveEntity(em, id) {
			continue
		}
		food, _ := ecs.GetComponent[*components.FoodComponent](em, id)
		if food.Consumed {
			continue
		}
		pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
		vector.DrawFilledCircle(screen, float32(pos.X), float32(pos.Y), float32(food.Size/2), pelletColor, true)
	}
}

// DrawParticles 绘制粒子，透明度随剩余寿命线性衰减
func (s *EffectRenderSystem) DrawParticles(screen *ebiten.Image) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith1[*components.ParticleBurstComponent](em) {
		if !liveEntity(em, id) {
			continue
		}
		burst, _ := ecs.GetComponent[*components.ParticleBurstComponent](em, id)
		for _, p := range burst.Particles {
			if p.Life <= 0 {
				continue
			}
			vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), float32(p.Size), fade(burst.Color, p.Life), true)
		}
	}
}

// fade 按比例缩放预乘透明度颜色
func fade(c color.RGBA, alpha float64) color.RGBA {
	a := clamp(alpha, 0, 1)
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}
