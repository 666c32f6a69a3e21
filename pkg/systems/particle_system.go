package systems

import (
	"image/color"
	"math"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/game"
)

var (
	splashColor  = color.RGBA{R: 190, G: 230, B: 255, A: 255}
	sparkleColor = color.RGBA{R: 255, G: 236, B: 140, A: 255}
)

// ParticleSystem 管理投食水花和进食闪光
//
// 粒子只是视觉反馈：弹道运动加阻尼，线性淡出，
// 到期后由 LifetimeSystem 删除整组实体。
type ParticleSystem struct {
	entityManager *ecs.EntityManager
	state         *game.TankState
	cfg           *config.TankConfig
}

// NewParticleSystem 创建粒子系统
func NewParticleSystem(em *ecs.EntityManager, state *game.TankState, cfg *config.TankConfig) *ParticleSystem {
	return &ParticleSystem{
		entityManager: em,
		state:         state,
		cfg:           cfg,
	}
}

// SpawnSplash 在投食点生成水花
func (s *ParticleSystem) SpawnSplash(x, y float64) ecs.EntityID {
	return s.SpawnBurst(components.ParticleSplash, x, y, s.cfg.Particles.SplashCount)
}

// SpawnSparkle 在鱼吃到食物的位置生成闪光
func (s *ParticleSystem) SpawnSparkle(x, y float64) ecs.EntityID {
	return s.SpawnBurst(components.ParticleSparkle, x, y, s.cfg.Particles.SparkleCount)
}

// SpawnBurst 以 (x, y) 为中心生成一组径向散开的粒子
func (s *ParticleSystem) SpawnBurst(kind components.ParticleKind, x, y float64, count int) ecs.EntityID {
	pc := s.cfg.Particles
	particles := make([]components.Particle, 0, count)
	for i := 0; i < count; i++ {
		angle := 2*math.Pi*float64(i)/float64(count) + s.state.RandRange(-0.3, 0.3)
		speed := pc.Speed * s.state.RandRange(0.5, 1)
		p := components.Particle{
			X:    x,
			Y:    y,
			VX:   math.Cos(angle) * speed,
			VY:   math.Sin(angle) * speed,
			Life: 1,
			Size: s.state.RandRange(1.5, 3),
		}
		if kind == components.ParticleSplash {
			// 水花整体向上溅起
			p.VY = -math.Abs(p.VY) - speed*0.5
		}
		particles = append(particles, p)
	}

	burstColor := splashColor
	if kind == components.ParticleSparkle {
		burstColor = sparkleColor
	}

	id := s.entityManager.CreateEntity()
	s.entityManager.AddComponent(id, &components.PositionComponent{X: x, Y: y})
	s.entityManager.AddComponent(id, &components.ParticleBurstComponent{
		Kind:      kind,
		Particles: particles,
		CreatedAt: s.state.Time,
		Duration:  s.cfg.ParticleSeconds(),
		Color:     burstColor,
	})
	s.entityManager.AddComponent(id, &components.LifetimeComponent{
		MaxLifetime: s.cfg.ParticleSeconds(),
	})
	return id
}

// Update 推进所有粒子
func (s *ParticleSystem) Update(deltaTime float64) {
	pc := s.cfg.Particles
	for _, id := range ecs.GetEntitiesWith1[*components.ParticleBurstComponent](s.entityManager) {
		if !liveEntity(s.entityManager, id) {
			continue
		}
		burst, _ := ecs.GetComponent[*components.ParticleBurstComponent](s.entityManager, id)

		life := 0.0
		if burst.Duration > 0 {
			life = clamp(1-(s.state.Time-burst.CreatedAt)/burst.Duration, 0, 1)
		}
		for i := range burst.Particles {
			p := &burst.Particles[i]
			p.X += p.VX
			p.Y += p.VY
			p.VX *= pc.Drag
			p.VY = p.VY*pc.Drag + pc.Gravity
			p.Life = life
		}
	}
}
