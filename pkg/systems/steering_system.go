package systems

import (
	"math"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/game"
)

// SteeringSystem 推进鱼的游动：推力、觅食、边界、摩擦
//
// 只处理存活和入场中的鱼；死亡中的鱼由 LifecycleSystem 接管位置。
// 入场中的鱼正常游动，但不会追逐食物。
type SteeringSystem struct {
	entityManager *ecs.EntityManager
	state         *game.TankState
	cfg           *config.PhysicsConfig
}

// NewSteeringSystem 创建转向系统
func NewSteeringSystem(em *ecs.EntityManager, state *game.TankState, cfg *config.PhysicsConfig) *SteeringSystem {
	return &SteeringSystem{
		entityManager: em,
		state:         state,
		cfg:           cfg,
	}
}

// Update 更新所有可转向的鱼
func (s *SteeringSystem) Update(deltaTime float64) {
	fish := ecs.GetEntitiesWith3[
		*components.FishComponent,
		*components.PositionComponent,
		*components.VelocityComponent,
	](s.entityManager)

	for _, id := range fish {
		if !liveEntity(s.entityManager, id) {
			continue
		}
		guardEntity("Steering", id, func() {
			s.steer(id)
		})
	}
}

func (s *SteeringSystem) steer(id ecs.EntityID) {
	em := s.entityManager
	f, _ := ecs.GetComponent[*components.FishComponent](em, id)
	pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
	vel, _ := ecs.GetComponent[*components.VelocityComponent](em, id)

	canEat := true
	if lc, ok := ecs.GetComponent[*components.LifecycleComponent](em, id); ok {
		if lc.State == components.LifecycleDying {
			return
		}
		canEat = false
	}

	f.Seeking = false
	var targetPos *components.PositionComponent
	if canEat {
		targetPos = s.foodTarget(f, pos)
	} else {
		f.ResetFoodCache()
	}

	// 基础推力
	vel.VX += f.Speed * f.Direction * s.cfg.BaseThrustFactor

	if targetPos != nil {
		dx := targetPos.X - f.CenterX(pos)
		dy := targetPos.Y - f.CenterY(pos)
		d := math.Hypot(dx, dy)
		if d > 0 {
			r := d / s.cfg.FoodDetectionRadius
			strength := s.cfg.FoodAttraction * math.Max(0, 1-r*r)
			vel.VX += dx / d * strength
			vel.VY += dy / d * strength
		}
		// 死区内不转向，避免在食物正上方左右抖动
		if math.Abs(dx) > s.cfg.DirectionDeadband {
			f.Direction = sign(dx)
		}
		f.Seeking = true
	}

	pos.X += vel.VX
	pos.Y += vel.VY

	hitEdge := false
	maxX := math.Max(0, s.state.Width-f.Width)
	maxY := math.Max(0, s.state.Height-f.Height)
	if pos.X < 0 {
		pos.X = 0
		f.Direction = 1
		vel.VX = math.Abs(vel.VX)
		hitEdge = true
	} else if pos.X > maxX {
		pos.X = maxX
		f.Direction = -1
		vel.VX = -math.Abs(vel.VX)
		hitEdge = true
	}
	if pos.Y < 0 {
		pos.Y = 0
		vel.VY = -vel.VY * s.cfg.EdgeBounce
	} else if pos.Y > maxY {
		pos.Y = maxY
		vel.VY = -vel.VY * s.cfg.EdgeBounce
	}

	friction := s.cfg.Friction
	if f.Seeking {
		friction = s.cfg.SeekingFriction
	}
	vel.VX *= friction
	vel.VY *= friction

	maxSpeed := s.cfg.MaxSpeedFactor * f.Speed
	if v := math.Hypot(vel.VX, vel.VY); v > maxSpeed && v > 0 {
		vel.VX *= maxSpeed / v
		vel.VY *= maxSpeed / v
	}

	if math.Abs(vel.VX) < s.cfg.MinVelocity {
		vel.VX = f.Direction * f.Speed * s.cfg.CruiseFactor
	}

	if hitEdge {
		vel.VX += f.Direction * f.Speed * s.cfg.EdgeImpulseFactor
		vel.VY += (s.state.Rand.Float64()*2 - 1) * s.cfg.EdgeJitter
	}
}

// foodTarget 返回鱼当前追逐的食物位置
//
// 最近食物每 FoodCacheFrames 帧重新查找一次，"附近没有食物"的结果同样缓存。
// 缓存的食物被吃掉、移除或已在检测半径之外时立即重新查找。
func (s *SteeringSystem) foodTarget(f *components.FishComponent, pos *components.PositionComponent) *components.PositionComponent {
	em := s.entityManager
	cx, cy := f.CenterX(pos), f.CenterY(pos)
	radius2 := s.cfg.FoodDetectionRadius * s.cfg.FoodDetectionRadius

	if f.FoodCached && s.state.Frame-f.FoodCacheFrame < s.cfg.FoodCacheFrames {
		if !f.HasFoodTarget {
			return nil
		}
		if p, ok := s.validFood(f.FoodTarget); ok {
			dx, dy := p.X-cx, p.Y-cy
			if dx*dx+dy*dy < radius2 {
				return p
			}
		}
	}

	f.ResetFoodCache()
	f.FoodCached = true
	f.FoodCacheFrame = s.state.Frame

	bestDist := radius2
	var best *components.PositionComponent
	for _, foodID := range ecs.GetEntitiesWith2[*components.FoodComponent, *components.PositionComponent](em) {
		p, ok := s.validFood(foodID)
		if !ok {
			continue
		}
		dx, dy := p.X-cx, p.Y-cy
		// 平方距离剪枝，避免开方
		if d2 := dx*dx + dy*dy; d2 < bestDist {
			bestDist = d2
			best = p
			f.FoodTarget = foodID
			f.HasFoodTarget = true
		}
	}
	return best
}

func (s *SteeringSystem) validFood(id ecs.EntityID) (*components.PositionComponent, bool) {
	if !liveEntity(s.entityManager, id) {
		return nil, false
	}
	food, ok := ecs.GetComponent[*components.FoodComponent](s.entityManager, id)
	if !ok || food.Consumed {
		return nil, false
	}
	return ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
}

// Scare 给半径内的鱼施加远离 (x, y) 的冲量
// 返回受影响的鱼数量
func (s *SteeringSystem) Scare(x, y, radius, strength float64) int {
	if radius <= 0 {
		return 0
	}
	em := s.entityManager
	scared := 0
	for _, id := range ecs.GetEntitiesWith3[
		*components.FishComponent,
		*components.PositionComponent,
		*components.VelocityComponent,
	](em) {
		if !liveEntity(em, id) {
			continue
		}
		if lc, ok := ecs.GetComponent[*components.LifecycleComponent](em, id); ok && lc.State == components.LifecycleDying {
			continue
		}
		f, _ := ecs.GetComponent[*components.FishComponent](em, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
		vel, _ := ecs.GetComponent[*components.VelocityComponent](em, id)

		dx := f.CenterX(pos) - x
		dy := f.CenterY(pos) - y
		d := math.Hypot(dx, dy)
		if d >= radius {
			continue
		}
		push := strength * (1 - d/radius)
		if d == 0 {
			dx, d = f.Direction, 1
		}
		vel.VX += dx / d * push
		vel.VY += dy / d * push
		f.Direction = sign(vel.VX)
		scared++
	}
	return scared
}
