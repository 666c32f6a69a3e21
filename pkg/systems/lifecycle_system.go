package systems

import (
	"log"
	"math"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/utils"
)

// LifecycleSystem 推进入场与死亡动画
//
// 状态流转: 入场 → 存活 → 死亡 → 移除，只进不退。
// 计时全部基于鱼缸时钟，动画时长未到之前不会移除。
type LifecycleSystem struct {
	entityManager *ecs.EntityManager
	state         *game.TankState
	cfg           *config.TankConfig

	onRemoved func(id ecs.EntityID)
}

// NewLifecycleSystem 创建生命周期系统
func NewLifecycleSystem(em *ecs.EntityManager, state *game.TankState, cfg *config.TankConfig) *LifecycleSystem {
	return &LifecycleSystem{
		entityManager: em,
		state:         state,
		cfg:           cfg,
	}
}

// SetRemovalHandler 设置死亡动画结束、鱼被移除时的回调
func (s *LifecycleSystem) SetRemovalHandler(fn func(id ecs.EntityID)) {
	s.onRemoved = fn
}

// StartEntering 让一条新出生的鱼进入入场动画
func (s *LifecycleSystem) StartEntering(id ecs.EntityID) {
	if !liveEntity(s.entityManager, id) {
		return
	}
	s.entityManager.AddComponent(id, &components.LifecycleComponent{
		State:     components.LifecycleEntering,
		StartTime: s.state.Time,
		Duration:  s.cfg.EnteringSeconds(),
		Opacity:   0,
		Scale:     s.cfg.Lifecycle.EnteringStartScale,
	})
}

// StartDying 让一条鱼进入死亡动画
//
// 入场中的鱼先提升为存活再开始死亡；已经在死亡中的鱼不受影响。
// 返回 true 表示本次调用确实开始了死亡动画。
func (s *LifecycleSystem) StartDying(id ecs.EntityID) bool {
	em := s.entityManager
	if !liveEntity(em, id) {
		return false
	}
	f, ok := ecs.GetComponent[*components.FishComponent](em, id)
	if !ok {
		return false
	}
	pos, ok := ecs.GetComponent[*components.PositionComponent](em, id)
	if !ok {
		return false
	}

	if lc, ok := ecs.GetComponent[*components.LifecycleComponent](em, id); ok {
		if lc.State == components.LifecycleDying {
			return false
		}
		ecs.RemoveComponent[*components.LifecycleComponent](em, id)
	}

	f.Seeking = false
	f.ResetFoodCache()
	em.AddComponent(id, &components.LifecycleComponent{
		State:      components.LifecycleDying,
		StartTime:  s.state.Time,
		Duration:   s.cfg.DyingSeconds(),
		Opacity:    1,
		Scale:      1,
		StartY:     pos.Y,
		StartSpeed: f.Speed,
		UpsideDown: true,
	})
	return true
}

// Update 推进所有动画中的鱼
func (s *LifecycleSystem) Update(deltaTime float64) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith1[*components.LifecycleComponent](em) {
		if !liveEntity(em, id) {
			continue
		}
		guardEntity("Lifecycle", id, func() {
			lc, _ := ecs.GetComponent[*components.LifecycleComponent](em, id)
			switch lc.State {
			case components.LifecycleEntering:
				s.updateEntering(id, lc)
			case components.LifecycleDying:
				s.updateDying(id, lc)
			}
		})
	}
}

func (s *LifecycleSystem) updateEntering(id ecs.EntityID, lc *components.LifecycleComponent) {
	now := s.state.Time
	p := lc.Progress(now)
	start := s.cfg.Lifecycle.EnteringStartScale
	lc.Opacity = p
	lc.Scale = utils.Lerp(start, 1, p)

	if lc.Elapsed(now) {
		ecs.RemoveComponent[*components.LifecycleComponent](s.entityManager, id)
	}
}

func (s *LifecycleSystem) updateDying(id ecs.EntityID, lc *components.LifecycleComponent) {
	em := s.entityManager
	now := s.state.Time
	p := lc.Progress(now)

	if f, ok := ecs.GetComponent[*components.FishComponent](em, id); ok {
		if pos, ok := ecs.GetComponent[*components.PositionComponent](em, id); ok {
			// 速度二次衰减，边滑行边下沉
			f.Speed = lc.StartSpeed * utils.EaseInQuad(1-p)
			pos.X = clamp(pos.X+f.Direction*f.Speed, 0, math.Max(0, s.state.Width-f.Width))
			pos.Y = lc.StartY + utils.EaseInQuad(p)*s.state.Height*s.cfg.Lifecycle.FallDistanceRatio
		}
	}
	lc.Opacity = 1 - p

	if lc.Elapsed(now) {
		em.DestroyEntity(id)
		log.Printf("[Lifecycle] fish %d removed after dying", id)
		if s.onRemoved != nil {
			s.onRemoved(id)
		}
	}
}

// IsAlive 检查鱼处于存活状态（既不在入场也不在死亡）
func IsAlive(em *ecs.EntityManager, id ecs.EntityID) bool {
	if !liveEntity(em, id) || !ecs.HasComponent[*components.FishComponent](em, id) {
		return false
	}
	return !ecs.HasComponent[*components.LifecycleComponent](em, id)
}

// IsEntering 检查鱼处于入场动画中
func IsEntering(em *ecs.EntityManager, id ecs.EntityID) bool {
	return hasLifecycleState(em, id, components.LifecycleEntering)
}

// IsDying 检查鱼处于死亡动画中
func IsDying(em *ecs.EntityManager, id ecs.EntityID) bool {
	return hasLifecycleState(em, id, components.LifecycleDying)
}

func hasLifecycleState(em *ecs.EntityManager, id ecs.EntityID, state components.LifecycleState) bool {
	if !liveEntity(em, id) {
		return false
	}
	lc, ok := ecs.GetComponent[*components.LifecycleComponent](em, id)
	return ok && lc.State == state
}
