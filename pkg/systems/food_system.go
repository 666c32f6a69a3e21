package systems

import (
	"log"
	"math"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/game"
)

// FoodSystem 管理鱼食的下落、过期和被吃掉
type FoodSystem struct {
	entityManager *ecs.EntityManager
	state         *game.TankState
	cfg           *config.TankConfig
	particles     *ParticleSystem

	eaten int
}

// NewFoodSystem 创建鱼食系统；particles 为 nil 时不产生闪光
func NewFoodSystem(em *ecs.EntityManager, state *game.TankState, cfg *config.TankConfig, particles *ParticleSystem) *FoodSystem {
	return &FoodSystem{
		entityManager: em,
		state:         state,
		cfg:           cfg,
		particles:     particles,
	}
}

// DropFood 在 (x, y) 附近撒一小簇鱼食，并产生水花
func (s *FoodSystem) DropFood(x, y float64) []ecs.EntityID {
	fc := s.cfg.Food
	ids := make([]ecs.EntityID, 0, fc.ClusterSize)
	for i := 0; i < fc.ClusterSize; i++ {
		px := x
		py := y
		if i > 0 {
			px += s.state.RandRange(-fc.ClusterSpread, fc.ClusterSpread)
			py += s.state.RandRange(-fc.ClusterSpread/2, fc.ClusterSpread/2)
		}
		px = clamp(px, 0, s.state.Width)
		py = clamp(py, 0, math.Max(0, s.state.Height-fc.Size))

		id := s.entityManager.CreateEntity()
		s.entityManager.AddComponent(id, &components.PositionComponent{X: px, Y: py})
		s.entityManager.AddComponent(id, &components.FoodComponent{
			CreatedAt: s.state.Time,
			Size:      fc.Size,
		})
		ids = append(ids, id)
	}
	if s.particles != nil {
		s.particles.SpawnSplash(x, y)
	}
	return ids
}

// Eaten 返回累计被吃掉的鱼食数量
func (s *FoodSystem) Eaten() int {
	return s.eaten
}

// Update 推进鱼食：下落、过期、被存活的鱼吃掉
func (s *FoodSystem) Update(deltaTime float64) {
	em := s.entityManager
	fc := s.cfg.Food
	lifespan := s.cfg.FoodLifespanSeconds()

	pellets := ecs.GetEntitiesWith2[*components.FoodComponent, *components.PositionComponent](em)
	active := pellets[:0]
	for _, id := range pellets {
		if !liveEntity(em, id) {
			continue
		}
		food, _ := ecs.GetComponent[*components.FoodComponent](em, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
		if food.Consumed {
			continue
		}
		if s.state.Time-food.CreatedAt >= lifespan {
			em.DestroyEntity(id)
			continue
		}

		food.VY = math.Min(food.VY+fc.Gravity, fc.MaxFallSpeed)
		pos.Y += food.VY
		if floor := s.state.Height - food.Size; pos.Y >= floor {
			pos.Y = floor
			food.VY = 0
		}
		active = append(active, id)
	}
	if len(active) == 0 {
		return
	}

	for _, fishID := range ecs.GetEntitiesWith2[*components.FishComponent, *components.PositionComponent](em) {
		// 只有存活的鱼能进食，入场和死亡中的都不行
		if !IsAlive(em, fishID) {
			continue
		}
		f, _ := ecs.GetComponent[*components.FishComponent](em, fishID)
		fishPos, _ := ecs.GetComponent[*components.PositionComponent](em, fishID)
		cx, cy := f.CenterX(fishPos), f.CenterY(fishPos)

		for _, foodID := range active {
			food, _ := ecs.GetComponent[*components.FoodComponent](em, foodID)
			if food.Consumed {
				continue
			}
			pos, _ := ecs.GetComponent[*components.PositionComponent](em, foodID)
			reach := f.Width/2 + food.Size
			dx, dy := pos.X-cx, pos.Y-cy
			if dx*dx+dy*dy > reach*reach {
				continue
			}
			food.Consumed = true
			em.DestroyEntity(foodID)
			s.eaten++
			if f.FoodTarget == foodID {
				f.ResetFoodCache()
			}
			if s.particles != nil {
				s.particles.SpawnSparkle(pos.X, pos.Y)
			}
			log.Printf("[Food] fish %d ate pellet %d", fishID, foodID)
		}
	}
}
