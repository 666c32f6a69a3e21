package systems

import (
	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/game"
)

// testWorld 测试用的最小鱼缸：实体管理器 + 时钟 + 默认配置
type testWorld struct {
	em    *ecs.EntityManager
	state *game.TankState
	cfg   *config.TankConfig
}

func newTestWorld(width, height float64) *testWorld {
	return &testWorld{
		em:    ecs.NewEntityManager(),
		state: game.NewTankState(width, height, 1),
		cfg:   config.DefaultTankConfig(),
	}
}

// addFish 在 (x, y) 放一条不带图片的鱼
func (w *testWorld) addFish(x, y, direction float64) ecs.EntityID {
	id := w.em.CreateEntity()
	w.em.AddComponent(id, &components.PositionComponent{X: x, Y: y})
	w.em.AddComponent(id, &components.VelocityComponent{VX: direction})
	w.em.AddComponent(id, &components.FishComponent{
		Direction: direction,
		Speed:     1,
		Amplitude: 6,
		Width:     40,
		Height:    24,
		Peduncle:  0.4,
	})
	return id
}

// addFood 在 (x, y) 放一颗鱼食
func (w *testWorld) addFood(x, y float64) ecs.EntityID {
	id := w.em.CreateEntity()
	w.em.AddComponent(id, &components.PositionComponent{X: x, Y: y})
	w.em.AddComponent(id, &components.FoodComponent{CreatedAt: w.state.Time, Size: w.cfg.Food.Size})
	return id
}

// tick 推进时钟并依次运行给定的更新函数
func (w *testWorld) tick(dt float64, updates ...func(float64)) {
	w.state.Advance(dt)
	for _, u := range updates {
		u(dt)
	}
	w.em.RemoveMarkedEntities()
}
