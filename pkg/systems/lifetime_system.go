package systems

import (
	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/ecs"
)

// LifetimeSystem 清理到期的临时实体（粒子特效组）
type LifetimeSystem struct {
	entityManager *ecs.EntityManager
}

// NewLifetimeSystem 创建一个新的生命周期系统
func NewLifetimeSystem(em *ecs.EntityManager) *LifetimeSystem {
	return &LifetimeSystem{
		entityManager: em,
	}
}

// Update 累加存在时间，到期的实体标记删除
func (s *LifetimeSystem) Update(deltaTime float64) {
	for _, id := range ecs.GetEntitiesWith1[*components.LifetimeComponent](s.entityManager) {
		lifetime, ok := ecs.GetComponent[*components.LifetimeComponent](s.entityManager, id)
		if !ok {
			continue
		}

		lifetime.CurrentLifetime += deltaTime
		if lifetime.CurrentLifetime >= lifetime.MaxLifetime {
			lifetime.IsExpired = true
		}
		if lifetime.IsExpired {
			s.entityManager.DestroyEntity(id)
		}
	}
}
