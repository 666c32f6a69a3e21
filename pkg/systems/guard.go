package systems

import (
	"log"

	"github.com/decker502/fishtank/pkg/ecs"
)

// guardEntity 执行单个实体的更新，panic 时只放弃该实体本帧的更新
func guardEntity(tag string, id ecs.EntityID, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] entity %d update failed: %v", tag, id, r)
		}
	}()
	fn()
}

// liveEntity 检查实体存在且未被标记删除
func liveEntity(em *ecs.EntityManager, id ecs.EntityID) bool {
	return em.Exists(id) && !em.IsMarkedForDestroy(id)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
