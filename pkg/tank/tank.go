// Package tank 组装鱼缸：鱼的集合、各个系统和容量控制器
//
// Tank 是场景与模拟之间唯一的入口。所有修改都发生在 Update 所在的线程上，
// 外部数据只通过 CapacityController 的 inbox 进入。
package tank

import (
	"image"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
)

// Options 创建鱼缸的参数
type Options struct {
	Width, Height float64
	Seed          int64

	Source     feed.Source
	Subscriber feed.Subscriber
	Loader     feed.ImageLoader

	Capacity int
	Sort     feed.Sort
}

// Stats 鱼缸的统计信息（用于 HUD）
type Stats struct {
	Fish     int
	Dying    int
	Pending  int
	Food     int
	Eaten    int
	Capacity int
	Preview  int
	Sort     feed.Sort
}

// Tank 一个完整的鱼缸
type Tank struct {
	EntityManager *ecs.EntityManager
	State         *game.TankState
	Config        *config.TankConfig

	Store      *SpriteStore
	Controller *CapacityController

	steering  *systems.SteeringSystem
	lifecycle *systems.LifecycleSystem
	food      *systems.FoodSystem
	particles *systems.ParticleSystem
	lifetime  *systems.LifetimeSystem

	fishRender   *systems.FishRenderSystem
	effectRender *systems.EffectRenderSystem
}

// New 创建鱼缸
func New(cfg *config.TankConfig, opts Options) *Tank {
	em := ecs.NewEntityManager()
	state := game.NewTankState(opts.Width, opts.Height, opts.Seed)

	t := &Tank{
		EntityManager: em,
		State:         state,
		Config:        cfg,
	}
	t.steering = systems.NewSteeringSystem(em, state, &cfg.Physics)
	t.lifecycle = systems.NewLifecycleSystem(em, state, cfg)
	t.particles = systems.NewParticleSystem(em, state, cfg)
	t.food = systems.NewFoodSystem(em, state, cfg, t.particles)
	t.lifetime = systems.NewLifetimeSystem(em)
	t.fishRender = systems.NewFishRenderSystem(em, state, cfg)
	t.effectRender = systems.NewEffectRenderSystem(em)

	t.Store = NewSpriteStore(em, state, cfg, t.lifecycle)
	t.Controller = NewCapacityController(t.Store, t.lifecycle, state, cfg,
		opts.Source, opts.Subscriber, opts.Loader, opts.Capacity, opts.Sort)
	return t
}

// Start 加载初始鱼群
func (t *Tank) Start() {
	t.Controller.Reload()
}

// Close 停止后台任务
func (t *Tank) Close() {
	t.Controller.Close()
}

// Update 推进一帧
//
// 顺序: 时钟 → 转向 → 生命周期 → 鱼食 → 粒子 → 到期清理 → 删除实体 → 容量控制。
// 容量控制放在删除之后，死亡鱼移除与替换鱼入场发生在同一帧。
func (t *Tank) Update(deltaTime float64) {
	t.State.Advance(deltaTime)

	t.steering.Update(deltaTime)
	t.lifecycle.Update(deltaTime)
	t.food.Update(deltaTime)
	t.particles.Update(deltaTime)
	t.lifetime.Update(deltaTime)
	t.EntityManager.RemoveMarkedEntities()

	t.Controller.Update(deltaTime)
	t.EntityManager.RemoveMarkedEntities()
}

// Draw 绘制鱼食、鱼和粒子
func (t *Tank) Draw(screen *ebiten.Image) {
	t.effectRender.DrawFood(screen)
	t.fishRender.Draw(screen)
	t.effectRender.DrawParticles(screen)
}

// Resize 调整鱼缸尺寸
func (t *Tank) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == t.State.Width && height == t.State.Height {
		return
	}
	t.Store.Resize(width, height)
}

// DropFood 在 (x, y) 投食
func (t *Tank) DropFood(x, y float64) {
	t.food.DropFood(x, y)
}

// Scare 惊吓 (x, y) 附近的鱼
func (t *Tank) Scare(x, y float64) int {
	return t.steering.Scare(x, y, t.Config.Physics.ScareRadius, t.Config.Physics.ScareStrength)
}

// FishAt 返回 (x, y) 处最上层的鱼的信息
func (t *Tank) FishAt(x, y float64) (components.FishInfoComponent, bool) {
	id, ok := t.Store.FindAtPoint(x, y)
	if !ok {
		return components.FishInfoComponent{}, false
	}
	info, ok := t.Store.Info(id)
	if !ok {
		return components.FishInfoComponent{}, false
	}
	return *info, true
}

// AddLocalFish 添加本地图片作为一条鱼
func (t *Tank) AddLocalFish(img image.Image) (string, error) {
	return t.Controller.SpawnLocal(img)
}

// UsingShader 返回尾巴形变是否由着色器完成
func (t *Tank) UsingShader() bool {
	return t.fishRender.UsingShader()
}

// Stats 返回当前统计
func (t *Tank) Stats() Stats {
	return Stats{
		Fish:     t.Store.CountActive(),
		Dying:    t.Store.CountDying(),
		Pending:  t.Controller.PendingCount(),
		Food:     len(ecs.GetEntitiesWith1[*components.FoodComponent](t.EntityManager)),
		Eaten:    t.food.Eaten(),
		Capacity: t.Controller.Capacity(),
		Preview:  t.Controller.PreviewValue(),
		Sort:     t.Controller.Sort(),
	}
}
