package entities

import (
	"fmt"
	"image"
	"math"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
)

// FishParams 创建鱼时可选的外部参数
// 指针字段为 nil 时使用随机值
type FishParams struct {
	Info      components.FishInfoComponent
	Phase     *float64
	Amplitude *float64
	Speed     *float64
	Peduncle  *float64
	SpawnSeq  uint64
}

// FishSize 按鱼缸尺寸计算鱼的渲染尺寸
// 宽度 = clamp(min(W, H) * SizeRatio, MinWidth, MaxWidth)，高度 = 宽度 * Aspect
func FishSize(cfg *config.SizingConfig, tankWidth, tankHeight float64) (float64, float64) {
	w := math.Min(tankWidth, tankHeight) * cfg.SizeRatio
	w = math.Max(cfg.MinWidth, math.Min(cfg.MaxWidth, w))
	return math.Round(w), math.Round(w * cfg.Aspect)
}

// RenderFishImage 把裁剪后的原图缩放为目标尺寸的 ebiten 位图
func RenderFishImage(source image.Image, width, height float64) (*ebiten.Image, error) {
	scaled, err := utils.FitInto(source, int(width), int(height))
	if err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(scaled), nil
}

// NewFishEntity 创建一条鱼
// 参数:
//   - em: EntityManager 实例
//   - state: 鱼缸状态，提供尺寸和随机源
//   - cfg: 鱼缸配置
//   - src: 解码后的原始图片，会先裁剪掉透明边缘
//   - params: 外部参数
//
// 返回: 实体ID；图片为空白时返回 utils.ErrBlankImage
func NewFishEntity(em *ecs.EntityManager, state *game.TankState, cfg *config.TankConfig, src image.Image, params FishParams) (ecs.EntityID, error) {
	cropped, err := utils.CropToContent(src)
	if err != nil {
		return 0, err
	}

	width, height := FishSize(&cfg.Sizing, state.Width, state.Height)
	img, err := RenderFishImage(cropped, width, height)
	if err != nil {
		return 0, fmt.Errorf("failed to scale fish image: %w", err)
	}

	pc := cfg.Physics
	direction := 1.0
	if state.Rand.Intn(2) == 0 {
		direction = -1
	}
	speed := pickOr(params.Speed, state.RandRange(pc.MinSpeed, pc.MaxSpeed))
	phase := pickOr(params.Phase, state.RandRange(0, 2*math.Pi))
	amplitude := pickOr(params.Amplitude, state.RandRange(pc.MinAmplitude, pc.MaxAmplitude))
	peduncle := pickOr(params.Peduncle, cfg.Sizing.Peduncle)

	id := em.CreateEntity()

	// 随机放在鱼缸内
	em.AddComponent(id, &components.PositionComponent{
		X: state.RandRange(0, math.Max(0, state.Width-width)),
		Y: state.RandRange(0, math.Max(0, state.Height-height)),
	})
	em.AddComponent(id, &components.VelocityComponent{
		VX: direction * speed * pc.CruiseFactor,
	})
	em.AddComponent(id, &components.SpriteComponent{
		Image:  img,
		Source: cropped,
	})
	em.AddComponent(id, &components.FishComponent{
		Direction: direction,
		Speed:     speed,
		Phase:     phase,
		Amplitude: amplitude,
		Width:     width,
		Height:    height,
		Peduncle:  peduncle,
		SpawnSeq:  params.SpawnSeq,
	})
	info := params.Info
	em.AddComponent(id, &info)

	return id, nil
}

func pickOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
