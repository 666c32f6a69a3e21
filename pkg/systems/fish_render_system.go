package systems

import (
	"log"
	"math"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/hajimehoshi/ebiten/v2"
)

// FishRenderSystem 绘制鱼，尾部按列形变
//
// 默认逐列绘制：每列一个 1 像素宽的子图，按 WiggleOffsets 水平平移。
// 入场缩放、死亡翻转和透明度作为同一个 GeoM/ColorScale 作用于所有列。
// 配置为 shader 模式时改用 Kage 着色器完成同样的形变，编译失败则回退到逐列绘制。
type FishRenderSystem struct {
	entityManager *ecs.EntityManager
	state         *game.TankState
	cfg           *config.TankConfig

	shader  *ebiten.Shader
	offsets []float64
	quad    []ebiten.Vertex
}

// NewFishRenderSystem 创建鱼的渲染系统
func NewFishRenderSystem(em *ecs.EntityManager, state *game.TankState, cfg *config.TankConfig) *FishRenderSystem {
	s := &FishRenderSystem{
		entityManager: em,
		state:         state,
		cfg:           cfg,
	}
	if cfg.Render.Mode == config.RenderModeShader {
		shader, err := newWiggleShader()
		if err != nil {
			log.Printf("[Render] wiggle shader unavailable, falling back to columns: %v", err)
		} else {
			s.shader = shader
		}
	}
	return s
}

// UsingShader 返回是否使用着色器渲染
func (s *FishRenderSystem) UsingShader() bool {
	return s.shader != nil
}

// fishPose 一条鱼本帧的绘制参数
type fishPose struct {
	x, y    float64
	opacity float64
	local   ebiten.GeoM
}

// pose 计算鱼的绘制位置、透明度和局部变换
func (s *FishRenderSystem) pose(id ecs.EntityID, f *components.FishComponent, pos *components.PositionComponent) fishPose {
	p := fishPose{x: pos.X, y: pos.Y, opacity: 1}

	lc, hasLifecycle := ecs.GetComponent[*components.LifecycleComponent](s.entityManager, id)
	dying := hasLifecycle && lc.State == components.LifecycleDying
	if !dying {
		p.y += BobOffset(f.Amplitude, f.Phase, s.state.Time, f.Seeking, s.cfg.Physics.SeekingAmplitudeFactor)
	}
	if !hasLifecycle {
		return p
	}

	p.opacity = lc.Opacity
	switch lc.State {
	case components.LifecycleEntering:
		// 绕中心缩放
		p.local.Translate(-f.Width/2, -f.Height/2)
		p.local.Scale(lc.Scale, lc.Scale)
		p.local.Translate(f.Width/2, f.Height/2)
	case components.LifecycleDying:
		if lc.UpsideDown {
			p.local.Scale(1, -1)
			p.local.Translate(0, f.Height)
		}
	}
	return p
}

// Draw 按出生顺序绘制所有鱼（后出生的在上层）
func (s *FishRenderSystem) Draw(screen *ebiten.Image) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith3[
		*components.FishComponent,
		*components.PositionComponent,
		*components.SpriteComponent,
	](em) {
		if !liveEntity(em, id) {
			continue
		}
		f, _ := ecs.GetComponent[*components.FishComponent](em, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, id)
		if sprite.Image == nil {
			continue
		}

		p := s.pose(id, f, pos)
		if p.opacity <= 0 {
			continue
		}
		if s.shader != nil {
			s.drawShader(screen, f, sprite, p)
		} else {
			s.drawColumns(screen, f, sprite, p)
		}
	}
}

func (s *FishRenderSystem) drawColumns(screen *ebiten.Image, f *components.FishComponent, sprite *components.SpriteComponent, p fishPose) {
	width := sprite.Image.Bounds().Dx()
	s.offsets = WiggleOffsets(s.offsets, width, f.Direction, f.Peduncle, f.Phase, s.state.Time, s.cfg.Render.WiggleMax)

	op := &ebiten.DrawImageOptions{}
	op.ColorScale.ScaleAlpha(float32(p.opacity))
	op.Filter = ebiten.FilterLinear
	for i := 0; i < width; i++ {
		// 朝左时水平镜像取列
		src := i
		if f.Direction < 0 {
			src = width - 1 - i
		}
		op.GeoM.Reset()
		op.GeoM.Translate(float64(i)+s.offsets[i], 0)
		op.GeoM.Concat(p.local)
		op.GeoM.Translate(p.x, p.y)
		screen.DrawImage(sprite.Column(src), op)
	}
}

func (s *FishRenderSystem) drawShader(screen *ebiten.Image, f *components.FishComponent, sprite *components.SpriteComponent, p fishPose) {
	b := sprite.Image.Bounds()
	var geoM ebiten.GeoM
	geoM.Concat(p.local)
	geoM.Translate(p.x, p.y)
	s.quad = wiggleQuad(s.quad, geoM, float64(b.Dx()), float64(b.Dy()), math.Ceil(s.cfg.Render.WiggleMax), float32(p.opacity))

	op := &ebiten.DrawTrianglesShaderOptions{}
	op.Images[0] = sprite.Image
	op.Uniforms = map[string]any{
		"Time":      float32(s.state.Time),
		"Phase":     float32(f.Phase),
		"Direction": float32(f.Direction),
		"Peduncle":  float32(f.Peduncle),
		"WiggleMax": float32(s.cfg.Render.WiggleMax),
	}
	screen.DrawTrianglesShader(s.quad, quadIndices, s.shader, op)
}
