package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TankConfig 鱼缸模拟配置
//
// 所有物理量都以"每帧"为单位（应用以固定 60 TPS 驱动），
// 时间量以毫秒配置，通过 Seconds 系列方法换算为模拟时钟使用的秒。
//
// 配置文件位置: data/tank.yaml
type TankConfig struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Food      FoodConfig      `yaml:"food"`
	Particles ParticleConfig  `yaml:"particles"`
	Sizing    SizingConfig    `yaml:"sizing"`
	Capacity  CapacityConfig  `yaml:"capacity"`
	Render    RenderConfig    `yaml:"render"`
	Feed      FeedConfig      `yaml:"feed"`
}

// PhysicsConfig 转向与物理参数
type PhysicsConfig struct {
	// BaseThrustFactor 每帧基础推力系数: vx += speed * direction * BaseThrustFactor
	BaseThrustFactor float64 `yaml:"baseThrustFactor"`
	// Friction 普通状态下每帧速度衰减系数
	Friction float64 `yaml:"friction"`
	// SeekingFriction 觅食状态下的衰减系数（更大 = 摩擦更小）
	SeekingFriction float64 `yaml:"seekingFriction"`
	// MaxSpeedFactor 速度上限 = MaxSpeedFactor * speed
	MaxSpeedFactor float64 `yaml:"maxSpeedFactor"`
	// MinVelocity |vx| 低于此值时重置为巡航速度
	MinVelocity float64 `yaml:"minVelocity"`
	// CruiseFactor 速度重置时使用的巡航速度比例
	CruiseFactor float64 `yaml:"cruiseFactor"`
	// EdgeBounce 上下边界反弹的能量保留比例
	EdgeBounce float64 `yaml:"edgeBounce"`
	// EdgeImpulseFactor 撞到左右边界后向内的修正冲量比例
	EdgeImpulseFactor float64 `yaml:"edgeImpulseFactor"`
	// EdgeJitter 撞边后的随机垂直抖动幅度
	EdgeJitter float64 `yaml:"edgeJitter"`

	FoodDetectionRadius float64 `yaml:"foodDetectionRadius"`
	FoodAttraction      float64 `yaml:"foodAttraction"`
	// FoodCacheFrames 最近食物缓存的刷新间隔（帧）
	FoodCacheFrames int `yaml:"foodCacheFrames"`
	// DirectionDeadband 水平距离超过该值才转向食物，防止朝向抖动
	DirectionDeadband float64 `yaml:"directionDeadband"`
	// SeekingAmplitudeFactor 觅食时上下摆动幅度的缩放
	SeekingAmplitudeFactor float64 `yaml:"seekingAmplitudeFactor"`

	// 出生时随机参数范围
	MinSpeed     float64 `yaml:"minSpeed"`
	MaxSpeed     float64 `yaml:"maxSpeed"`
	MinAmplitude float64 `yaml:"minAmplitude"`
	MaxAmplitude float64 `yaml:"maxAmplitude"`

	// 惊吓冲量
	ScareRadius   float64 `yaml:"scareRadius"`
	ScareStrength float64 `yaml:"scareStrength"`
}

// LifecycleConfig 入场与死亡动画参数
type LifecycleConfig struct {
	EnteringDurationMs int     `yaml:"enteringDurationMs"`
	DyingDurationMs    int     `yaml:"dyingDurationMs"`
	EnteringStartScale float64 `yaml:"enteringStartScale"`
	// FallDistanceRatio 死亡下落距离占鱼缸高度的比例
	FallDistanceRatio float64 `yaml:"fallDistanceRatio"`
}

// FoodConfig 鱼食参数
type FoodConfig struct {
	// Gravity 每帧下落加速度，MaxFallSpeed 为下落速度上限
	Gravity       float64 `yaml:"gravity"`
	MaxFallSpeed  float64 `yaml:"maxFallSpeed"`
	Size          float64 `yaml:"size"`
	LifespanMs    int     `yaml:"lifespanMs"`
	ClusterSize   int     `yaml:"clusterSize"`
	ClusterSpread float64 `yaml:"clusterSpread"`
}

// ParticleConfig 粒子特效参数
type ParticleConfig struct {
	SplashCount  int     `yaml:"splashCount"`
	SparkleCount int     `yaml:"sparkleCount"`
	DurationMs   int     `yaml:"durationMs"`
	Speed        float64 `yaml:"speed"`
	Drag         float64 `yaml:"drag"`
	Gravity      float64 `yaml:"gravity"`
}

// SizingConfig 鱼的尺寸规则
//
// 宽度 = clamp(min(tankW, tankH) * SizeRatio, MinWidth, MaxWidth)，高度 = 宽度 * Aspect
type SizingConfig struct {
	SizeRatio float64 `yaml:"sizeRatio"`
	MinWidth  float64 `yaml:"minWidth"`
	MaxWidth  float64 `yaml:"maxWidth"`
	Aspect    float64 `yaml:"aspect"`
	Peduncle  float64 `yaml:"peduncle"`
	// RescaleThreshold 任一轴尺寸变化超过该比例时全量重缩放
	RescaleThreshold float64 `yaml:"rescaleThreshold"`
}

// CapacityConfig 种群容量控制参数
type CapacityConfig struct {
	Default            int `yaml:"default"`
	Min                int `yaml:"min"`
	Max                int `yaml:"max"`
	DebounceMs         int `yaml:"debounceMs"`
	StaggerMs          int `yaml:"staggerMs"`
	BackfillCooldownMs int `yaml:"backfillCooldownMs"`
	MaxPages           int `yaml:"maxPages"`
}

// RenderConfig 渲染参数
type RenderConfig struct {
	// Mode 尾巴形变渲染方式: "columns"（逐列绘制）或 "shader"（Kage 着色器）
	Mode       string  `yaml:"mode"`
	WiggleMax  float64 `yaml:"wiggleMax"`
	Background string  `yaml:"background"`
	ShowHUD    bool    `yaml:"showHud"`
}

// FeedConfig 外部数据源参数
type FeedConfig struct {
	APIBaseURL           string `yaml:"apiBaseUrl"`
	SubscribeURL         string `yaml:"subscribeUrl"`
	Sort                 string `yaml:"sort"`
	RequestTimeoutMs     int    `yaml:"requestTimeoutMs"`
	MaxConcurrentDecodes int    `yaml:"maxConcurrentDecodes"`
	// MaxImagePixels 单张图片允许的最大像素数（宽×高），超过的图片不解码
	MaxImagePixels int `yaml:"maxImagePixels"`
}

// 渲染模式
const (
	RenderModeColumns = "columns"
	RenderModeShader  = "shader"
)

// DefaultTankConfig 返回内置默认配置
func DefaultTankConfig() *TankConfig {
	return &TankConfig{
		Physics: PhysicsConfig{
			BaseThrustFactor:       0.02,
			Friction:               0.98,
			SeekingFriction:        0.99,
			MaxSpeedFactor:         2.0,
			MinVelocity:            0.1,
			CruiseFactor:           0.5,
			EdgeBounce:             0.5,
			EdgeImpulseFactor:      0.5,
			EdgeJitter:             0.5,
			FoodDetectionRadius:    150,
			FoodAttraction:         0.05,
			FoodCacheFrames:        5,
			DirectionDeadband:      10,
			SeekingAmplitudeFactor: 0.3,
			MinSpeed:               0.5,
			MaxSpeed:               1.5,
			MinAmplitude:           4,
			MaxAmplitude:           12,
			ScareRadius:            150,
			ScareStrength:          4,
		},
		Lifecycle: LifecycleConfig{
			EnteringDurationMs: 1000,
			DyingDurationMs:    2000,
			EnteringStartScale: 0.3,
			FallDistanceRatio:  0.5,
		},
		Food: FoodConfig{
			Gravity:       0.02,
			MaxFallSpeed:  1.0,
			Size:          4,
			LifespanMs:    10000,
			ClusterSize:   3,
			ClusterSpread: 20,
		},
		Particles: ParticleConfig{
			SplashCount:  10,
			SparkleCount: 6,
			DurationMs:   600,
			Speed:        2,
			Drag:         0.92,
			Gravity:      0.05,
		},
		Sizing: SizingConfig{
			SizeRatio:        0.1,
			MinWidth:         30,
			MaxWidth:         150,
			Aspect:           0.6,
			Peduncle:         0.4,
			RescaleThreshold: 0.2,
		},
		Capacity: CapacityConfig{
			Default:            20,
			Min:                1,
			Max:                100,
			DebounceMs:         300,
			StaggerMs:          200,
			BackfillCooldownMs: 10000,
			MaxPages:           3,
		},
		Render: RenderConfig{
			Mode:       RenderModeColumns,
			WiggleMax:  6,
			Background: "#1b4f72",
			ShowHUD:    true,
		},
		Feed: FeedConfig{
			Sort:                 "recent",
			RequestTimeoutMs:     10000,
			MaxConcurrentDecodes: 4,
			MaxImagePixels:       4096 * 4096,
		},
	}
}

// LoadTankConfig 加载鱼缸配置
//
// 从指定路径加载 YAML 文件。文件中未出现的字段保留默认值。
//
// 参数:
//   - path: 配置文件路径（如 "data/tank.yaml"）
//
// 返回:
//   - *TankConfig: 加载成功后的配置结构
//   - error: 加载失败时返回错误
func LoadTankConfig(path string) (*TankConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tank config: %w", err)
	}
	return ParseTankConfig(data)
}

// ParseTankConfig 从 YAML 字节解析配置（用于嵌入资源）
func ParseTankConfig(data []byte) (*TankConfig, error) {
	cfg := DefaultTankConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tank config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tank config: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置有效性
func (c *TankConfig) Validate() error {
	p := c.Physics
	if p.Friction <= 0 || p.Friction > 1 {
		return fmt.Errorf("physics.friction must be in (0, 1], got %.3f", p.Friction)
	}
	if p.SeekingFriction <= 0 || p.SeekingFriction > 1 {
		return fmt.Errorf("physics.seekingFriction must be in (0, 1], got %.3f", p.SeekingFriction)
	}
	if p.MinSpeed <= 0 || p.MinSpeed > p.MaxSpeed {
		return fmt.Errorf("physics speed range invalid: min(%.2f) max(%.2f)", p.MinSpeed, p.MaxSpeed)
	}
	if p.MinAmplitude > p.MaxAmplitude {
		return fmt.Errorf("physics amplitude range invalid: min(%.2f) > max(%.2f)", p.MinAmplitude, p.MaxAmplitude)
	}
	if p.FoodCacheFrames < 1 {
		return fmt.Errorf("physics.foodCacheFrames must be >= 1, got %d", p.FoodCacheFrames)
	}
	if p.FoodDetectionRadius <= 0 {
		return fmt.Errorf("physics.foodDetectionRadius must be positive, got %.2f", p.FoodDetectionRadius)
	}

	if c.Lifecycle.EnteringDurationMs <= 0 || c.Lifecycle.DyingDurationMs <= 0 {
		return fmt.Errorf("lifecycle durations must be positive")
	}
	if c.Lifecycle.EnteringStartScale < 0 || c.Lifecycle.EnteringStartScale > 1 {
		return fmt.Errorf("lifecycle.enteringStartScale must be in [0, 1], got %.2f", c.Lifecycle.EnteringStartScale)
	}

	if c.Food.LifespanMs <= 0 || c.Food.Size <= 0 {
		return fmt.Errorf("food lifespan and size must be positive")
	}
	if c.Particles.DurationMs <= 0 {
		return fmt.Errorf("particles.durationMs must be positive, got %d", c.Particles.DurationMs)
	}

	s := c.Sizing
	if s.MinWidth <= 0 || s.MinWidth > s.MaxWidth {
		return fmt.Errorf("sizing width range invalid: min(%.1f) max(%.1f)", s.MinWidth, s.MaxWidth)
	}
	if s.Aspect <= 0 {
		return fmt.Errorf("sizing.aspect must be positive, got %.2f", s.Aspect)
	}
	if s.Peduncle < 0 || s.Peduncle > 1 {
		return fmt.Errorf("sizing.peduncle must be in [0, 1], got %.2f", s.Peduncle)
	}

	cp := c.Capacity
	if cp.Min < 0 || cp.Min > cp.Max {
		return fmt.Errorf("capacity range invalid: min(%d) max(%d)", cp.Min, cp.Max)
	}
	if cp.Default < cp.Min || cp.Default > cp.Max {
		return fmt.Errorf("capacity.default %d outside [%d, %d]", cp.Default, cp.Min, cp.Max)
	}
	if cp.DebounceMs < 0 || cp.StaggerMs < 0 {
		return fmt.Errorf("capacity timings must not be negative")
	}

	switch c.Render.Mode {
	case RenderModeColumns, RenderModeShader:
	default:
		return fmt.Errorf("render.mode must be %q or %q, got %q", RenderModeColumns, RenderModeShader, c.Render.Mode)
	}

	switch c.Feed.Sort {
	case "recent", "popular", "random":
	default:
		return fmt.Errorf("feed.sort must be recent, popular or random, got %q", c.Feed.Sort)
	}
	if c.Feed.MaxImagePixels <= 0 {
		return fmt.Errorf("feed.maxImagePixels must be positive, got %d", c.Feed.MaxImagePixels)
	}
	return nil
}

// ClampCapacity 将容量限制在配置范围内
func (c *TankConfig) ClampCapacity(n int) int {
	if n < c.Capacity.Min {
		return c.Capacity.Min
	}
	if n > c.Capacity.Max {
		return c.Capacity.Max
	}
	return n
}

// EnteringSeconds 入场动画时长（秒）
func (c *TankConfig) EnteringSeconds() float64 { return msToSeconds(c.Lifecycle.EnteringDurationMs) }

// DyingSeconds 死亡动画时长（秒）
func (c *TankConfig) DyingSeconds() float64 { return msToSeconds(c.Lifecycle.DyingDurationMs) }

// FoodLifespanSeconds 鱼食存活时长（秒）
func (c *TankConfig) FoodLifespanSeconds() float64 { return msToSeconds(c.Food.LifespanMs) }

// ParticleSeconds 粒子特效时长（秒）
func (c *TankConfig) ParticleSeconds() float64 { return msToSeconds(c.Particles.DurationMs) }

// DebounceSeconds 容量滑块防抖时长（秒）
func (c *TankConfig) DebounceSeconds() float64 { return msToSeconds(c.Capacity.DebounceMs) }

// StaggerSeconds 批量死亡的错开间隔（秒）
func (c *TankConfig) StaggerSeconds() float64 { return msToSeconds(c.Capacity.StaggerMs) }

// BackfillCooldownSeconds 补位拉取的冷却时长（秒）
func (c *TankConfig) BackfillCooldownSeconds() float64 {
	return msToSeconds(c.Capacity.BackfillCooldownMs)
}

func msToSeconds(ms int) float64 {
	return float64(ms) / 1000.0
}
