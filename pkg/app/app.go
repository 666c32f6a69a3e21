// Package app 提供鱼缸应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log"
	"time"

	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/embedded"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/scenes"
	"github.com/decker502/fishtank/pkg/tank"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// 应用名（持久化存储目录）
const appName = "fishtank"

// 离线模式的演示数据
const (
	demoFishCount      = 60
	demoPublishSeconds = 15
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigPath 外部配置文件路径，为空则使用内置的 data/tank.yaml
	ConfigPath string
	// APIBaseURL 覆盖配置文件中的后端地址
	APIBaseURL string
	// SubscribeURL 覆盖配置文件中的 WebSocket 订阅地址
	SubscribeURL string
	// Sort 启动排序方式，为空则使用上次保存的设置
	Sort string
	// Capacity 启动容量，<= 0 则使用上次保存的设置
	Capacity int
	// Offline 使用内置的演示数据，不访问网络
	Offline bool
	// LocalFish 启动后加入鱼缸的本地图片
	LocalFish []string
	// Seed 随机种子，0 表示使用当前时间
	Seed int64
}

// App 是鱼缸应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	settings     *game.SettingsManager
	scene        *scenes.TankScene
	verbose      bool

	stopDemo context.CancelFunc
}

// NewApp 创建并初始化鱼缸应用
//
// 使用内置配置前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	tankCfg, err := loadTankConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.APIBaseURL != "" {
		tankCfg.Feed.APIBaseURL = cfg.APIBaseURL
	}
	if cfg.SubscribeURL != "" {
		tankCfg.Feed.SubscribeURL = cfg.SubscribeURL
	}

	settings := game.OpenSettingsManager(appName)
	capacity, sort, err := resolveStartup(cfg, tankCfg, settings.GetSettings())
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	opts := tank.Options{
		Width:    config.GameWindowWidth,
		Height:   config.GameWindowHeight,
		Seed:     seed,
		Capacity: capacity,
		Sort:     sort,
	}

	a := &App{
		sceneManager: game.NewSceneManager(),
		settings:     settings,
		verbose:      cfg.Verbose,
	}

	offline := cfg.Offline || tankCfg.Feed.APIBaseURL == ""
	if offline {
		mem := feed.NewMemorySource(feed.DemoItems(demoFishCount, time.Now().Add(-demoFishCount*time.Minute))...)
		opts.Source, opts.Subscriber, opts.Loader = mem, mem, feed.DoodleLoader{}
		a.startDemoPublisher(mem)
		log.Printf("[App] Offline mode: %d demo fish", demoFishCount)
	} else {
		timeout := time.Duration(tankCfg.Feed.RequestTimeoutMs) * time.Millisecond
		opts.Source = feed.NewHTTPSource(tankCfg.Feed.APIBaseURL, timeout)
		opts.Loader = feed.NewHTTPImageLoader(timeout, tankCfg.Feed.MaxImagePixels)
		if tankCfg.Feed.SubscribeURL != "" {
			opts.Subscriber = feed.NewWSSubscriber(tankCfg.Feed.SubscribeURL)
		}
		log.Printf("[App] Feed: %s (subscribe: %q)", tankCfg.Feed.APIBaseURL, tankCfg.Feed.SubscribeURL)
	}

	t := tank.New(tankCfg, opts)
	t.Start()
	for _, path := range cfg.LocalFish {
		img, err := feed.LoadFile(path, tankCfg.Feed.MaxImagePixels)
		if err != nil {
			log.Printf("[App] Skipping local fish %s: %v", path, err)
			continue
		}
		if _, err := t.AddLocalFish(img); err != nil {
			log.Printf("[App] Skipping local fish %s: %v", path, err)
		}
	}

	a.scene = scenes.NewTankScene(t, settings)
	a.sceneManager.SwitchTo(a.scene)

	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}
	return a, nil
}

// loadTankConfig 读取外部配置文件，或内置的 data/tank.yaml
func loadTankConfig(path string) (*config.TankConfig, error) {
	if path != "" {
		cfg, err := config.LoadTankConfig(path)
		if err != nil {
			return nil, fmt.Errorf("配置加载失败: %w", err)
		}
		log.Printf("[Config] Loaded %s", path)
		return cfg, nil
	}

	if !embedded.IsInitialized() {
		log.Printf("[Config] Embedded data unavailable, using defaults")
		return config.DefaultTankConfig(), nil
	}
	data, err := embedded.ReadFile("data/tank.yaml")
	if err != nil {
		return nil, fmt.Errorf("内置配置读取失败: %w", err)
	}
	cfg, err := config.ParseTankConfig(data)
	if err != nil {
		return nil, fmt.Errorf("内置配置解析失败: %w", err)
	}
	return cfg, nil
}

// resolveStartup 确定启动容量和排序方式
// 优先级: 命令行 > 保存的设置 > 配置文件
func resolveStartup(cfg Config, tankCfg *config.TankConfig, saved *game.TankSettings) (int, feed.Sort, error) {
	capacity := tankCfg.Capacity.Default
	if saved.Capacity > 0 {
		capacity = saved.Capacity
	}
	if cfg.Capacity > 0 {
		capacity = cfg.Capacity
	}
	capacity = tankCfg.ClampCapacity(capacity)

	sortName := tankCfg.Feed.Sort
	if saved.Sort != "" {
		sortName = saved.Sort
	}
	if cfg.Sort != "" {
		sortName = cfg.Sort
	}
	sort, err := feed.ParseSort(sortName)
	if err != nil {
		if cfg.Sort != "" {
			return 0, "", err
		}
		log.Printf("[App] Ignoring saved sort %q: %v", sortName, err)
		sort = feed.SortRecent
	}
	return capacity, sort, nil
}

// startDemoPublisher 离线模式下定期发布一条新的演示记录
func (a *App) startDemoPublisher(mem *feed.MemorySource) {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopDemo = cancel

	go func() {
		ticker := time.NewTicker(demoPublishSeconds * time.Second)
		defer ticker.Stop()
		seed := int64(demoFishCount)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				seed++
				mem.Publish(feed.DemoItem(seed, now))
			}
		}
	}()
}

// Update 更新鱼缸逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 需要先调用 ebiten.SetWindowClosingHandled(true)
	if ebiten.IsWindowBeingClosed() {
		a.Close()
		return ebiten.Termination
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		fullscreen := !ebiten.IsFullscreen()
		ebiten.SetFullscreen(fullscreen)
		if !fullscreen && (ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized()) {
			ebiten.RestoreWindow()
		}
		a.settings.SetFullscreen(fullscreen)
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制鱼缸画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 逻辑尺寸跟随窗口，这里只负责填充底色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 逻辑屏幕尺寸等于窗口尺寸，鱼缸随窗口伸缩
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := max(outsideWidth, 1), max(outsideHeight, 1)
	a.sceneManager.Resize(w, h)
	return w, h
}

// Close 停止后台任务并保存设置
func (a *App) Close() {
	if a.stopDemo != nil {
		a.stopDemo()
	}
	if s, ok := a.sceneManager.GetCurrentScene().(game.Saveable); ok {
		s.SaveOnExit()
	}
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
