package scenes

import (
	"fmt"
	"image/color"
	"log"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/tank"
	"github.com/decker502/fishtank/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// 信息面板和提示的显示时长（秒，鱼缸时钟）
const (
	infoPanelSeconds = 4.0
	toastSeconds     = 2.0

	// 触摸长按多少帧视为惊吓
	longPressTicks = 30
)

// TankScene 鱼缸场景：把输入转换为鱼缸操作，并绘制鱼缸与 HUD
//
// 左键/触摸 = 投食（点在鱼上则显示鱼的信息），右键/长按 = 惊吓，
// 上下方向键 = 调整容量（Shift 一次 5 条），1/2/3 = 切换排序，H = 显示/隐藏 HUD，R = 重新加载。
type TankScene struct {
	tank     *tank.Tank
	settings *game.SettingsManager

	background color.RGBA
	showHUD    bool
	font       *text.GoTextFace
	longPress  *utils.LongPressTracker
	taps       []utils.Point

	selected      *components.FishInfoComponent
	selectedUntil float64
	toast         string
	toastUntil    float64
}

// NewTankScene 创建鱼缸场景
// settings 可为 nil（不持久化）
func NewTankScene(t *tank.Tank, settings *game.SettingsManager) *TankScene {
	cfg := t.Config
	bg, err := utils.ParseHexColor(cfg.Render.Background)
	if err != nil {
		log.Printf("[TankScene] invalid background %q: %v", cfg.Render.Background, err)
		bg = color.RGBA{R: 0x1b, G: 0x4f, B: 0x72, A: 0xff}
	}

	s := &TankScene{
		tank:       t,
		settings:   settings,
		background: bg,
		showHUD:    cfg.Render.ShowHUD,
		longPress:  utils.NewLongPressTracker(longPressTicks),
	}
	if font, err := loadHUDFont(hudFontSize); err != nil {
		log.Printf("[TankScene] HUD text disabled: %v", err)
	} else {
		s.font = font
	}
	if settings != nil {
		if show := settings.GetSettings().ShowHUD; show != nil {
			s.showHUD = *show
		}
	}

	t.Controller.OnCommit = s.persist
	return s
}

// Update 处理输入并推进鱼缸
func (s *TankScene) Update(deltaTime float64) {
	s.handleInput()
	s.tank.Update(deltaTime)
}

func (s *TankScene) handleInput() {
	s.taps = utils.AppendTaps(s.taps[:0])
	for _, p := range s.taps {
		s.Tap(float64(p.X), float64(p.Y))
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		x, y := ebiten.CursorPosition()
		s.Scare(float64(x), float64(y))
	}
	for _, p := range s.longPress.Update() {
		s.Scare(float64(p.X), float64(p.Y))
	}

	step := 1
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		step = 5
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		s.AdjustCapacity(step)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		s.AdjustCapacity(-step)
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit1):
		s.SetSort(feed.SortRecent)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit2):
		s.SetSort(feed.SortPopular)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit3):
		s.SetSort(feed.SortRandom)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		s.ToggleHUD()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.tank.Controller.Reload()
		s.showToast("Reloading...")
	}
}

// Tap 点击鱼显示信息，点击水面投食
func (s *TankScene) Tap(x, y float64) {
	if info, ok := s.tank.FishAt(x, y); ok {
		s.selected = &info
		s.selectedUntil = s.tank.State.Time + infoPanelSeconds
		return
	}
	s.tank.DropFood(x, y)
}

// Scare 惊吓 (x, y) 附近的鱼
func (s *TankScene) Scare(x, y float64) {
	if n := s.tank.Scare(x, y); n > 0 {
		log.Printf("[TankScene] scared %d fish", n)
	}
}

// AdjustCapacity 在当前预览值基础上调整容量
func (s *TankScene) AdjustCapacity(delta int) {
	c := s.tank.Controller
	c.PreviewCapacity(c.PreviewValue() + delta)
}

// SetSort 切换排序方式
func (s *TankScene) SetSort(sort feed.Sort) {
	if sort == s.tank.Controller.Sort() {
		return
	}
	s.tank.Controller.SetSort(sort)
	s.showToast(fmt.Sprintf("Sort: %s", sort))
}

// ToggleHUD 显示/隐藏 HUD
func (s *TankScene) ToggleHUD() {
	s.showHUD = !s.showHUD
	if s.settings != nil {
		s.settings.SetShowHUD(s.showHUD)
	}
}

// Resize 窗口尺寸变化时调整鱼缸
func (s *TankScene) Resize(width, height int) {
	s.tank.Resize(float64(width), float64(height))
}

// SaveOnExit 保存设置并停止后台任务
func (s *TankScene) SaveOnExit() bool {
	s.tank.Close()
	if s.settings == nil {
		return true
	}
	if err := s.settings.Save(); err != nil {
		log.Printf("[TankScene] failed to save settings: %v", err)
		return false
	}
	return true
}

// persist 容量或排序生效后写入设置
func (s *TankScene) persist(capacity int, sort feed.Sort) {
	if s.settings == nil {
		return
	}
	s.settings.SetCapacity(capacity)
	s.settings.SetSort(string(sort))
	if err := s.settings.Save(); err != nil {
		log.Printf("[TankScene] failed to save settings: %v", err)
	}
}

func (s *TankScene) showToast(msg string) {
	s.toast = msg
	s.toastUntil = s.tank.State.Time + toastSeconds
}

// Draw 绘制背景、鱼缸和 HUD
func (s *TankScene) Draw(screen *ebiten.Image) {
	screen.Fill(s.background)
	s.tank.Draw(screen)

	now := s.tank.State.Time
	if s.selected != nil && now < s.selectedUntil {
		s.drawInfoPanel(screen, s.selected)
	}
	if s.showHUD {
		s.drawHUD(screen)
	}
	if s.toast != "" && now < s.toastUntil {
		s.drawToast(screen)
	}
}
