package scenes

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gomono"
)

// HUD 字体与面板参数
const (
	hudFontSize       = 13
	lineSpacingFactor = 1.3
	panelMargin       = 8
)

var panelColor = color.RGBA{A: 150}

// loadHUDFont 加载 HUD 使用的等宽字体（内置 Go Mono）
func loadHUDFont(size float64) (*text.GoTextFace, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HUD font: %w", err)
	}
	return &text.GoTextFace{Source: src, Size: size}, nil
}

// hudLines 组装 HUD 文本
func (s *TankScene) hudLines() []string {
	st := s.tank.Stats()
	mode := config.RenderModeColumns
	if s.tank.UsingShader() {
		mode = config.RenderModeShader
	}

	capacity := fmt.Sprintf("Capacity: %d", st.Capacity)
	if st.Preview != st.Capacity {
		capacity = fmt.Sprintf("Capacity: %d -> %d", st.Capacity, st.Preview)
	}
	lines := []string{
		fmt.Sprintf("Fish: %d  dying: %d  queued: %d", st.Fish, st.Dying, st.Pending),
		capacity,
		fmt.Sprintf("Sort: %s  render: %s", st.Sort, mode),
		fmt.Sprintf("Food: %d  eaten: %d  FPS: %.0f", st.Food, st.Eaten, ebiten.ActualFPS()),
	}
	if utils.IsMobile() {
		return append(lines, "tap: feed/info  hold: scare")
	}
	return append(lines,
		"click: feed/info  right click: scare",
		"up/down: capacity  1/2/3: sort  H: HUD  R: reload",
	)
}

func (s *TankScene) drawHUD(screen *ebiten.Image) {
	s.drawTextPanel(screen, s.hudLines(), 10, 10)
}

// infoLines 组装鱼的信息面板文本
func infoLines(info *components.FishInfoComponent) []string {
	lines := []string{fmt.Sprintf("Artist: %s", info.Artist)}
	if !info.CreatedAt.IsZero() {
		lines = append(lines, "Drawn: "+info.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if info.DocID != "" {
		lines = append(lines, fmt.Sprintf("Score: %d (+%d / -%d)", info.Score(), info.Upvotes, info.Downvotes))
	} else {
		lines = append(lines, "Local fish")
	}
	return lines
}

func (s *TankScene) drawInfoPanel(screen *ebiten.Image, info *components.FishInfoComponent) {
	lines := infoLines(info)
	w, _ := s.panelSize(lines)
	s.drawTextPanel(screen, lines, float64(screen.Bounds().Dx())-w-10, 10)
}

// drawToast 在屏幕上方居中显示提示
func (s *TankScene) drawToast(screen *ebiten.Image) {
	lines := []string{s.toast}
	w, _ := s.panelSize(lines)
	s.drawTextPanel(screen, lines, (float64(screen.Bounds().Dx())-w)/2, 12)
}

// panelSize 返回多行文本面板（含边距）的尺寸
func (s *TankScene) panelSize(lines []string) (float64, float64) {
	if s.font == nil {
		return 0, 0
	}
	w, h := text.Measure(strings.Join(lines, "\n"), s.font, s.font.Size*lineSpacingFactor)
	return w + 2*panelMargin, h + panelMargin
}

// drawTextPanel 在半透明底板上绘制多行文本
func (s *TankScene) drawTextPanel(screen *ebiten.Image, lines []string, x, y float64) {
	if s.font == nil {
		return
	}
	w, h := s.panelSize(lines)
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), panelColor, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(x+panelMargin, y+panelMargin/2)
	op.LineSpacing = s.font.Size * lineSpacingFactor
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, strings.Join(lines, "\n"), s.font, op)
}
