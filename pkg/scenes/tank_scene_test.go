package scenes

import (
	"testing"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/tank"
)

// newTestScene 创建一个没有外部数据源的鱼缸场景，里面只有一条本地鱼
func newTestScene(t *testing.T) (*TankScene, ecs.EntityID) {
	t.Helper()
	tk := tank.New(config.DefaultTankConfig(), tank.Options{
		Width:    800,
		Height:   600,
		Seed:     3,
		Capacity: 5,
		Sort:     feed.SortRecent,
	})
	t.Cleanup(tk.Close)
	tk.Start()

	if _, err := tk.AddLocalFish(feed.DrawDoodle(1)); err != nil {
		t.Fatalf("AddLocalFish: %v", err)
	}
	fish := tk.Store.Fish()
	if len(fish) != 1 {
		t.Fatalf("expected 1 fish, got %d", len(fish))
	}
	return NewTankScene(tk, nil), fish[0]
}

func TestTapOnFishSelectsIt(t *testing.T) {
	s, id := newTestScene(t)
	pos, _ := ecs.GetComponent[*components.PositionComponent](s.tank.EntityManager, id)
	f, _ := ecs.GetComponent[*components.FishComponent](s.tank.EntityManager, id)

	s.Tap(pos.X+f.Width/2, pos.Y+f.Height/2)

	if s.selected == nil {
		t.Fatal("tapping a fish should select it")
	}
	if s.selected.LocalID == "" {
		t.Error("selected fish should carry its local id")
	}
	if s.tank.Stats().Food != 0 {
		t.Error("tapping a fish must not drop food")
	}
}

func TestTapOnWaterDropsFood(t *testing.T) {
	s, id := newTestScene(t)
	pos, _ := ecs.GetComponent[*components.PositionComponent](s.tank.EntityManager, id)

	// 选离鱼最远的角落
	x, y := 795.0, 595.0
	if pos.X > 400 {
		x = 5
	}
	if pos.Y > 300 {
		y = 5
	}
	s.Tap(x, y)

	if s.selected != nil {
		t.Error("tapping water should not select a fish")
	}
	if got, want := s.tank.Stats().Food, s.tank.Config.Food.ClusterSize; got != want {
		t.Errorf("food = %d, want %d", got, want)
	}
}

func TestAdjustCapacityPreviewsAndClamps(t *testing.T) {
	s, _ := newTestScene(t)

	s.AdjustCapacity(3)
	if got := s.tank.Controller.PreviewValue(); got != 8 {
		t.Errorf("preview = %d, want 8", got)
	}
	if got := s.tank.Controller.Capacity(); got != 5 {
		t.Errorf("capacity should not change before debounce, got %d", got)
	}

	s.AdjustCapacity(-100)
	if got := s.tank.Controller.PreviewValue(); got != s.tank.Config.Capacity.Min {
		t.Errorf("preview = %d, want clamped to %d", got, s.tank.Config.Capacity.Min)
	}
}

func TestCapacityCommitIsPersistedWithoutSettings(t *testing.T) {
	s, _ := newTestScene(t)

	s.AdjustCapacity(2)
	for i := 0; i < 10; i++ {
		s.Update(0.125)
	}
	if got := s.tank.Controller.Capacity(); got != 7 {
		t.Errorf("capacity = %d, want 7 after debounce", got)
	}
}

func TestToggleHUDAndSort(t *testing.T) {
	s, _ := newTestScene(t)

	show := s.showHUD
	s.ToggleHUD()
	if s.showHUD == show {
		t.Error("ToggleHUD should flip visibility")
	}

	s.SetSort(feed.SortPopular)
	if s.tank.Controller.Sort() != feed.SortPopular {
		t.Errorf("sort = %s, want popular", s.tank.Controller.Sort())
	}
	if s.toast == "" {
		t.Error("changing sort should show a toast")
	}
}

func TestHUDLines(t *testing.T) {
	s, _ := newTestScene(t)
	s.AdjustCapacity(1)

	lines := s.hudLines()
	if len(lines) == 0 {
		t.Fatal("expected HUD lines")
	}
	if lines[1] != "Capacity: 5 -> 6" {
		t.Errorf("capacity line = %q", lines[1])
	}
}

func TestInfoLines(t *testing.T) {
	local := infoLines(&components.FishInfoComponent{LocalID: "x", Artist: "Me"})
	if local[len(local)-1] != "Local fish" {
		t.Errorf("local fish lines = %v", local)
	}

	remote := infoLines(&components.FishInfoComponent{DocID: "d", Artist: "Nemo", Upvotes: 5, Downvotes: 2})
	if remote[len(remote)-1] != "Score: 3 (+5 / -2)" {
		t.Errorf("remote fish lines = %v", remote)
	}
}

func TestSaveOnExitWithoutSettings(t *testing.T) {
	s, _ := newTestScene(t)
	if !s.SaveOnExit() {
		t.Error("SaveOnExit without settings should succeed")
	}
}

func TestHUDPanelSizeFollowsText(t *testing.T) {
	s, _ := newTestScene(t)
	if s.font == nil {
		t.Fatal("HUD font should load from the embedded Go Mono face")
	}

	shortW, shortH := s.panelSize([]string{"Fish: 1"})
	longW, _ := s.panelSize([]string{"Fish: 1 / Capacity: 5 -> 6"})
	_, tallH := s.panelSize([]string{"Fish: 1", "Capacity: 5", "Mode: shader"})

	if shortW <= 2*panelMargin || shortH <= panelMargin {
		t.Fatalf("short panel = %vx%v, want larger than the margins", shortW, shortH)
	}
	if longW <= shortW {
		t.Errorf("longer line width %v should exceed %v", longW, shortW)
	}
	if tallH <= shortH {
		t.Errorf("three-line height %v should exceed %v", tallH, shortH)
	}

	// 字体缺失时不绘制文本，面板尺寸为零
	s.font = nil
	if w, h := s.panelSize([]string{"Fish: 1"}); w != 0 || h != 0 {
		t.Errorf("panel without font = %vx%v, want 0x0", w, h)
	}
}
