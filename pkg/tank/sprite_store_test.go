package tank

import (
	"errors"
	"image"
	"testing"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/systems"
)

func blankImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func newTestStore(width, height float64) (*SpriteStore, *systems.LifecycleSystem, *ecs.EntityManager) {
	em := ecs.NewEntityManager()
	state := game.NewTankState(width, height, 3)
	cfg := config.DefaultTankConfig()
	lifecycle := systems.NewLifecycleSystem(em, state, cfg)
	return NewSpriteStore(em, state, cfg, lifecycle), lifecycle, em
}

func spawnDoodle(t *testing.T, s *SpriteStore, seed int64) ecs.EntityID {
	t.Helper()
	it := feed.DemoItem(seed, testBase)
	id, err := s.Spawn(feed.DrawDoodle(seed), SpawnParams{Item: &it})
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	return id
}

func TestSpawnRejectsBlankImages(t *testing.T) {
	s, _, _ := newTestStore(800, 600)
	for _, img := range []image.Image{blankImage(20, 20), blankImage(0, 0), nil} {
		if _, err := s.Spawn(img, SpawnParams{}); !errors.Is(err, ErrBlankImage) {
			t.Errorf("expected ErrBlankImage, got %v", err)
		}
	}
	if len(s.Fish()) != 0 {
		t.Error("no fish should be created from blank images")
	}
}

func TestSpawnSizesAndPlacesFish(t *testing.T) {
	s, _, em := newTestStore(800, 600)
	id := spawnDoodle(t, s, 4)

	f, _ := ecs.GetComponent[*components.FishComponent](em, id)
	pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
	sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, id)

	// min(800, 600) * 0.1 = 60, 高度 60 * 0.6 = 36
	if f.Width != 60 || f.Height != 36 {
		t.Errorf("expected 60x36, got %vx%v", f.Width, f.Height)
	}
	if b := sprite.Image.Bounds(); b.Dx() != 60 || b.Dy() != 36 {
		t.Errorf("unexpected bitmap size %v", b)
	}
	if pos.X < 0 || pos.X > 800-60 || pos.Y < 0 || pos.Y > 600-36 {
		t.Errorf("fish spawned out of bounds at (%v, %v)", pos.X, pos.Y)
	}
	if f.Direction != 1 && f.Direction != -1 {
		t.Errorf("unexpected direction %v", f.Direction)
	}
	info, _ := s.Info(id)
	if info.DocID != "demo-4" {
		t.Errorf("unexpected doc id %q", info.DocID)
	}
}

func TestSpawnUsesItemParameters(t *testing.T) {
	s, _, em := newTestStore(800, 600)
	phase, speed := 1.5, 0.75
	it := feed.DemoItem(2, testBase)
	it.Phase, it.Speed = &phase, &speed

	id, err := s.Spawn(feed.DrawDoodle(2), SpawnParams{Item: &it})
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	f, _ := ecs.GetComponent[*components.FishComponent](em, id)
	if f.Phase != phase || f.Speed != speed {
		t.Errorf("expected phase %v speed %v, got %v %v", phase, speed, f.Phase, f.Speed)
	}
	if f.Peduncle != 0.4 {
		t.Errorf("expected default peduncle 0.4, got %v", f.Peduncle)
	}
}

func TestFindAtPointPrefersTopmost(t *testing.T) {
	s, _, em := newTestStore(800, 600)
	bottom := spawnDoodle(t, s, 1)
	top := spawnDoodle(t, s, 2)
	for _, id := range []ecs.EntityID{bottom, top} {
		pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
		pos.X, pos.Y = 100, 100
	}

	if id, ok := s.FindAtPoint(110, 110); !ok || id != top {
		t.Errorf("expected topmost fish %d, got %d (%v)", top, id, ok)
	}
	if _, ok := s.FindAtPoint(500, 500); ok {
		t.Error("expected miss on empty water")
	}
}

func TestOldestAliveSkipsDyingAndEntering(t *testing.T) {
	s, lifecycle, _ := newTestStore(800, 600)
	first := spawnDoodle(t, s, 1)
	it := feed.DemoItem(2, testBase)
	entering, _ := s.Spawn(feed.DrawDoodle(2), SpawnParams{Item: &it, Entering: true})
	third := spawnDoodle(t, s, 3)

	lifecycle.StartDying(first)
	if id, ok := s.OldestAlive(); !ok || id != third {
		t.Errorf("expected oldest alive %d, got %d", third, id)
	}
	if s.CountActive() != 2 || s.CountDying() != 1 {
		t.Errorf("unexpected counts active=%d dying=%d", s.CountActive(), s.CountDying())
	}

	lifecycle.StartDying(third)
	if id, ok := s.OldestAlive(); !ok || id != entering {
		t.Errorf("expected fallback to entering fish %d, got %d", entering, id)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, _, em := newTestStore(800, 600)
	id := spawnDoodle(t, s, 1)
	s.Remove(id)
	s.Remove(id)
	em.RemoveMarkedEntities()
	s.Remove(id)
	if len(s.Fish()) != 0 {
		t.Error("fish should be gone")
	}
}

func TestResizeRescalesOnLargeChange(t *testing.T) {
	s, _, em := newTestStore(800, 600)
	id := spawnDoodle(t, s, 1)
	pos, _ := ecs.GetComponent[*components.PositionComponent](em, id)
	f, _ := ecs.GetComponent[*components.FishComponent](em, id)
	pos.X, pos.Y = 700, 550

	// 变化不足 20%：只夹紧位置
	if s.Resize(720, 560) {
		t.Error("small resize should not rescale")
	}
	if f.Width != 60 {
		t.Errorf("width should stay 60, got %v", f.Width)
	}
	if pos.X != 720-60 || pos.Y != 560-36 {
		t.Errorf("fish should be clamped, got (%v, %v)", pos.X, pos.Y)
	}

	if !s.Resize(400, 300) {
		t.Fatal("large resize should rescale")
	}
	sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, id)
	if f.Width != 30 || f.Height != 18 || sprite.Image.Bounds().Dx() != 30 {
		t.Errorf("expected 30x18 after rescale, got %vx%v", f.Width, f.Height)
	}
	if pos.X > 400-30 || pos.Y > 300-18 {
		t.Errorf("fish should be inside the smaller tank, got (%v, %v)", pos.X, pos.Y)
	}
}

func TestResizeLetsDyingFishFallBelowFloor(t *testing.T) {
	s, lifecycle, em := newTestStore(800, 600)
	alive := spawnDoodle(t, s, 1)
	dying := spawnDoodle(t, s, 2)
	if !lifecycle.StartDying(dying) {
		t.Fatal("StartDying failed")
	}

	alivePos, _ := ecs.GetComponent[*components.PositionComponent](em, alive)
	dyingPos, _ := ecs.GetComponent[*components.PositionComponent](em, dying)
	alivePos.X, alivePos.Y = 100, 590
	dyingPos.X, dyingPos.Y = 790, 590

	// 小幅调整，不重缩放
	s.Resize(780, 590)

	if alivePos.Y != 590-36 {
		t.Errorf("alive fish y = %v, want clamped to %v", alivePos.Y, 590-36)
	}
	if dyingPos.Y != 590 {
		t.Errorf("dying fish y = %v, should keep falling past the floor", dyingPos.Y)
	}
	if dyingPos.X != 780-60 {
		t.Errorf("dying fish x = %v, want clamped to %v", dyingPos.X, 780-60)
	}
}
