package app

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/embedded"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/game"
)

func TestResolveStartup(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		saved        game.TankSettings
		wantCapacity int
		wantSort     feed.Sort
		wantErr      bool
	}{
		{name: "config defaults", wantCapacity: 20, wantSort: feed.SortRecent},
		{name: "saved settings", saved: game.TankSettings{Capacity: 12, Sort: "popular"}, wantCapacity: 12, wantSort: feed.SortPopular},
		{name: "flags win", cfg: Config{Capacity: 7, Sort: "random"}, saved: game.TankSettings{Capacity: 12, Sort: "popular"}, wantCapacity: 7, wantSort: feed.SortRandom},
		{name: "capacity clamped", cfg: Config{Capacity: 1000}, wantCapacity: 100, wantSort: feed.SortRecent},
		{name: "bad saved sort ignored", saved: game.TankSettings{Sort: "bogus"}, wantCapacity: 20, wantSort: feed.SortRecent},
		{name: "bad flag sort rejected", cfg: Config{Sort: "bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := tt.saved
			capacity, sort, err := resolveStartup(tt.cfg, config.DefaultTankConfig(), &saved)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if capacity != tt.wantCapacity || sort != tt.wantSort {
				t.Errorf("got (%d, %s), want (%d, %s)", capacity, sort, tt.wantCapacity, tt.wantSort)
			}
		})
	}
}

func TestLoadTankConfig(t *testing.T) {
	t.Run("embedded", func(t *testing.T) {
		embedded.Init(fstest.MapFS{
			"data/tank.yaml": {Data: []byte("capacity:\n  default: 9\n")},
		})
		cfg, err := loadTankConfig("")
		if err != nil {
			t.Fatalf("loadTankConfig: %v", err)
		}
		if cfg.Capacity.Default != 9 {
			t.Errorf("Capacity.Default = %d, want 9", cfg.Capacity.Default)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tank.yaml")
		if err := os.WriteFile(path, []byte("render:\n  mode: shader\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := loadTankConfig(path)
		if err != nil {
			t.Fatalf("loadTankConfig: %v", err)
		}
		if cfg.Render.Mode != config.RenderModeShader {
			t.Errorf("Render.Mode = %q, want shader", cfg.Render.Mode)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadTankConfig(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
