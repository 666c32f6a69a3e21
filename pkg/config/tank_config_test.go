package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTankConfigIsValid(t *testing.T) {
	cfg := DefaultTankConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.EnteringSeconds() != 1.0 {
		t.Errorf("expected entering 1.0s, got %f", cfg.EnteringSeconds())
	}
	if cfg.DyingSeconds() != 2.0 {
		t.Errorf("expected dying 2.0s, got %f", cfg.DyingSeconds())
	}
	if cfg.Physics.FoodCacheFrames != 5 {
		t.Errorf("expected food cache of 5 frames, got %d", cfg.Physics.FoodCacheFrames)
	}
	if cfg.Sizing.Peduncle != 0.4 {
		t.Errorf("expected peduncle 0.4, got %f", cfg.Sizing.Peduncle)
	}
}

func TestLoadTankConfig(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent string
		wantErr     bool
		errContains string
		validate    func(*testing.T, *TankConfig)
	}{
		{
			name: "partial override keeps defaults",
			yamlContent: `
capacity:
  default: 12
render:
  mode: shader
`,
			validate: func(t *testing.T, cfg *TankConfig) {
				if cfg.Capacity.Default != 12 {
					t.Errorf("expected capacity 12, got %d", cfg.Capacity.Default)
				}
				if cfg.Render.Mode != RenderModeShader {
					t.Errorf("expected shader mode, got %q", cfg.Render.Mode)
				}
				// 未覆盖的字段保留默认值
				if cfg.Lifecycle.DyingDurationMs != 2000 {
					t.Errorf("expected default dying duration, got %d", cfg.Lifecycle.DyingDurationMs)
				}
			},
		},
		{
			name: "invalid render mode",
			yamlContent: `
render:
  mode: webgl
`,
			wantErr:     true,
			errContains: "render.mode",
		},
		{
			name: "capacity default outside range",
			yamlContent: `
capacity:
  default: 500
  max: 100
`,
			wantErr:     true,
			errContains: "capacity.default",
		},
		{
			name: "bad friction",
			yamlContent: `
physics:
  friction: 1.5
`,
			wantErr:     true,
			errContains: "friction",
		},
		{
			name: "unknown sort",
			yamlContent: `
feed:
  sort: oldest
`,
			wantErr:     true,
			errContains: "feed.sort",
		},
		{
			name: "zero image pixel cap",
			yamlContent: `
feed:
  maxImagePixels: 0
`,
			wantErr:     true,
			errContains: "feed.maxImagePixels",
		},
		{
			name:        "malformed yaml",
			yamlContent: "physics: [",
			wantErr:     true,
			errContains: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tank.yaml")
			if err := os.WriteFile(path, []byte(tt.yamlContent), 0644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			cfg, err := LoadTankConfig(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadTankConfigMissingFile(t *testing.T) {
	_, err := LoadTankConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestClampCapacity(t *testing.T) {
	cfg := DefaultTankConfig()
	cases := map[int]int{
		-3:  cfg.Capacity.Min,
		0:   cfg.Capacity.Min,
		15:  15,
		999: cfg.Capacity.Max,
	}
	for in, want := range cases {
		if got := cfg.ClampCapacity(in); got != want {
			t.Errorf("ClampCapacity(%d) = %d, want %d", in, got, want)
		}
	}
}
