package game

import (
	"os"
	"testing"

	"github.com/quasilyte/gdata/v2"
)

// openTestGdata 在临时 HOME 下打开 gdata 存储
func openTestGdata(t *testing.T) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	m, err := gdata.Open(gdata.Config{AppName: "fishtank_test"})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return m
}

func TestNewSettingsManagerDefaults(t *testing.T) {
	sm := NewSettingsManager(openTestGdata(t))
	s := sm.GetSettings()
	if s.Capacity != 0 || s.Sort != "" || s.Fullscreen || s.ShowHUD != nil {
		t.Errorf("expected zero settings, got %+v", s)
	}
}

func TestSettingsLoadSave(t *testing.T) {
	m := openTestGdata(t)

	sm := NewSettingsManager(m)
	sm.SetCapacity(35)
	sm.SetSort("popular")
	sm.SetFullscreen(true)
	sm.SetShowHUD(false)
	if err := sm.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded := NewSettingsManager(m)
	s := reloaded.GetSettings()
	if s.Capacity != 35 || s.Sort != "popular" || !s.Fullscreen {
		t.Errorf("settings not persisted: %+v", s)
	}
	if s.ShowHUD == nil || *s.ShowHUD {
		t.Errorf("expected ShowHUD=false, got %v", s.ShowHUD)
	}
}

func TestSettingsCorruptDataFallsBack(t *testing.T) {
	m := openTestGdata(t)
	if err := m.SaveObjectProp(settingsObject, settingsProperty, []byte("capacity: [not an int")); err != nil {
		t.Fatalf("failed to seed corrupt data: %v", err)
	}

	sm := &SettingsManager{gdataManager: m, settings: DefaultSettings()}
	if err := sm.Load(); err == nil {
		t.Error("expected unmarshal error")
	}
	if sm.GetSettings().Capacity != 0 {
		t.Error("corrupt data should fall back to defaults")
	}
}

func TestSettingsNilGdataManager(t *testing.T) {
	sm := NewSettingsManager(nil)
	sm.SetCapacity(-4)
	if sm.GetSettings().Capacity != 0 {
		t.Error("negative capacity should clamp to 0")
	}
	if err := sm.Save(); err != nil {
		t.Errorf("Save() in degraded mode should not fail: %v", err)
	}
	if err := sm.Load(); err != nil {
		t.Errorf("Load() in degraded mode should not fail: %v", err)
	}
}
