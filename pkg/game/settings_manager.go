package game

import (
	"fmt"
	"log"

	"github.com/decker502/fishtank/pkg/utils"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// TankSettings 用户在界面上调整过的鱼缸设置
// 零值字段表示未设置，启动时回退到配置文件的默认值
type TankSettings struct {
	Capacity   int    `yaml:"capacity"`
	Sort       string `yaml:"sort"`
	Fullscreen bool   `yaml:"fullscreen"`
	ShowHUD    *bool  `yaml:"showHud,omitempty"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *TankSettings {
	return &TankSettings{}
}

// SettingsManager 设置管理器
// 负责设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *TankSettings
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "tank"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
func NewSettingsManager(gdataManager *gdata.Manager) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	// 加载失败不是致命错误，使用默认设置
	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}
	return sm
}

// OpenSettingsManager 打开应用的持久化存储并创建设置管理器
// 存储不可用时退化为仅内存模式
func OpenSettingsManager(appName string) *SettingsManager {
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[SettingsManager] Warning: %v", err)
	} else if dir := utils.GetStoragePath(); dir != "" {
		log.Printf("[SettingsManager] Storage: %s", dir)
	}
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[SettingsManager] Warning: persistent storage unavailable: %v", err)
		return NewSettingsManager(nil)
	}
	return NewSettingsManager(m)
}

// Load 从 gdata 加载设置
// gdataManager 为 nil 或文件不存在时使用默认设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var loaded TankSettings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	sm.settings = &loaded
	log.Printf("[SettingsManager] Settings loaded (capacity=%d, sort=%q)", loaded.Capacity, loaded.Sort)
	return nil
}

// Save 保存设置到 gdata
// gdataManager 为 nil 时直接返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *TankSettings {
	return sm.settings
}

// SetCapacity 记录容量
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetCapacity(n int) {
	if n < 0 {
		n = 0
	}
	sm.settings.Capacity = n
}

// SetSort 记录排序方式
func (sm *SettingsManager) SetSort(sort string) {
	sm.settings.Sort = sort
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// SetShowHUD 设置是否显示 HUD
func (sm *SettingsManager) SetShowHUD(show bool) {
	sm.settings.ShowHUD = &show
}
