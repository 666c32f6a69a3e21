package config

// 窗口与逻辑画布尺寸
//
// 鱼缸的逻辑尺寸跟随窗口尺寸变化（Layout 直接返回窗口尺寸），
// 这里只定义启动时的初始窗口大小。
const (
	// GameWindowWidth 初始窗口宽度
	GameWindowWidth = 1024

	// GameWindowHeight 初始窗口高度
	GameWindowHeight = 640

	// WindowTitle 窗口标题
	WindowTitle = "Fish Tank"
)
