package components

import "github.com/decker502/fishtank/pkg/ecs"

// FishComponent 存储一条鱼的游动参数
//
// 速度、位置由 SteeringSystem 每帧写入；Phase/Amplitude 在出生时确定，
// 同时驱动上下浮动和尾巴摆动。
type FishComponent struct {
	// Direction 朝向: 1 = 向右, -1 = 向左
	Direction float64
	// Speed 基础巡航速度(像素/帧)，死亡时按二次曲线衰减
	Speed float64
	// Phase 正弦动画相位(弧度)
	Phase float64
	// Amplitude 上下浮动幅度(像素)
	Amplitude float64
	// Width, Height 渲染尺寸，由出生时的鱼缸尺寸推导
	Width, Height float64
	// Peduncle 尾部区域占宽度的比例
	Peduncle float64

	// SpawnSeq 出生序号，越小越老
	SpawnSeq uint64

	// 食物检测缓存（每 N 帧刷新一次，只是派生数据，不是事实来源）
	// FoodCached 为 true 时，HasFoodTarget = false 表示"附近没有食物"也在缓存期内
	FoodTarget     ecs.EntityID
	HasFoodTarget  bool
	FoodCached     bool
	FoodCacheFrame int
	// Seeking 本帧是否正在觅食
	Seeking bool
}

// CenterX 返回鱼的中心 X 坐标
func (f *FishComponent) CenterX(pos *PositionComponent) float64 {
	return pos.X + f.Width/2
}

// CenterY 返回鱼的中心 Y 坐标
func (f *FishComponent) CenterY(pos *PositionComponent) float64 {
	return pos.Y + f.Height/2
}

// ResetFoodCache 清除食物缓存，下一次转向时重新查找
func (f *FishComponent) ResetFoodCache() {
	f.FoodTarget = 0
	f.HasFoodTarget = false
	f.FoodCached = false
}
