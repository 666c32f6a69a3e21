package components

// FoodComponent 鱼食颗粒
// 位置保存在 PositionComponent 中（中心点）
type FoodComponent struct {
	VY        float64
	CreatedAt float64
	Consumed  bool
	Size      float64
}
