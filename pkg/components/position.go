package components

// PositionComponent 存储实体在鱼缸坐标系中的位置
// 对于鱼，(X, Y) 是包围盒左上角；对于鱼食和粒子组，(X, Y) 是中心点
type PositionComponent struct {
	X, Y float64
}

// VelocityComponent 存储实体的速度(像素/帧)
type VelocityComponent struct {
	VX, VY float64
}
