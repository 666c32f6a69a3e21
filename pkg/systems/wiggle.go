package systems

import "math"

// WiggleOffsets 计算每一列的水平摆动偏移
//
// 列号按朝向镜像：朝右时尾巴在左侧(m = i)，朝左时尾巴在右侧(m = width-1-i)。
// 只有 m < peduncle*width 的尾部列会摆动，越靠近尾尖摆幅越大。
// 结果写入 dst 并返回（容量不足时重新分配）。
func WiggleOffsets(dst []float64, width int, direction, peduncle, phase, time, wiggleMax float64) []float64 {
	if width <= 0 {
		return dst[:0]
	}
	if cap(dst) < width {
		dst = make([]float64, width)
	}
	dst = dst[:width]

	tailLen := peduncle * float64(width)
	for i := 0; i < width; i++ {
		m := float64(i)
		if direction < 0 {
			m = float64(width - 1 - i)
		}
		if tailLen <= 0 || m >= tailLen {
			dst[i] = 0
			continue
		}
		t := (tailLen - m) / tailLen
		dst[i] = math.Sin(time*3+phase+t*2) * t * wiggleMax
	}
	return dst
}

// BobOffset 返回鱼的上下浮动偏移，觅食时幅度缩小
func BobOffset(amplitude, phase, time float64, seeking bool, seekingFactor float64) float64 {
	if seeking {
		amplitude *= seekingFactor
	}
	return math.Sin(time+phase) * amplitude
}
