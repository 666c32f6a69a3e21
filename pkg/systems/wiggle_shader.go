package systems

import "github.com/hajimehoshi/ebiten/v2"

// 着色器绘制用的四边形索引
var quadIndices = []uint16{0, 1, 2, 1, 3, 2}

// wiggleShaderSrc 与 WiggleOffsets 相同的逐列剪切，在 GPU 上完成
var wiggleShaderSrc = []byte(`//kage:unit pixels

package main

var Time float
var Phase float
var Direction float
var Peduncle float
var WiggleMax float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	size := imageSrc0Size()
	local := srcPos - origin

	// 扩展区域内的像素沿用最外侧列的偏移
	col := clamp(floor(local.x), 0, size.x-1)
	m := col
	if Direction < 0 {
		m = size.x - 1 - col
	}
	tailLen := Peduncle * size.x
	offset := 0.0
	if tailLen > 0 && m < tailLen {
		t := (tailLen - m) / tailLen
		offset = sin(Time*3+Phase+t*2) * t * WiggleMax
	}

	// 与逐列绘制相同：先确定源列，朝左时取 width-1-列
	sc := floor(local.x - offset)
	if sc < 0 || sc >= size.x {
		return vec4(0)
	}
	if Direction < 0 {
		sc = size.x - 1 - sc
	}
	return imageSrc0At(vec2(sc+0.5, local.y)+origin) * color
}
`)

// newWiggleShader 编译尾巴摆动着色器
func newWiggleShader() (*ebiten.Shader, error) {
	return ebiten.NewShader(wiggleShaderSrc)
}

// wiggleQuad 返回着色器绘制的四个顶点
//
// 四边形在 x 方向两侧各扩展 pad 像素，尾巴摆出精灵边界的部分不会被裁掉。
// 源坐标同样扩展，超出精灵的部分在着色器里返回透明。
// DrawTrianglesShader 没有 ColorScale，透明度通过顶点颜色（预乘）传入。
func wiggleQuad(dst []ebiten.Vertex, geoM ebiten.GeoM, width, height, pad float64, opacity float32) []ebiten.Vertex {
	dst = dst[:0]
	corners := [4][2]float64{
		{-pad, 0},
		{width + pad, 0},
		{-pad, height},
		{width + pad, height},
	}
	for _, c := range corners {
		x, y := geoM.Apply(c[0], c[1])
		dst = append(dst, ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   float32(c[0]),
			SrcY:   float32(c[1]),
			ColorR: opacity,
			ColorG: opacity,
			ColorB: opacity,
			ColorA: opacity,
		})
	}
	return dst
}
