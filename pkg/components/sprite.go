package components

import (
	"image"

	"github.com/decker502/fishtank/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
)

// SpriteComponent 存储实体的视觉表现
//
// Image 是按当前目标尺寸预渲染好的位图（已裁剪到内容并居中）；
// Source 保留裁剪后的原始位图，窗口尺寸大幅变化时从它重新缩放，避免反复缩放造成画质损失。
type SpriteComponent struct {
	Image  *ebiten.Image
	Source image.Image

	// columns 逐列绘制用的 1 像素宽子图缓存
	columns []*ebiten.Image
}

// Column 返回第 i 列的 1 像素宽子图
func (c *SpriteComponent) Column(i int) *ebiten.Image {
	b := c.Image.Bounds()
	if len(c.columns) != b.Dx() {
		c.columns = make([]*ebiten.Image, b.Dx())
	}
	if c.columns[i] == nil {
		x := b.Min.X + i
		c.columns[i] = utils.CropImage(c.Image, image.Rect(x, b.Min.Y, x+1, b.Max.Y))
	}
	return c.columns[i]
}

// SetImage 替换位图并清空列缓存
func (c *SpriteComponent) SetImage(img *ebiten.Image) {
	if c.Image != nil && c.Image != img {
		c.Image.Deallocate()
	}
	c.Image = img
	c.columns = nil
}
