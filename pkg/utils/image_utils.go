package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	xdraw "golang.org/x/image/draw"
)

// ErrBlankImage 图片解码成功但没有任何可见像素（或尺寸为 0）
var ErrBlankImage = errors.New("image is blank")

// contentAlphaThreshold 低于该 alpha（16 位）的像素视为透明背景
const contentAlphaThreshold = 0x0800

// ContentBounds 计算图片中可见像素的包围盒
//
// 返回:
//   - image.Rectangle: 可见像素的最小包围盒
//   - bool: 图片中存在可见像素时为 true
func ContentBounds(img image.Image) (image.Rectangle, bool) {
	if img == nil {
		return image.Rectangle{}, false
	}
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a < contentAlphaThreshold {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// CropToContent 裁剪掉图片四周的透明区域
//
// 涂鸦通常画在一张大画布的某个角落，裁剪后缩放才能让鱼填满目标尺寸。
// 全透明或零尺寸的图片返回 ErrBlankImage。
func CropToContent(img image.Image) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrBlankImage
	}
	rect, ok := ContentBounds(img)
	if !ok {
		return nil, ErrBlankImage
	}

	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Draw(cropped, cropped.Bounds(), img, rect.Min, xdraw.Src)
	return cropped, nil
}

// FitInto 将图片等比缩放到 width x height 的画布中并居中
//
// 使用 Catmull-Rom 插值，只应在出生或重缩放时调用，不要每帧调用。
func FitInto(src image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if src == nil || src.Bounds().Empty() {
		return nil, ErrBlankImage
	}

	sb := src.Bounds()
	scale := math.Min(float64(width)/float64(sb.Dx()), float64(height)/float64(sb.Dy()))
	dw := int(math.Max(1, math.Round(float64(sb.Dx())*scale)))
	dh := int(math.Max(1, math.Round(float64(sb.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	offX := (width - dw) / 2
	offY := (height - dh) / 2
	target := image.Rect(offX, offY, offX+dw, offY+dh)
	xdraw.CatmullRom.Scale(dst, target, src, sb, xdraw.Over, nil)
	return dst, nil
}

// CropImage 从 ebiten 图片中截取子区域
// 矩形会被限制在源图片范围内
func CropImage(src *ebiten.Image, rect image.Rectangle) *ebiten.Image {
	if src == nil {
		return nil
	}
	rect = rect.Intersect(src.Bounds())
	return src.SubImage(rect).(*ebiten.Image)
}

// ParseHexColor 解析 "#rrggbb" 或 "#rrggbbaa" 格式的颜色
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
