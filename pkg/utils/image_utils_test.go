package utils

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// newTestDoodle 创建一张 100x80 的透明画布，在 (20,10)-(60,40) 区域画不透明像素
func newTestDoodle() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for y := 10; y < 40; y++ {
		for x := 20; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	return img
}

func TestContentBounds(t *testing.T) {
	rect, ok := ContentBounds(newTestDoodle())
	if !ok {
		t.Fatal("expected visible content")
	}
	want := image.Rect(20, 10, 60, 40)
	if rect != want {
		t.Errorf("expected %v, got %v", want, rect)
	}
}

func TestCropToContent(t *testing.T) {
	cropped, err := CropToContent(newTestDoodle())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cropped.Bounds().Dx() != 40 || cropped.Bounds().Dy() != 30 {
		t.Errorf("expected 40x30, got %v", cropped.Bounds())
	}
	_, _, _, a := cropped.At(0, 0).RGBA()
	if a == 0 {
		t.Error("top-left pixel of cropped image should be opaque")
	}
}

func TestCropToContentBlank(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"zero size", image.NewRGBA(image.Rect(0, 0, 0, 0))},
		{"fully transparent", image.NewRGBA(image.Rect(0, 0, 50, 50))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropToContent(tt.img); !errors.Is(err, ErrBlankImage) {
				t.Errorf("expected ErrBlankImage, got %v", err)
			}
		})
	}
}

func TestFitIntoCentersContent(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			src.Set(x, y, color.RGBA{G: 255, A: 255})
		}
	}

	dst, err := FitInto(src, 100, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Bounds().Dx() != 100 || dst.Bounds().Dy() != 60 {
		t.Fatalf("expected 100x60 canvas, got %v", dst.Bounds())
	}

	// 正方形内容缩放为 60x60，左右各留 20 像素透明
	if _, _, _, a := dst.At(5, 30).RGBA(); a != 0 {
		t.Error("left margin should be transparent")
	}
	if _, _, _, a := dst.At(50, 30).RGBA(); a == 0 {
		t.Error("center should be opaque")
	}
	if _, _, _, a := dst.At(95, 30).RGBA(); a != 0 {
		t.Error("right margin should be transparent")
	}
}

func TestFitIntoInvalidSize(t *testing.T) {
	if _, err := FitInto(newTestDoodle(), 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#1b4f72")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != (color.RGBA{R: 0x1b, G: 0x4f, B: 0x72, A: 0xff}) {
		t.Errorf("unexpected color %+v", c)
	}
	if _, err := ParseHexColor("blue"); err == nil {
		t.Error("expected error for named color")
	}
	c, err = ParseHexColor("ff000080")
	if err != nil || c.A != 0x80 || c.R != 0xff {
		t.Errorf("unexpected 8-digit parse: %+v err=%v", c, err)
	}
}
