package feed

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// DoodleScheme 程序化涂鸦图片的 URL 前缀
const DoodleScheme = "doodle://"

// DoodleLoader 为 doodle://<seed> 地址生成一张朝右的简笔鱼
//
// 离线模式没有后端可用，用它代替真实的用户涂鸦。
// 同一个 seed 总是生成同一张图片。
type DoodleLoader struct{}

// Load 生成图片
func (DoodleLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(url, DoodleScheme) {
		return nil, fmt.Errorf("not a doodle url: %s", url)
	}
	seed, err := strconv.ParseInt(strings.TrimPrefix(url, DoodleScheme), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid doodle seed: %w", err)
	}
	return DrawDoodle(seed), nil
}

// DrawDoodle 画一条鱼：椭圆身体 + 三角尾巴 + 眼睛，四周留透明边
func DrawDoodle(seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	const w, h = 160, 110
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	body := color.RGBA{
		R: uint8(80 + rng.Intn(176)),
		G: uint8(80 + rng.Intn(176)),
		B: uint8(80 + rng.Intn(176)),
		A: 255,
	}
	tail := color.RGBA{R: body.R / 2, G: body.G / 2, B: body.B / 2, A: 255}

	cx, cy := 95.0, 55.0
	rx := 38.0 + rng.Float64()*12
	ry := 20.0 + rng.Float64()*12
	tailLen := 30.0 + rng.Float64()*10

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			dx, dy := (fx-cx)/rx, (fy-cy)/ry
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(x, y, body)
				continue
			}
			// 尾巴: 身体左侧的三角形
			tailBase := cx - rx + 4
			if fx < tailBase && fx > tailBase-tailLen {
				spread := (tailBase - fx) / tailLen * ry
				if math.Abs(fy-cy) <= spread {
					img.SetRGBA(x, y, tail)
				}
			}
		}
	}

	// 眼睛
	ex, ey := int(cx+rx*0.55), int(cy-ry*0.25)
	for y := ey - 3; y <= ey+3; y++ {
		for x := ex - 3; x <= ex+3; x++ {
			if (x-ex)*(x-ex)+(y-ey)*(y-ey) <= 9 {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

var demoArtists = []string{"Nemo", "Bubbles", "Finley", "Coral", "Gill", "Marina", "Kelp", "Pearl"}

// DemoItem 生成一条离线演示记录
func DemoItem(seed int64, createdAt time.Time) Item {
	return Item{
		ID:        fmt.Sprintf("demo-%d", seed),
		ImageURL:  DoodleScheme + strconv.FormatInt(seed, 10),
		Artist:    demoArtists[int(seed)%len(demoArtists)],
		CreatedAt: createdAt,
		Upvotes:   int(seed*7) % 23,
		Downvotes: int(seed*3) % 5,
	}
}

// DemoItems 生成 n 条离线演示记录，创建时间按 seed 递增
func DemoItems(n int, base time.Time) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, DemoItem(int64(i+1), base.Add(time.Duration(i)*time.Minute)))
	}
	return items
}
