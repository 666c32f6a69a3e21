// tank_sim 不打开窗口，用离线演示数据跑一段鱼缸模拟并打印统计
//
// 用于验证容量控制和生命周期的时序，例如:
//
//	go run ./cmd/tank_sim --capacity 20 --resize-to 8 --resize-at 300 --publish-every 120
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/tank"
)

const tps = 60

var (
	verbose      = flag.Bool("verbose", false, "显示详细调试信息")
	frames       = flag.Int("frames", 1200, "模拟帧数（60 帧 = 1 秒）")
	capacity     = flag.Int("capacity", 20, "初始容量")
	sortName     = flag.String("sort", "recent", "排序方式: recent / popular / random")
	seed         = flag.Int64("seed", 1, "随机种子")
	demoCount    = flag.Int("demo", 60, "演示数据条数")
	publishEvery = flag.Int("publish-every", 0, "每隔多少帧发布一条新鱼（0 = 不发布）")
	resizeAt     = flag.Int("resize-at", -1, "在第几帧调整容量")
	resizeTo     = flag.Int("resize-to", 0, "调整后的容量")
	feedAt       = flag.Int("feed-at", -1, "在第几帧投食（鱼缸中央）")
	reportEvery  = flag.Int("report-every", 60, "每隔多少帧打印一次统计")
)

func main() {
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	sort, err := feed.ParseSort(*sortName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	base := time.Now().Add(-time.Duration(*demoCount) * time.Minute)
	src := feed.NewMemorySource(feed.DemoItems(*demoCount, base)...)
	cfg := config.DefaultTankConfig()
	t := tank.New(cfg, tank.Options{
		Width:      config.GameWindowWidth,
		Height:     config.GameWindowHeight,
		Seed:       *seed,
		Source:     src,
		Subscriber: src,
		Loader:     feed.DoodleLoader{},
		Capacity:   *capacity,
		Sort:       sort,
	})
	defer t.Close()

	t.Start()
	waitForInitial(t, min(*capacity, *demoCount))

	dt := 1.0 / tps
	nextSeed := int64(*demoCount)
	for f := 1; f <= *frames; f++ {
		if *publishEvery > 0 && f%*publishEvery == 0 {
			nextSeed++
			src.Publish(feed.DemoItem(nextSeed, time.Now()))
		}
		if f == *resizeAt {
			t.Controller.PreviewCapacity(*resizeTo)
			fmt.Printf("[%5d] capacity -> %d requested\n", f, *resizeTo)
		}
		if f == *feedAt {
			t.DropFood(t.State.Width/2, t.State.Height/3)
			fmt.Printf("[%5d] food dropped\n", f)
		}

		t.Update(dt)

		if *reportEvery > 0 && f%*reportEvery == 0 {
			report(f, t.Stats())
		}
	}
	report(*frames, t.Stats())
}

// waitForInitial 等待初始鱼群加载完成（最多 5 秒）
func waitForInitial(t *tank.Tank, want int) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		t.Update(0)
		if t.Store.CountActive() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Fprintln(os.Stderr, "warning: initial population not loaded within 5s")
}

func report(frame int, st tank.Stats) {
	fmt.Printf("[%5d] fish=%d dying=%d queued=%d capacity=%d preview=%d food=%d eaten=%d\n",
		frame, st.Fish, st.Dying, st.Pending, st.Capacity, st.Preview, st.Food, st.Eaten)
}
