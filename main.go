package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/decker502/fishtank/pkg/app"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

// localFishFlags 可重复的 --local-fish 参数
type localFishFlags []string

func (f *localFishFlags) String() string { return strings.Join(*f, ",") }

func (f *localFishFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var localFish localFishFlags
	verbose := flag.Bool("verbose", false, "显示详细日志")
	configPath := flag.String("config", "", "配置文件路径（默认使用内置 data/tank.yaml）")
	apiURL := flag.String("api", "", "后端 API 地址")
	wsURL := flag.String("subscribe", "", "WebSocket 订阅地址")
	sort := flag.String("sort", "", "排序方式: recent / popular / random")
	capacity := flag.Int("capacity", 0, "鱼缸容量")
	offline := flag.Bool("offline", false, "使用内置演示数据，不访问网络")
	seed := flag.Int64("seed", 0, "随机种子（0 = 当前时间）")
	flag.Var(&localFish, "local-fish", "加入鱼缸的本地图片，可重复")
	flag.Parse()

	embedded.Init(dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:      *verbose,
		ConfigPath:   *configPath,
		APIBaseURL:   *apiURL,
		SubscribeURL: *wsURL,
		Sort:         *sort,
		Capacity:     *capacity,
		Offline:      *offline,
		LocalFish:    localFish,
		Seed:         *seed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
	ebiten.SetWindowTitle(config.WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(gameApp); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
