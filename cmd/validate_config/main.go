// validate_config 检查鱼缸配置文件能否被正确解析并通过校验
//
// 用法:
//
//	go run ./cmd/validate_config data/tank.yaml [more.yaml ...]
package main

import (
	"fmt"
	"os"

	"github.com/decker502/fishtank/pkg/config"
)

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{"data/tank.yaml"}
	}

	failed := 0
	for _, path := range paths {
		cfg, err := config.LoadTankConfig(path)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("✅ %s\n", path)
		fmt.Printf("   容量: 默认 %d，范围 [%d, %d]\n", cfg.Capacity.Default, cfg.Capacity.Min, cfg.Capacity.Max)
		fmt.Printf("   入场 %dms / 死亡 %dms，渲染: %s\n",
			cfg.Lifecycle.EnteringDurationMs, cfg.Lifecycle.DyingDurationMs, cfg.Render.Mode)
		if cfg.Feed.APIBaseURL == "" {
			fmt.Printf("   数据源: 未配置（将使用离线演示数据）\n")
		} else {
			fmt.Printf("   数据源: %s (排序 %s)\n", cfg.Feed.APIBaseURL, cfg.Feed.Sort)
		}
	}

	if failed > 0 {
		fmt.Printf("❌ %d 个文件校验失败\n", failed)
		os.Exit(1)
	}
}
