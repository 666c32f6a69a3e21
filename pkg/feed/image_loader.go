package feed

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// maxImageBytes 单张图片的下载上限
const maxImageBytes = 16 << 20

// DefaultMaxImagePixels 未配置时单张图片允许的最大像素数
const DefaultMaxImagePixels = 4096 * 4096

// ErrImageTooLarge 图片声明的尺寸超过像素上限
var ErrImageTooLarge = errors.New("image too large")

// HTTPImageLoader 通过 HTTP 下载并解码图片
//
// 支持 png / jpeg / gif / webp，以及 data:image/...;base64 内联地址。
// 超时由 http.Client 和 ctx 共同控制，核心逻辑不再额外设置截止时间。
// 解码前先读取图片头，宽×高超过 MaxPixels 的图片直接拒绝。
type HTTPImageLoader struct {
	Client *http.Client
	// MaxPixels 像素上限，<= 0 时使用 DefaultMaxImagePixels
	MaxPixels int
}

// NewHTTPImageLoader 创建图片加载器
func NewHTTPImageLoader(timeout time.Duration, maxPixels int) *HTTPImageLoader {
	return &HTTPImageLoader{Client: &http.Client{Timeout: timeout}, MaxPixels: maxPixels}
}

// Load 下载并解码一张图片
func (l *HTTPImageLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURL(url, l.MaxPixels)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image request failed: status %d", resp.StatusCode)
	}

	data, err := readImageBytes(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeImage(data, l.MaxPixels)
}

// decodeDataURL 解码 data:image/png;base64,... 形式的内联图片
func decodeDataURL(url string, maxPixels int) (image.Image, error) {
	comma := strings.IndexByte(url, ',')
	if comma < 0 || !strings.Contains(url[:comma], ";base64") {
		return nil, fmt.Errorf("unsupported data url")
	}
	payload := url[comma+1:]
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return nil, fmt.Errorf("data url exceeds %d bytes", maxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data url: %w", err)
	}
	return decodeImage(data, maxPixels)
}

// LoadFile 从本地文件解码一张图片（--local-fish）
// maxPixels <= 0 时使用 DefaultMaxImagePixels
func LoadFile(path string, maxPixels int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := readImageBytes(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	img, err := decodeImage(data, maxPixels)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// readImageBytes 读取整张图片，超过 maxImageBytes 视为错误
func readImageBytes(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}

// decodeImage 先读取图片头检查尺寸，再完整解码
//
// 解码器按声明的尺寸一次性分配像素缓冲区，头部声明的尺寸必须先于解码校验。
func decodeImage(data []byte, maxPixels int) (image.Image, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%s image has empty size %dx%d", format, cfg.Width, cfg.Height)
	}
	if cfg.Width > maxPixels/cfg.Height {
		return nil, fmt.Errorf("%s image %dx%d exceeds %d pixels: %w", format, cfg.Width, cfg.Height, maxPixels, ErrImageTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadedItem 一条记录及其解码结果
type LoadedItem struct {
	Item  Item
	Image image.Image
	Err   error
}

// LoadAll 并发解码一批记录的图片，结果顺序与输入一致
//
// 单张失败只记录在对应的 LoadedItem.Err 中，不会中断其他图片。
// parallelism <= 0 时不限制并发数。
func LoadAll(ctx context.Context, loader ImageLoader, items []Item, parallelism int) []LoadedItem {
	results := make([]LoadedItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, it := range items {
		results[i].Item = it
		g.Go(func() error {
			img, err := loader.Load(gctx, it.ImageURL)
			results[i].Image = img
			results[i].Err = err
			// 单张图片失败不取消其他任务
			return nil
		})
	}
	_ = g.Wait()
	return results
}
