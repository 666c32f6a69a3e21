// Package feed 定义鱼缸消费的外部数据源接口及其实现
//
// 鱼缸核心只认识一种规范化的 Item 结构。后端返回的记录字段命名并不统一
// （image / Image / imageUrl，CreatedAt 可能是字符串、毫秒数或 Firestore 时间戳对象），
// 这些差异全部在 NormalizeItem 中一次性消化。
package feed

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrBadItem 记录缺少必要字段（id 或图片地址）
var ErrBadItem = errors.New("malformed feed item")

// Sort 排序方式
type Sort string

const (
	SortRecent  Sort = "recent"
	SortPopular Sort = "popular"
	SortRandom  Sort = "random"
)

// ParseSort 解析排序方式，大小写不敏感
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortRecent:
		return SortRecent, nil
	case SortPopular:
		return SortPopular, nil
	case SortRandom:
		return SortRandom, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// Item 规范化后的鱼记录
type Item struct {
	ID        string
	ImageURL  string
	Artist    string
	CreatedAt time.Time

	// 可选的动画参数，nil 表示出生时随机
	Phase     *float64
	Amplitude *float64
	Speed     *float64
	Peduncle  *float64

	Upvotes   int
	Downvotes int
}

// Score 返回净得票
func (it Item) Score() int {
	return it.Upvotes - it.Downvotes
}

// Query 列表查询参数
type Query struct {
	Sort   Sort
	Limit  int
	Cursor string
	// CreatedAfter 非零时只返回该时间之后创建的记录
	CreatedAfter time.Time
}

// Page 一页查询结果
// Cursor 为空表示没有更多数据
type Page struct {
	Items  []Item
	Cursor string
}

// NormalizeItem 将后端原始记录转换为 Item
//
// 字段回退链:
//   - id: id | docId | _id
//   - 图片: image | Image | imageUrl | url
//   - 作者: artist | Artist（缺省 "Anonymous"）
//   - 创建时间: CreatedAt | createdAt | timestamp
//   - 票数: upvotes | Upvotes | votes.up，downvotes | Downvotes | votes.down
func NormalizeItem(raw map[string]any) (Item, error) {
	var it Item

	it.ID = firstString(raw, "id", "docId", "_id")
	it.ImageURL = firstString(raw, "image", "Image", "imageUrl", "url")
	if it.ID == "" || it.ImageURL == "" {
		return Item{}, fmt.Errorf("%w: id=%q image=%q", ErrBadItem, it.ID, it.ImageURL)
	}

	it.Artist = firstString(raw, "artist", "Artist")
	if it.Artist == "" {
		it.Artist = "Anonymous"
	}

	for _, key := range []string{"CreatedAt", "createdAt", "timestamp"} {
		if v, ok := raw[key]; ok {
			if ts, ok := parseTimestamp(v); ok {
				it.CreatedAt = ts
				break
			}
		}
	}

	it.Phase = optionalNumber(raw, "phase")
	it.Amplitude = optionalNumber(raw, "amplitude")
	it.Speed = optionalNumber(raw, "speed")
	it.Peduncle = optionalNumber(raw, "peduncle")

	it.Upvotes = firstInt(raw, "upvotes", "Upvotes")
	it.Downvotes = firstInt(raw, "downvotes", "Downvotes")
	if votes, ok := raw["votes"].(map[string]any); ok {
		if it.Upvotes == 0 {
			it.Upvotes = firstInt(votes, "up", "upvotes")
		}
		if it.Downvotes == 0 {
			it.Downvotes = firstInt(votes, "down", "downvotes")
		}
	}

	return it, nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstInt(raw map[string]any, keys ...string) int {
	for _, key := range keys {
		if f, ok := toFloat(raw[key]); ok {
			return int(f)
		}
	}
	return 0
}

func optionalNumber(raw map[string]any, key string) *float64 {
	f, ok := toFloat(raw[key])
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// parseTimestamp 支持 RFC3339 字符串、毫秒时间戳、Firestore {_seconds, _nanoseconds} 对象
func parseTimestamp(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t, true
		}
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
	case float64:
		return time.UnixMilli(int64(ts)), true
	case int64:
		return time.UnixMilli(ts), true
	case map[string]any:
		secs, ok := toFloat(ts["_seconds"])
		if !ok {
			secs, ok = toFloat(ts["seconds"])
		}
		if !ok {
			return time.Time{}, false
		}
		nanos, ok := toFloat(ts["_nanoseconds"])
		if !ok {
			nanos, _ = toFloat(ts["nanoseconds"])
		}
		return time.Unix(int64(secs), int64(nanos)), true
	}
	return time.Time{}, false
}
