package feed

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemorySource 内存数据源，同时实现 Source 与 Subscriber
//
// 用于离线演示模式（--offline）和测试。Publish 追加记录并推送给所有订阅者。
type MemorySource struct {
	mu     sync.Mutex
	items  []Item
	subs   map[int]*memorySubscription
	nextID int

	// ListErr 非空时 List 直接返回该错误（测试用）
	ListErr error
}

// NewMemorySource 创建内存数据源
func NewMemorySource(items ...Item) *MemorySource {
	return &MemorySource{
		items: append([]Item(nil), items...),
		subs:  make(map[int]*memorySubscription),
	}
}

// Len 返回记录总数
func (s *MemorySource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// List 按排序方式返回一页记录，Cursor 为下一页的偏移量
func (s *MemorySource) List(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	s.mu.Lock()
	if s.ListErr != nil {
		err := s.ListErr
		s.mu.Unlock()
		return Page{}, err
	}
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if !q.CreatedAfter.IsZero() && !it.CreatedAt.After(q.CreatedAfter) {
			continue
		}
		items = append(items, it)
	}
	s.mu.Unlock()

	switch q.Sort {
	case SortPopular:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Score() > items[j].Score() })
	case SortRandom:
		rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	}

	offset := 0
	if q.Cursor != "" {
		n, err := strconv.Atoi(q.Cursor)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("invalid cursor %q", q.Cursor)
		}
		offset = n
	}
	if offset > len(items) {
		offset = len(items)
	}

	end := len(items)
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}

	page := Page{Items: items[offset:end]}
	if end < len(items) {
		page.Cursor = strconv.Itoa(end)
	}
	return page, nil
}

// Publish 追加一条记录并推送给所有订阅者
func (s *MemorySource) Publish(it Item) {
	s.mu.Lock()
	s.items = append(s.items, it)
	subs := make([]*memorySubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if !sub.after.IsZero() && !it.CreatedAt.After(sub.after) {
			continue
		}
		if sub.onItem != nil {
			sub.onItem(it)
		}
	}
}

// Fail 向所有订阅者推送一个错误
func (s *MemorySource) Fail(err error) {
	s.mu.Lock()
	subs := make([]*memorySubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

// Subscribers 返回当前订阅数量
func (s *MemorySource) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscribe 注册订阅
func (s *MemorySource) Subscribe(ctx context.Context, createdAfter time.Time, onItem func(Item), onError func(error)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &memorySubscription{
		source:  s,
		id:      id,
		after:   createdAfter,
		onItem:  onItem,
		onError: onError,
	}
	s.subs[id] = sub
	return sub, nil
}

type memorySubscription struct {
	source  *MemorySource
	id      int
	after   time.Time
	onItem  func(Item)
	onError func(error)
}

func (m *memorySubscription) Close() error {
	m.source.mu.Lock()
	defer m.source.mu.Unlock()
	delete(m.source.subs, m.id)
	return nil
}

// MemoryImageLoader 按 URL 返回预先注册的图片
// 未注册的 URL 交给 Fallback 处理（可为 nil）
type MemoryImageLoader struct {
	mu       sync.Mutex
	images   map[string]image.Image
	Fallback ImageLoader
}

// NewMemoryImageLoader 创建内存图片加载器
func NewMemoryImageLoader() *MemoryImageLoader {
	return &MemoryImageLoader{images: make(map[string]image.Image)}
}

// Put 注册一张图片
func (l *MemoryImageLoader) Put(url string, img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[url] = img
}

// Load 返回注册的图片
func (l *MemoryImageLoader) Load(ctx context.Context, url string) (image.Image, error) {
	l.mu.Lock()
	img, ok := l.images[url]
	l.mu.Unlock()
	if ok {
		return img, nil
	}
	if l.Fallback != nil {
		return l.Fallback.Load(ctx, url)
	}
	return nil, fmt.Errorf("image not found: %s", url)
}
