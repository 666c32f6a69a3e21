package tank

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/systems"
	"github.com/decker502/fishtank/pkg/utils"
	"github.com/google/uuid"
)

// inboxSize 异步结果队列的容量
const inboxSize = 256

// fetchPurpose 批量拉取的用途
type fetchPurpose int

const (
	fetchInitial fetchPurpose = iota
	fetchGrow
	fetchBackfill
)

func (p fetchPurpose) String() string {
	switch p {
	case fetchInitial:
		return "initial"
	case fetchGrow:
		return "grow"
	case fetchBackfill:
		return "backfill"
	default:
		return "unknown"
	}
}

// 投递到 inbox 的消息，全部带上发起时的代数，过期的直接丢弃
type (
	batchLoaded struct {
		gen     uint64
		purpose fetchPurpose
		results []feed.LoadedItem
		err     error
	}
	itemDecoded struct {
		gen  uint64
		item feed.Item
		img  image.Image
		err  error
	}
	feedFailed struct {
		gen uint64
		err error
	}
	subscribed struct {
		gen uint64
		sub feed.Subscription
		err error
	}
)

// pendingSpawn 等待死亡动画结束后入场的替换鱼
type pendingSpawn struct {
	item    feed.Item
	localID string
	img     image.Image
	readyAt float64
	victim  ecs.EntityID
}

// CapacityController 维持鱼的数量不超过目标容量
//
// 所有对鱼群的修改都在 Update 中进行（单写者）。网络请求、图片解码和订阅回调
// 运行在独立 goroutine 里，只把结果投递到 inbox，由 Update 统一处理。
//
// 容量计数 = 存活 + 入场中 + 排队等待入场的替换鱼；死亡中的鱼不计入。
type CapacityController struct {
	store     *SpriteStore
	lifecycle *systems.LifecycleSystem
	state     *game.TankState
	cfg       *config.TankConfig

	source     feed.Source
	subscriber feed.Subscriber
	loader     feed.ImageLoader

	capacity int
	preview  int
	// commitAt 防抖提交时间，commitPending 为 false 时无效
	commitAt      float64
	commitPending bool
	sort          feed.Sort

	pending []pendingSpawn
	// tickets 错开执行的死亡时间点
	tickets []float64

	inbox  chan any
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	sub    feed.Subscription
	newest time.Time

	fetching      bool
	backfillCheck bool
	lastBackfill  float64
	backfilled    bool

	// OnCommit 容量或排序方式生效后回调（用于持久化设置）
	OnCommit func(capacity int, sort feed.Sort)

	wg sync.WaitGroup
}

// NewCapacityController 创建容量控制器
// subscriber 为 nil 时不订阅实时数据
func NewCapacityController(store *SpriteStore, lifecycle *systems.LifecycleSystem, state *game.TankState, cfg *config.TankConfig,
	source feed.Source, subscriber feed.Subscriber, loader feed.ImageLoader, capacity int, sort feed.Sort) *CapacityController {
	capacity = cfg.ClampCapacity(capacity)
	if sort == "" {
		sort = feed.SortRecent
	}
	c := &CapacityController{
		store:      store,
		lifecycle:  lifecycle,
		state:      state,
		cfg:        cfg,
		source:     source,
		subscriber: subscriber,
		loader:     loader,
		capacity:   capacity,
		preview:    capacity,
		sort:       sort,
		inbox:      make(chan any, inboxSize),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	lifecycle.SetRemovalHandler(c.onFishRemoved)
	return c
}

// Capacity 返回当前生效的容量
func (c *CapacityController) Capacity() int {
	return c.capacity
}

// PreviewValue 返回界面上显示的容量（可能尚未提交）
func (c *CapacityController) PreviewValue() int {
	return c.preview
}

// Sort 返回当前排序方式
func (c *CapacityController) Sort() feed.Sort {
	return c.sort
}

// PendingCount 返回排队等待入场的替换鱼数量
func (c *CapacityController) PendingCount() int {
	return len(c.pending)
}

// Occupancy 返回计入容量的鱼的数量
func (c *CapacityController) Occupancy() int {
	return c.store.CountActive() + len(c.pending)
}

// Reload 清空鱼缸并按当前排序方式重新拉取初始鱼群
func (c *CapacityController) Reload() {
	c.gen++
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.closeSubscription()

	c.store.Clear()
	c.pending = nil
	c.tickets = nil
	c.newest = time.Time{}
	c.fetching = false
	c.backfillCheck = false

	log.Printf("[Capacity] reloading %d fish sorted by %s", c.capacity, c.sort)
	if c.source == nil {
		c.subscribe()
		return
	}
	c.fetch(fetchInitial, c.capacity, nil)
}

// SetSort 切换排序方式并重新加载
func (c *CapacityController) SetSort(sort feed.Sort) {
	if sort == c.sort {
		return
	}
	c.sort = sort
	c.Reload()
	c.notifyCommit()
}

// PreviewCapacity 记录新的容量值，界面立即显示；实际调整在最后一次变化后延迟提交
func (c *CapacityController) PreviewCapacity(n int) {
	c.preview = c.cfg.ClampCapacity(n)
	c.commitAt = c.state.Time + c.cfg.DebounceSeconds()
	c.commitPending = true
}

// Close 停止所有后台任务
func (c *CapacityController) Close() {
	c.gen++
	c.cancel()
	c.closeSubscription()
}

// Update 处理异步结果、防抖提交、错开死亡和替换入场
func (c *CapacityController) Update(deltaTime float64) {
	c.drainInbox()

	if c.commitPending && c.state.Time >= c.commitAt {
		c.commitPending = false
		c.commitCapacity(c.preview)
	}

	c.fireTickets()
	c.spawnReady()
	c.maybeBackfill()
}

func (c *CapacityController) drainInbox() {
	for {
		select {
		case msg := <-c.inbox:
			c.handle(msg)
		default:
			return
		}
	}
}

func (c *CapacityController) handle(msg any) {
	switch m := msg.(type) {
	case batchLoaded:
		if m.gen != c.gen {
			return
		}
		c.fetching = false
		c.applyBatch(m)
	case itemDecoded:
		if m.gen != c.gen {
			return
		}
		if m.err != nil {
			log.Printf("[Capacity] skipping fish %s: %v", m.item.ID, m.err)
			return
		}
		c.HandleFeedItem(m.item, m.img)
	case feedFailed:
		if m.gen != c.gen {
			return
		}
		log.Printf("[Capacity] feed error: %v", m.err)
	case subscribed:
		if m.gen != c.gen {
			if m.sub != nil {
				m.sub.Close()
			}
			return
		}
		if m.err != nil {
			log.Printf("[Capacity] subscribe failed: %v", m.err)
			return
		}
		c.sub = m.sub
		log.Printf("[Capacity] subscribed to new fish after %s", c.newest.Format(time.RFC3339))
	}
}

// HandleFeedItem 接收一条已解码的新鱼
//
// 未满时直接出生；已满时最老的存活鱼开始死亡，新鱼排队，
// 等死亡动画播放完毕后以入场动画出生。
func (c *CapacityController) HandleFeedItem(item feed.Item, img image.Image) {
	if c.known(item.ID) {
		return
	}
	if item.CreatedAt.After(c.newest) {
		c.newest = item.CreatedAt
	}
	c.admit(item, "", img)
}

// SpawnLocal 添加一条只存在于本地的鱼，遵循同样的容量规则
func (c *CapacityController) SpawnLocal(img image.Image) (string, error) {
	cropped, err := utils.CropToContent(img)
	if err != nil {
		return "", err
	}
	localID := uuid.NewString()
	c.admit(feed.Item{}, localID, cropped)
	return localID, nil
}

func (c *CapacityController) admit(item feed.Item, localID string, img image.Image) {
	if c.Occupancy() < c.capacity {
		c.spawn(item, localID, img, false)
		return
	}

	victim, ok := c.store.OldestAlive()
	if !ok || !c.lifecycle.StartDying(victim) {
		log.Printf("[Capacity] no fish available to replace, dropping %s", itemKey(item, localID))
		return
	}
	c.pending = append(c.pending, pendingSpawn{
		item:    item,
		localID: localID,
		img:     img,
		readyAt: c.state.Time + c.cfg.DyingSeconds(),
		victim:  victim,
	})
	log.Printf("[Capacity] at capacity %d: fish %d dying to make room for %s", c.capacity, victim, itemKey(item, localID))
}

func (c *CapacityController) spawn(item feed.Item, localID string, img image.Image, entering bool) bool {
	p := SpawnParams{LocalID: localID, Entering: entering}
	if item.ID != "" {
		it := item
		p.Item = &it
	}
	if _, err := c.store.Spawn(img, p); err != nil {
		log.Printf("[Capacity] failed to spawn %s: %v", itemKey(item, localID), err)
		return false
	}
	return true
}

// known 检查外部 ID 是否已在鱼缸中或正在排队
func (c *CapacityController) known(docID string) bool {
	if docID == "" {
		return false
	}
	if c.store.HasDocID(docID) {
		return true
	}
	for _, p := range c.pending {
		if p.item.ID == docID {
			return true
		}
	}
	return false
}

// spawnReady 让死亡动画已结束的替换鱼入场
func (c *CapacityController) spawnReady() {
	if len(c.pending) == 0 {
		return
	}
	now := c.state.Time
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.readyAt > now {
			kept = append(kept, p)
			continue
		}
		if !c.spawn(p.item, p.localID, p.img, true) {
			c.backfillCheck = true
		}
	}
	c.pending = kept
}

// commitCapacity 使新容量生效
func (c *CapacityController) commitCapacity(n int) {
	old := c.capacity
	c.capacity = n
	c.tickets = nil

	occupied := c.Occupancy()
	switch {
	case occupied > n:
		excess := occupied - n
		stagger := c.cfg.StaggerSeconds()
		for i := 0; i < excess; i++ {
			c.tickets = append(c.tickets, c.state.Time+float64(i)*stagger)
		}
		log.Printf("[Capacity] capacity %d -> %d, retiring %d fish", old, n, excess)
		c.fireTickets()
	case occupied < n:
		log.Printf("[Capacity] capacity %d -> %d, fetching %d more fish", old, n, n-occupied)
		c.fetch(fetchGrow, n-occupied, c.store.DocIDs())
	}
	if old != n {
		c.notifyCommit()
	}
}

// fireTickets 执行到期的死亡，每次执行时重新检查超出的数量
func (c *CapacityController) fireTickets() {
	now := c.state.Time
	for len(c.tickets) > 0 && c.tickets[0] <= now {
		c.tickets = c.tickets[1:]
		if c.Occupancy() <= c.capacity {
			c.tickets = nil
			return
		}
		if victim, ok := c.store.OldestAlive(); ok && c.lifecycle.StartDying(victim) {
			continue
		}
		// 没有可淘汰的鱼时放弃最新排队的替换鱼
		if n := len(c.pending); n > 0 {
			c.pending = c.pending[:n-1]
		}
	}
}

// onFishRemoved 死亡动画结束、鱼被移除
func (c *CapacityController) onFishRemoved(id ecs.EntityID) {
	c.backfillCheck = true
}

// maybeBackfill 鱼被移除后数量仍低于容量时补充一次，有冷却时间
func (c *CapacityController) maybeBackfill() {
	if !c.backfillCheck {
		return
	}
	// 有其他拉取或容量调整进行中时保留标记，结束后再检查
	if c.fetching || len(c.tickets) > 0 || c.commitPending {
		return
	}
	c.backfillCheck = false
	missing := c.capacity - c.Occupancy()
	if missing <= 0 {
		return
	}
	if c.backfilled && c.state.Time-c.lastBackfill < c.cfg.BackfillCooldownSeconds() {
		log.Printf("[Capacity] backfill skipped, cooling down")
		return
	}
	c.backfilled = true
	c.lastBackfill = c.state.Time
	log.Printf("[Capacity] backfilling %d fish", missing)
	c.fetch(fetchBackfill, missing, c.store.DocIDs())
}

// fetch 在后台分页拉取并解码最多 want 条不在 exclude 中的记录
func (c *CapacityController) fetch(purpose fetchPurpose, want int, exclude map[string]struct{}) {
	if c.source == nil || want <= 0 {
		return
	}
	c.fetching = true
	gen := c.gen
	ctx := c.ctx
	sort := c.sort
	maxPages := c.cfg.Capacity.MaxPages
	if purpose == fetchInitial {
		maxPages = 1
	}
	parallelism := c.cfg.Feed.MaxConcurrentDecodes

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var items []feed.Item
		seen := make(map[string]struct{}, len(exclude))
		for id := range exclude {
			seen[id] = struct{}{}
		}
		cursor := ""
		var err error
		for page := 0; page < maxPages && len(items) < want; page++ {
			var p feed.Page
			p, err = c.source.List(ctx, feed.Query{Sort: sort, Limit: want + len(exclude), Cursor: cursor})
			if err != nil {
				break
			}
			for _, it := range p.Items {
				if _, dup := seen[it.ID]; dup {
					continue
				}
				seen[it.ID] = struct{}{}
				items = append(items, it)
				if len(items) == want {
					break
				}
			}
			if p.Cursor == "" {
				break
			}
			cursor = p.Cursor
		}

		msg := batchLoaded{gen: gen, purpose: purpose, err: err}
		if len(items) > 0 {
			msg.results = feed.LoadAll(ctx, c.loader, items, parallelism)
			for i := range msg.results {
				r := &msg.results[i]
				if r.Err == nil {
					r.Image, r.Err = utils.CropToContent(r.Image)
				}
			}
		}
		c.post(ctx, msg)
	}()
}

func (c *CapacityController) applyBatch(m batchLoaded) {
	if m.err != nil {
		log.Printf("[Capacity] %s fetch failed: %v", m.purpose, m.err)
	}
	spawned := 0
	for _, r := range m.results {
		if r.Item.CreatedAt.After(c.newest) {
			c.newest = r.Item.CreatedAt
		}
		if r.Err != nil {
			log.Printf("[Capacity] skipping fish %s: %v", r.Item.ID, r.Err)
			continue
		}
		if c.known(r.Item.ID) || c.Occupancy() >= c.capacity {
			continue
		}
		if c.spawn(r.Item, "", r.Image, false) {
			spawned++
		}
	}
	log.Printf("[Capacity] %s fetch spawned %d fish (%d/%d)", m.purpose, spawned, c.Occupancy(), c.capacity)

	if m.purpose == fetchInitial {
		c.subscribe()
	}
}

// subscribe 在按时间排序时订阅新鱼
func (c *CapacityController) subscribe() {
	if c.subscriber == nil || c.sort != feed.SortRecent || c.sub != nil {
		return
	}
	gen := c.gen
	ctx := c.ctx
	after := c.newest

	onItem := func(it feed.Item) {
		img, err := c.loader.Load(ctx, it.ImageURL)
		if err == nil {
			img, err = utils.CropToContent(img)
		}
		c.post(ctx, itemDecoded{gen: gen, item: it, img: img, err: err})
	}
	onError := func(err error) {
		c.post(ctx, feedFailed{gen: gen, err: err})
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		sub, err := c.subscriber.Subscribe(ctx, after, onItem, onError)
		if !c.post(ctx, subscribed{gen: gen, sub: sub, err: err}) && sub != nil {
			sub.Close()
		}
	}()
}

// post 把结果投递到 inbox；控制器已重新加载或关闭时放弃
func (c *CapacityController) post(ctx context.Context, msg any) bool {
	select {
	case c.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *CapacityController) closeSubscription() {
	if c.sub != nil {
		if err := c.sub.Close(); err != nil {
			log.Printf("[Capacity] failed to close subscription: %v", err)
		}
		c.sub = nil
	}
}

func (c *CapacityController) notifyCommit() {
	if c.OnCommit != nil {
		c.OnCommit(c.capacity, c.sort)
	}
}

func itemKey(item feed.Item, localID string) string {
	if item.ID != "" {
		return item.ID
	}
	return localID
}
