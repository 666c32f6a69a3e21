package tank

import (
	"image"
	"log"
	"math"

	"github.com/decker502/fishtank/pkg/components"
	"github.com/decker502/fishtank/pkg/config"
	"github.com/decker502/fishtank/pkg/ecs"
	"github.com/decker502/fishtank/pkg/entities"
	"github.com/decker502/fishtank/pkg/feed"
	"github.com/decker502/fishtank/pkg/game"
	"github.com/decker502/fishtank/pkg/systems"
	"github.com/decker502/fishtank/pkg/utils"
)

// ErrBlankImage 图片完全透明或尺寸为零
var ErrBlankImage = utils.ErrBlankImage

// SpawnParams 出生参数
type SpawnParams struct {
	// Item 来自数据源的记录；本地鱼为 nil
	Item *feed.Item
	// LocalID 本地鱼的标识
	LocalID string
	// Entering 是否播放入场动画（仅用于替换出生）
	Entering bool
}

// SpriteStore 鱼的集合，按出生顺序排列
//
// 出生顺序就是 EntityManager 的创建顺序：越靠前越老，绘制时越靠下。
// 只负责增删查，从不自行淘汰；容量由 CapacityController 控制。
type SpriteStore struct {
	entityManager *ecs.EntityManager
	state         *game.TankState
	cfg           *config.TankConfig
	lifecycle     *systems.LifecycleSystem

	nextSeq uint64
	// sizedW, sizedH 当前位图尺寸对应的鱼缸尺寸
	sizedW, sizedH float64
}

// NewSpriteStore 创建鱼的集合
func NewSpriteStore(em *ecs.EntityManager, state *game.TankState, cfg *config.TankConfig, lifecycle *systems.LifecycleSystem) *SpriteStore {
	return &SpriteStore{
		entityManager: em,
		state:         state,
		cfg:           cfg,
		lifecycle:     lifecycle,
		nextSeq:       1,
		sizedW:        state.Width,
		sizedH:        state.Height,
	}
}

// Spawn 用一张图片创建一条鱼并追加到末尾
func (s *SpriteStore) Spawn(img image.Image, p SpawnParams) (ecs.EntityID, error) {
	params := entities.FishParams{
		Info:     components.FishInfoComponent{LocalID: p.LocalID, Artist: "Anonymous"},
		SpawnSeq: s.nextSeq,
	}
	if it := p.Item; it != nil {
		params.Info = components.FishInfoComponent{
			DocID:     it.ID,
			LocalID:   p.LocalID,
			Artist:    it.Artist,
			CreatedAt: it.CreatedAt,
			Upvotes:   it.Upvotes,
			Downvotes: it.Downvotes,
		}
		params.Phase = it.Phase
		params.Amplitude = it.Amplitude
		params.Speed = it.Speed
		params.Peduncle = it.Peduncle
	}

	id, err := entities.NewFishEntity(s.entityManager, s.state, s.cfg, img, params)
	if err != nil {
		return 0, err
	}
	s.nextSeq++
	if p.Entering {
		s.lifecycle.StartEntering(id)
	}
	log.Printf("[Tank] spawned fish %d (%s, entering=%v)", id, params.Info.Key(), p.Entering)
	return id, nil
}

// Remove 立即移除一条鱼，重复调用或对不存在的鱼调用是安全的
func (s *SpriteStore) Remove(id ecs.EntityID) {
	if !ecs.HasComponent[*components.FishComponent](s.entityManager, id) {
		return
	}
	s.entityManager.DestroyEntity(id)
}

// Clear 移除所有鱼
func (s *SpriteStore) Clear() {
	for _, id := range s.Fish() {
		s.entityManager.DestroyEntity(id)
	}
}

// Fish 按出生顺序返回所有鱼（含入场和死亡中的）
func (s *SpriteStore) Fish() []ecs.EntityID {
	all := ecs.GetEntitiesWith2[*components.FishComponent, *components.PositionComponent](s.entityManager)
	out := all[:0]
	for _, id := range all {
		if !s.entityManager.IsMarkedForDestroy(id) {
			out = append(out, id)
		}
	}
	return out
}

// CountActive 返回存活和入场中的鱼的数量（计入容量的部分）
func (s *SpriteStore) CountActive() int {
	n := 0
	for _, id := range s.Fish() {
		if !systems.IsDying(s.entityManager, id) {
			n++
		}
	}
	return n
}

// CountDying 返回死亡动画中的鱼的数量
func (s *SpriteStore) CountDying() int {
	n := 0
	for _, id := range s.Fish() {
		if systems.IsDying(s.entityManager, id) {
			n++
		}
	}
	return n
}

// OldestAlive 返回最老的存活鱼；没有存活的鱼时退而选最老的入场中的鱼
func (s *SpriteStore) OldestAlive() (ecs.EntityID, bool) {
	var entering ecs.EntityID
	found := false
	for _, id := range s.Fish() {
		if systems.IsAlive(s.entityManager, id) {
			return id, true
		}
		if !found && systems.IsEntering(s.entityManager, id) {
			entering = id
			found = true
		}
	}
	return entering, found
}

// FindAtPoint 返回包含 (x, y) 的最上层的鱼
func (s *SpriteStore) FindAtPoint(x, y float64) (ecs.EntityID, bool) {
	fish := s.Fish()
	for i := len(fish) - 1; i >= 0; i-- {
		id := fish[i]
		f, _ := ecs.GetComponent[*components.FishComponent](s.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
		if x >= pos.X && x < pos.X+f.Width && y >= pos.Y && y < pos.Y+f.Height {
			return id, true
		}
	}
	return 0, false
}

// Info 返回鱼的元数据
func (s *SpriteStore) Info(id ecs.EntityID) (*components.FishInfoComponent, bool) {
	return ecs.GetComponent[*components.FishInfoComponent](s.entityManager, id)
}

// HasDocID 检查是否已有该外部 ID 的鱼
func (s *SpriteStore) HasDocID(docID string) bool {
	if docID == "" {
		return false
	}
	for _, id := range s.Fish() {
		if info, ok := s.Info(id); ok && info.DocID == docID {
			return true
		}
	}
	return false
}

// DocIDs 返回当前所有鱼的外部 ID
func (s *SpriteStore) DocIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, id := range s.Fish() {
		if info, ok := s.Info(id); ok && info.DocID != "" {
			ids[info.DocID] = struct{}{}
		}
	}
	return ids
}

// Resize 更新鱼缸尺寸
//
// 任一轴变化超过 RescaleThreshold 时，从原图重新缩放所有鱼；
// 否则只更新边界。两种情况都会把鱼夹回鱼缸内；
// 死亡中的鱼只夹紧 X，下坠允许越过底部。
// 返回是否进行了重缩放。
func (s *SpriteStore) Resize(width, height float64) bool {
	s.state.Width = width
	s.state.Height = height

	rescaled := false
	if changed(s.sizedW, width, s.cfg.Sizing.RescaleThreshold) || changed(s.sizedH, height, s.cfg.Sizing.RescaleThreshold) {
		s.rescaleAll()
		s.sizedW, s.sizedH = width, height
		rescaled = true
	}

	for _, id := range s.Fish() {
		f, _ := ecs.GetComponent[*components.FishComponent](s.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
		pos.X = math.Max(0, math.Min(pos.X, width-f.Width))
		if systems.IsDying(s.entityManager, id) {
			continue
		}
		pos.Y = math.Max(0, math.Min(pos.Y, height-f.Height))
	}
	return rescaled
}

func (s *SpriteStore) rescaleAll() {
	w, h := entities.FishSize(&s.cfg.Sizing, s.state.Width, s.state.Height)
	for _, id := range s.Fish() {
		f, _ := ecs.GetComponent[*components.FishComponent](s.entityManager, id)
		sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
		if !ok || sprite.Source == nil {
			continue
		}
		img, err := entities.RenderFishImage(sprite.Source, w, h)
		if err != nil {
			log.Printf("[Tank] failed to rescale fish %d: %v", id, err)
			continue
		}
		sprite.SetImage(img)
		f.Width, f.Height = w, h
	}
	log.Printf("[Tank] rescaled fish to %.0fx%.0f", w, h)
}

func changed(old, now, threshold float64) bool {
	if old <= 0 {
		return now > 0
	}
	return math.Abs(now-old)/old > threshold
}
