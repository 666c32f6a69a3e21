package components

import "time"

// FishInfoComponent 存储鱼的外部元数据
// DocID 为空表示仅存在于本地的鱼（如 --local-fish 加载的图片）
type FishInfoComponent struct {
	DocID     string
	LocalID   string
	Artist    string
	CreatedAt time.Time
	Upvotes   int
	Downvotes int
}

// Score 返回净得票
func (c *FishInfoComponent) Score() int {
	return c.Upvotes - c.Downvotes
}

// Key 返回用于去重的标识：优先外部 ID，其次本地 ID
func (c *FishInfoComponent) Key() string {
	if c.DocID != "" {
		return c.DocID
	}
	return c.LocalID
}
