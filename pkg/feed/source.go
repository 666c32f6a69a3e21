package feed

import (
	"context"
	"image"
	"time"
)

// Source 列表查询接口（初始加载、加载更多、扩容补位）
type Source interface {
	List(ctx context.Context, q Query) (Page, error)
}

// Subscriber 新增记录推送接口
//
// 回调在后台 goroutine 中执行，调用方不得在回调里直接修改鱼缸状态，
// 必须把结果转交给主循环。
type Subscriber interface {
	Subscribe(ctx context.Context, createdAfter time.Time, onItem func(Item), onError func(error)) (Subscription, error)
}

// Subscription 可取消的订阅
type Subscription interface {
	Close() error
}

// ImageLoader 图片加载接口
// 解码失败、超时、空白图片都以 error 返回，由调用方统一按"不生成"处理
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}
