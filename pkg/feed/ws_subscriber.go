package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPingInterval = 20 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// wsClientMessage 客户端发送的订阅请求
type wsClientMessage struct {
	Type         string `json:"type"`
	CreatedAfter int64  `json:"createdAfter,omitempty"`
}

// wsServerMessage 服务端推送
//
//	{"type": "added", "fish": {...}}
//	{"type": "error", "message": "..."}
type wsServerMessage struct {
	Type    string         `json:"type"`
	Fish    map[string]any `json:"fish,omitempty"`
	Message string         `json:"message,omitempty"`
}

// WSSubscriber 通过 WebSocket 订阅新增记录
type WSSubscriber struct {
	URL    string
	Dialer *websocket.Dialer
}

// NewWSSubscriber 创建 WebSocket 订阅器
func NewWSSubscriber(url string) *WSSubscriber {
	return &WSSubscriber{
		URL: url,
		Dialer: &websocket.Dialer{
			HandshakeTimeout:  10 * time.Second,
			EnableCompression: true,
		},
	}
}

// Subscribe 建立连接并发送订阅请求
//
// 服务端可能重放 createdAfter 之前的记录，这里按时间和 ID 双重过滤，
// 保证同一条记录不会被交付两次。
func (s *WSSubscriber) Subscribe(ctx context.Context, createdAfter time.Time, onItem func(Item), onError func(error)) (Subscription, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed subscribe dial failed: %w", err)
	}

	sub := &wsSubscription{
		conn:    conn,
		after:   createdAfter,
		seen:    make(map[string]struct{}),
		onItem:  onItem,
		onError: onError,
		done:    make(chan struct{}),
	}

	req := wsClientMessage{Type: "subscribe"}
	if !createdAfter.IsZero() {
		req.CreatedAfter = createdAfter.UnixMilli()
	}
	if err := sub.writeJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("feed subscribe request failed: %w", err)
	}

	go sub.readPump()
	go sub.pingPump()
	return sub, nil
}

// wsSubscription 一个活动中的 WebSocket 订阅
type wsSubscription struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	after time.Time
	seen  map[string]struct{}

	onItem  func(Item)
	onError func(error)

	closeOnce sync.Once
	done      chan struct{}
}

func (s *wsSubscription) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(v)
}

func (s *wsSubscription) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// readPump 读取推送直到连接关闭
func (s *wsSubscription) readPump() {
	defer s.conn.Close()

	s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.isClosed() {
				s.reportError(fmt.Errorf("feed subscription closed: %w", err))
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[Feed] Ignoring undecodable message: %v", err)
			continue
		}
		s.handle(msg)
	}
}

func (s *wsSubscription) handle(msg wsServerMessage) {
	switch msg.Type {
	case "added":
		it, err := NormalizeItem(msg.Fish)
		if err != nil {
			log.Printf("[Feed] Skipping pushed item: %v", err)
			return
		}
		if _, dup := s.seen[it.ID]; dup {
			return
		}
		if !s.after.IsZero() && !it.CreatedAt.IsZero() && !it.CreatedAt.After(s.after) {
			return
		}
		s.seen[it.ID] = struct{}{}
		if s.onItem != nil {
			s.onItem(it)
		}
	case "error":
		s.reportError(fmt.Errorf("feed server error: %s", msg.Message))
	case "pong", "subscribed":
	default:
		log.Printf("[Feed] Unknown message type: %s", msg.Type)
	}
}

func (s *wsSubscription) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
		return
	}
	log.Printf("[Feed] %v", err)
}

// pingPump 定期发送 ping 保活
func (s *wsSubscription) pingPump() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close 取消订阅，可重复调用
func (s *wsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteTimeout))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
