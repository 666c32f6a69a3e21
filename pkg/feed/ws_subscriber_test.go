package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestFeedServer 启动一个 WebSocket 服务端：收到订阅请求后按顺序推送 messages
func newTestFeedServer(t *testing.T, messages []string, gotRequest chan<- wsClientMessage) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req wsClientMessage
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if gotRequest != nil {
			gotRequest <- req
		}
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// 保持连接直到客户端关闭
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSSubscriberDeliversNewItems(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, ts string) string {
		b, _ := json.Marshal(map[string]any{
			"type": "added",
			"fish": map[string]any{"id": id, "image": "https://img/" + id, "createdAt": ts},
		})
		return string(b)
	}
	messages := []string{
		mk("old", "2023-12-31T00:00:00Z"), // 早于 createdAfter，被过滤
		mk("new1", "2024-01-02T00:00:00Z"),
		mk("new1", "2024-01-02T00:00:00Z"), // 重复推送，被过滤
		`{"type": "added", "fish": {"id": "broken"}}`,
		mk("new2", "2024-01-03T00:00:00Z"),
	}

	requests := make(chan wsClientMessage, 1)
	srv := newTestFeedServer(t, messages, requests)
	defer srv.Close()

	items := make(chan Item, 8)
	sub, err := NewWSSubscriber(wsURL(srv)).Subscribe(context.Background(), after,
		func(it Item) { items <- it },
		func(err error) {})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Close()

	select {
	case req := <-requests:
		if req.Type != "subscribe" || req.CreatedAfter != after.UnixMilli() {
			t.Errorf("unexpected subscribe request %+v", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received subscribe request")
	}

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case it := <-items:
			got = append(got, it.ID)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[0] != "new1" || got[1] != "new2" {
		t.Errorf("unexpected delivery %v", got)
	}

	select {
	case it := <-items:
		t.Errorf("unexpected extra item %s", it.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWSSubscriberReportsServerError(t *testing.T) {
	srv := newTestFeedServer(t, []string{`{"type": "error", "message": "quota exceeded"}`}, nil)
	defer srv.Close()

	errs := make(chan error, 2)
	sub, err := NewWSSubscriber(wsURL(srv)).Subscribe(context.Background(), time.Time{},
		func(Item) {},
		func(err error) { errs <- err })
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Close()

	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "quota exceeded") {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected error callback")
	}
}

func TestWSSubscriberDialFailure(t *testing.T) {
	_, err := NewWSSubscriber("ws://127.0.0.1:1/feed").Subscribe(context.Background(), time.Time{}, nil, nil)
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestWSSubscriptionCloseIsIdempotent(t *testing.T) {
	srv := newTestFeedServer(t, nil, nil)
	defer srv.Close()

	errs := make(chan error, 1)
	sub, err := NewWSSubscriber(wsURL(srv)).Subscribe(context.Background(), time.Time{}, nil,
		func(err error) { errs <- err })
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	sub.Close()
	sub.Close()

	// 主动关闭不应触发错误回调
	select {
	case err := <-errs:
		t.Errorf("unexpected error after close: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
