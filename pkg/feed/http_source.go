package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxListBody 列表响应体上限
const maxListBody = 8 << 20

// HTTPSource 通过 REST 接口查询鱼列表
//
//	GET {BaseURL}/fish?sort=recent&limit=20&cursor=...&createdAfter=<unix ms>
//
// 响应可以是记录数组，也可以是 {"fish"|"items"|"data": [...], "cursor"|"nextCursor": "..."}。
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource 创建 HTTP 数据源
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// List 查询一页记录
// 单条记录格式错误只会被跳过并记录日志，不会使整页失败
func (s *HTTPSource) List(ctx context.Context, q Query) (Page, error) {
	endpoint, err := url.Parse(s.BaseURL + "/fish")
	if err != nil {
		return Page{}, fmt.Errorf("invalid feed url: %w", err)
	}

	params := url.Values{}
	if q.Sort != "" {
		params.Set("sort", string(q.Sort))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	if !q.CreatedAfter.IsZero() {
		params.Set("createdAfter", strconv.FormatInt(q.CreatedAfter.UnixMilli(), 10))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to build list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("list request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListBody))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read list response: %w", err)
	}
	return decodePage(body)
}

// decodePage 解析列表响应
func decodePage(body []byte) (Page, error) {
	var rawItems []map[string]any
	var cursor string

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &rawItems); err != nil {
			return Page{}, fmt.Errorf("failed to decode list response: %w", err)
		}
	} else {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return Page{}, fmt.Errorf("failed to decode list response: %w", err)
		}
		for _, key := range []string{"fish", "items", "data"} {
			if raw, ok := envelope[key]; ok {
				if err := json.Unmarshal(raw, &rawItems); err != nil {
					return Page{}, fmt.Errorf("failed to decode %q: %w", key, err)
				}
				break
			}
		}
		for _, key := range []string{"cursor", "nextCursor"} {
			if raw, ok := envelope[key]; ok {
				// cursor 为 null 时保持为空
				_ = json.Unmarshal(raw, &cursor)
				break
			}
		}
	}

	page := Page{Items: make([]Item, 0, len(rawItems)), Cursor: cursor}
	for _, raw := range rawItems {
		it, err := NormalizeItem(raw)
		if err != nil {
			if errors.Is(err, ErrBadItem) {
				log.Printf("[Feed] Skipping item: %v", err)
				continue
			}
			return Page{}, err
		}
		page.Items = append(page.Items, it)
	}
	return page, nil
}
