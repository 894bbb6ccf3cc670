package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrRender        = errors.New("document render failed")
	ErrEmptyDocument = errors.New("renderer returned an empty document")
)

type renderRequest struct {
	Kind    model.DocumentKind `json:"kind"`
	OrderID string             `json:"order_id"`
}

type renderResponse struct {
	HTML string `json:"html"`
}

// Client 文件渲染服務，POST {baseURL}/render
// 逾時由 http.Client 決定，呼叫端不另外設定
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		now:     time.Now,
	}
}

// Render 回傳的 HTML 不做任何修改
func (c *Client) Render(ctx context.Context, kind model.DocumentKind, orderID string) (model.Document, error) {
	body, err := json.Marshal(renderRequest{Kind: kind, OrderID: orderID})
	if err != nil {
		return model.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", ErrRender, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Document{}, fmt.Errorf("%w: status %d: %s", ErrRender, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Document{}, fmt.Errorf("%w: decode response: %v", ErrRender, err)
	}
	if out.HTML == "" {
		return model.Document{}, fmt.Errorf("%w: order %s", ErrEmptyDocument, orderID)
	}

	return model.Document{
		OrderID:    orderID,
		Kind:       kind,
		HTML:       out.HTML,
		RenderedAt: c.now(),
	}, nil
}
