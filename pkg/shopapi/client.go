package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 配置 ====================

const defaultTimeout = 30 * time.Second

// ==================== 数据结构 ====================

// ShopInfo 分站基础信息
type ShopInfo struct {
	Name         string `json:"name"`
	Locale       string `json:"locale"`
	CurrencyCode string `json:"currencyCode"`
	IsVacation   bool   `json:"isVacation"`
}

// ProductPage 分站商品快照分页
type ProductPage struct {
	Items      []json.RawMessage `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

type errResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ==================== 客户端 ====================

// Client 分站店铺 API 客户端
// 分类树和商品快照都原样返回 JSON，形状归一化交给上层处理
type Client struct {
	http *resty.Client
}

// NewClient 创建分站客户端
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("x-api-key", apiKey).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &Client{http: http}
}

// FetchShopInfo 拉取分站基础信息
func (c *Client) FetchShopInfo(ctx context.Context) (*ShopInfo, error) {
	var info ShopInfo
	var apiErr errResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&info).
		SetError(&apiErr).
		Get("/api/v1/shop")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("shop api error (code %d): %s", resp.StatusCode(), apiErr.Message)
	}
	return &info, nil
}

// FetchCategoryTree 拉取分站的完整分类树载荷
// 各平台导出形状不一致，这里不做任何解释，原样带回
func (c *Client) FetchCategoryTree(ctx context.Context) (json.RawMessage, error) {
	var apiErr errResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&apiErr).
		Get("/api/v1/categories/tree")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("shop api error (code %d): %s", resp.StatusCode(), apiErr.Message)
	}
	if !json.Valid(resp.Body()) {
		return nil, fmt.Errorf("shop api returned invalid json (%d bytes)", len(resp.Body()))
	}
	return json.RawMessage(resp.Body()), nil
}

// FetchProducts 分页拉取分站商品快照
func (c *Client) FetchProducts(ctx context.Context, page, pageSize int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}
	var out ProductPage
	var apiErr errResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		SetQueryParam("pageSize", fmt.Sprintf("%d", pageSize)).
		SetResult(&out).
		SetError(&apiErr).
		Get("/api/v1/products")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("shop api error (code %d): %s", resp.StatusCode(), apiErr.Message)
	}
	return &out, nil
}
