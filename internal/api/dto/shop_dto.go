package dto

// ================== Shop DTO ==================

// ShopCreateReq 新建店铺请求
type ShopCreateReq struct {
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code" binding:"required"`
	IsMaster     bool   `json:"is_master"`
	ApiBaseURL   string `json:"api_base_url"`
	ApiKey       string `json:"api_key"`
	Locale       string `json:"locale"`
	CurrencyCode string `json:"currency_code"`
}

// ShopUpdateReq 更新店铺请求，nil 字段不动
type ShopUpdateReq struct {
	Name         *string `json:"name"`
	ApiBaseURL   *string `json:"api_base_url"`
	ApiKey       *string `json:"api_key"`
	Locale       *string `json:"locale"`
	CurrencyCode *string `json:"currency_code"`
	Status       *int    `json:"status"`
}

// ShopListResp 店铺列表响应
type ShopListResp struct {
	Items []ShopResp `json:"items"`
	Total int64      `json:"total"`
}
