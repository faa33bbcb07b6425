package dto

// ================== User DTO ==================

// LoginReq 登录请求
type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResp 登录响应
type LoginResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

// ShopResp 店铺响应
type ShopResp struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	IsMaster     bool   `json:"is_master"`
	Locale       string `json:"locale"`
	CurrencyCode string `json:"currency_code"`
	Status       int    `json:"status"`
}
