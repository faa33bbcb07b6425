package dto

// ================== 默认分类一致性报告 DTO ==================

// CategoryCheckReq 报告请求
type CategoryCheckReq struct {
	ShopID   int64  `form:"shop_id" binding:"required"`
	Reason   string `form:"reason"` // 按原因过滤，空 = 全部
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=50"`
}

// ProductBrief 商品摘要
type ProductBrief struct {
	ID    int64  `json:"id"`
	Guid  string `json:"guid"`
	Title string `json:"title"`
	Sku   string `json:"sku,omitempty"`
}

// CategoryCheckRow 单个商品的校验结果
type CategoryCheckRow struct {
	Product             ProductBrief   `json:"product"`
	Reason              string         `json:"reason"`
	MasterCategory      *CategoryBrief `json:"master_category,omitempty"`
	ExpectedCategory    *CategoryBrief `json:"expected_category,omitempty"`
	ActualCategory      *CategoryBrief `json:"actual_category,omitempty"`
	RecommendedCategory *CategoryBrief `json:"recommended_category,omitempty"` // default_not_deepest 时给出的更深分类
}

// CategoryCheckResp 分页报告 + 按原因聚合
type CategoryCheckResp struct {
	Rows     []CategoryCheckRow `json:"rows"`
	Total    int64              `json:"total"` // 过滤后的总行数
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Counts   map[string]int64   `json:"counts"` // reason -> 数量（全量，不受分页影响）
	Scanned  int64              `json:"scanned"`
}
