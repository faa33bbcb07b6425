package dto

// ================== Mapping DTO ==================

// CategoryBrief 分类摘要（权威或分站侧通用）
type CategoryBrief struct {
	Guid string `json:"guid"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	Path string `json:"path,omitempty"`
}

// MappingResp 映射行响应
type MappingResp struct {
	ID         int64          `json:"id,omitempty"` // canonical 合成映射没有落库行，ID 为 0
	Status     string         `json:"status"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source,omitempty"`
	Target     *CategoryBrief `json:"target,omitempty"` // 映射到的分站分类摘要
}

// ResolveItemResp 单个权威 GUID 的解析结果
type ResolveItemResp struct {
	Guid    string       `json:"guid"`
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Mapping *MappingResp `json:"mapping"` // null = 该分站尚无映射
}

// ResolveReq 映射解析请求
type ResolveReq struct {
	ShopID int64    `form:"shop_id" binding:"required"`
	Guids  []string `form:"guids" binding:"required"`
}

// MappingUpdateReq 人工调整映射请求
type MappingUpdateReq struct {
	ShopCategoryNodeID *int64 `json:"shop_category_node_id"`
	Status             string `json:"status" binding:"required,oneof=suggested confirmed rejected pending"`
}

// MappingUpdateResp 人工调整结果
type MappingUpdateResp struct {
	Applied bool         `json:"applied"`
	Mapping *MappingResp `json:"mapping,omitempty"`
}

// ================== Tree DTO ==================

// TreeNodeResp 带映射状态标注的树节点（UI 消费）
type TreeNodeResp struct {
	ID            int64           `json:"id"`
	Guid          string          `json:"guid"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug,omitempty"`
	Path          string          `json:"path,omitempty"`
	Position      int             `json:"position"`
	Visible       bool            `json:"visible"`
	MappingStatus string          `json:"mapping_status,omitempty"` // unmapped | pending | suggested | confirmed | rejected | canonical
	Confidence    float64         `json:"confidence,omitempty"`
	Children      []*TreeNodeResp `json:"children,omitempty"`
}
