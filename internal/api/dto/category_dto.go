package dto

// ================== Category Sync DTO ==================

// SyncReq 同步请求：载荷可以直接随请求带上，也可以指定快照存储里的键
type SyncReq struct {
	Payload     interface{} `json:"payload"`
	SnapshotKey string      `json:"snapshot_key"`
}

// SyncResp 同步结果摘要
type SyncResp struct {
	Categories     int `json:"categories"`      // 载荷里拍平出的分类记录数
	CanonicalNodes int `json:"canonical_nodes"` // 触达的权威节点数
	ShopNodes      int `json:"shop_nodes"`      // 触达的分站节点数
}

// CategoryDeleteResp 管理员删除子树的结果
type CategoryDeleteResp struct {
	Deleted int64 `json:"deleted"`
}

// SyncCooldownItem 某同步类型的冷却状态
type SyncCooldownItem struct {
	SyncType   string `json:"sync_type"`
	Allowed    bool   `json:"allowed"`
	RetryAfter int    `json:"retry_after"` // 秒，可同步时为 0
}

// SyncCooldownResp 店铺各同步类型的冷却状态
type SyncCooldownResp struct {
	ShopID int64              `json:"shop_id"`
	Items  []SyncCooldownItem `json:"items"`
}

// ================== Suggestion DTO ==================

// SuggestionRunReq AI 建议批次请求
type SuggestionRunReq struct {
	// IncludeMapped 是否允许对已 confirmed 的节点重出建议
	IncludeMapped bool `json:"include_mapped"`
}

// SuggestionRunResp AI 建议批次结果
type SuggestionRunResp struct {
	RunID          string `json:"run_id"`
	CandidateNodes int    `json:"candidate_nodes"` // 送审节点数
	Accepted       int    `json:"accepted"`
	Dropped        int    `json:"dropped"`
}
