package model

// ==================== 常量定义 ====================

// AI 调用类型
const (
	AICallTypeMapping = "mapping_suggest" // 分类映射建议
)

// AI 调用状态
const (
	AICallStatusSuccess = "success"
	AICallStatusFailed  = "failed"
	AICallStatusTimeout = "timeout"
)

// ==================== AICallLog AI 调用日志 ====================

// AICallLog 记录每一次 AI 协作方调用，用于成本核算与排障
type AICallLog struct {
	BaseModel
	ShopID    int64  `gorm:"index" json:"shop_id"`
	RunID     string `gorm:"size:64;index" json:"run_id"` // 一次建议批次的 UUID
	CallType  string `gorm:"size:32" json:"call_type"`
	ModelName string `gorm:"size:64" json:"model_name"`

	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	DurationMs   int64 `json:"duration_ms"`

	// 建议结果统计
	CandidateNodes int `json:"candidate_nodes"` // 送审的权威节点数
	Accepted       int `json:"accepted"`        // 通过校验并落库的条数
	Dropped        int `json:"dropped"`         // 被丢弃的非法条数

	Status   string `gorm:"size:32;index" json:"status"`
	ErrorMsg string `gorm:"size:1024" json:"error_msg"`
}

func (AICallLog) TableName() string {
	return "ai_call_logs"
}
