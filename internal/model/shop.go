package model

import "time"

// ==================== 常量定义 ====================

// 店铺状态
const (
	ShopStatusDisabled = 0 // 停用
	ShopStatusActive   = 1 // 正常
	ShopStatusSyncing  = 2 // 同步中
)

// ==================== Shop 店铺 ====================

// Shop 店铺（主站 + 各分站）
// IsMaster = true 的店铺持有权威分类树，全系统有且只有一个
type Shop struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name"`
	Code     string `gorm:"size:50;uniqueIndex;not null" json:"code"` // 店铺唯一编码，如 "cz-main"
	IsMaster bool   `gorm:"default:false;index" json:"is_master"`

	// --- 远程 API 接入 ---
	ApiBaseURL string `gorm:"size:255" json:"api_base_url"`
	ApiKey     string `gorm:"size:255" json:"-"`

	// --- 本地化 ---
	Locale       string `gorm:"size:10" json:"locale"` // cs, sk, en...
	CurrencyCode string `gorm:"size:5" json:"currency_code"`

	// --- 状态 ---
	Status int `gorm:"default:1;index" json:"status"`

	// --- 同步记录 ---
	CategorySyncedAt *time.Time `json:"category_synced_at"`
	SnapshotSyncedAt *time.Time `json:"snapshot_synced_at"`
}

func (Shop) TableName() string {
	return "shops"
}
