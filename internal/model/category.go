package model

import "gorm.io/datatypes"

// ==================== 遍历保护 ====================

// MaxTreeHops 父链遍历上限
// 远端数据可能带环或悬空父引用，所有沿 parent 向上的遍历必须在此跳数内终止
const MaxTreeHops = 50

// ==================== CanonicalCategoryNode 权威分类节点 ====================

// CanonicalCategoryNode 主站（权威）分类树节点
// Guid 跨同步稳定；孤儿清理不在本系统职责内，节点只增改不删
type CanonicalCategoryNode struct {
	BaseModel
	Guid       string `gorm:"size:64;uniqueIndex;not null" json:"guid"`
	ParentID   *int64 `gorm:"index" json:"parent_id"`
	ParentGuid string `gorm:"size:64;index" json:"parent_guid"`

	Name     string `gorm:"size:255;not null" json:"name"`
	Slug     string `gorm:"size:255;index" json:"slug"`
	Position int    `gorm:"default:0" json:"position"`

	// 所属主站店铺
	MasterShopID int64 `gorm:"index;not null" json:"master_shop_id"`

	// 原始载荷，留给下游消费（翻译、价格覆盖等）
	RawPayload datatypes.JSON `gorm:"type:jsonb" json:"raw_payload"`
}

func (CanonicalCategoryNode) TableName() string {
	return "canonical_category_nodes"
}

// ==================== ShopCategoryNode 分站分类节点 ====================

// ShopCategoryNode 某个分站本地维护的分类节点（远端分类的镜像）
// (shop_id, remote_guid) 唯一；重同步不删除从载荷里消失的节点（软生命周期）
type ShopCategoryNode struct {
	BaseModel
	ShopID     int64  `gorm:"uniqueIndex:uidx_shop_remote_guid;index;not null" json:"shop_id"`
	RemoteGuid string `gorm:"size:64;uniqueIndex:uidx_shop_remote_guid;not null" json:"remote_guid"`
	ParentID   *int64 `gorm:"index" json:"parent_id"`
	ParentGuid string `gorm:"size:64;index" json:"parent_guid"`

	Name string `gorm:"size:255;not null" json:"name"`
	Slug string `gorm:"size:255;index" json:"slug"`
	// 面包屑路径缓存 "A > B > C"，改名/换父后同一趟同步内重算
	Path     string `gorm:"size:1024;index" json:"path"`
	Position int    `gorm:"default:0" json:"position"`
	Visible  bool   `gorm:"default:true" json:"visible"`

	// 展示用元数据（URL、图片、挂件载荷等），重同步时做增量深合并，不丢旧键
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
}

func (ShopCategoryNode) TableName() string {
	return "shop_category_nodes"
}
