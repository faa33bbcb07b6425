package model

// ==================== 常量定义 ====================

// 映射状态
type MappingStatus string

const (
	MappingStatusPending   MappingStatus = "pending"
	MappingStatusSuggested MappingStatus = "suggested"
	MappingStatusConfirmed MappingStatus = "confirmed"
	MappingStatusRejected  MappingStatus = "rejected"
	// canonical 是合成状态：目标店铺本身就是该节点所属的主站，不落库
	MappingStatusCanonical MappingStatus = "canonical"
)

// 映射来源
type MappingSource string

const (
	MappingSourceAuto   MappingSource = "auto"
	MappingSourceManual MappingSource = "manual"
	MappingSourceAI     MappingSource = "ai"
)

// StatusRank 状态优先级，数值越小越优先
// 用于同一权威节点意外存在多行映射时的兜底取舍
func StatusRank(s MappingStatus) int {
	switch s {
	case MappingStatusConfirmed, MappingStatusCanonical:
		return 0
	case MappingStatusSuggested:
		return 1
	case MappingStatusPending:
		return 2
	case MappingStatusRejected:
		return 3
	default:
		return 4
	}
}

// ==================== CategoryMapping 分类映射 ====================

// CategoryMapping 权威节点 → 某分站节点的映射，单一事实来源
// (category_node_id, shop_id) 唯一；状态为 confirmed 时 confidence 恒为 1.0
type CategoryMapping struct {
	BaseModel
	CategoryNodeID int64                  `gorm:"uniqueIndex:uidx_node_shop;index;not null" json:"category_node_id"`
	CategoryNode   *CanonicalCategoryNode `gorm:"foreignKey:CategoryNodeID" json:"category_node,omitempty"`

	ShopID int64 `gorm:"uniqueIndex:uidx_node_shop;index;not null" json:"shop_id"`

	// null = 已建行但尚未映射到任何分站节点
	ShopCategoryNodeID *int64            `gorm:"index" json:"shop_category_node_id"`
	ShopCategoryNode   *ShopCategoryNode `gorm:"foreignKey:ShopCategoryNodeID" json:"shop_category_node,omitempty"`

	Status     MappingStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Confidence float64       `gorm:"default:0" json:"confidence"`
	Source     MappingSource `gorm:"size:20;not null;default:auto" json:"source"`
}

func (CategoryMapping) TableName() string {
	return "category_mappings"
}
