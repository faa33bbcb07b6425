package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ==================== Product 主站商品 ====================

// Product 主站商品记录（分类一致性校验的输入之一）
type Product struct {
	BaseModel
	MasterShopID int64  `gorm:"index;not null" json:"master_shop_id"`
	Guid         string `gorm:"size:64;uniqueIndex;not null" json:"guid"`

	Title string `gorm:"size:255" json:"title"`
	Sku   string `gorm:"size:100;index" json:"sku"`

	// --- 分类 ---
	// 主站默认分类 GUID，为空表示主站侧未设置
	DefaultCategoryGuid string `gorm:"size:64;index" json:"default_category_guid"`
	// 次要分类
	CategoryGuids pq.StringArray `gorm:"type:text[]" json:"category_guids"`
}

func (Product) TableName() string {
	return "products"
}

// ==================== ShopProductOverlay 分站商品快照 ====================

// ShopProductOverlay 某分站上该商品的覆盖快照
// ActualDefaultGuid 是分站实际记录的默认分类；Payload 是分站原始载荷，
// 校验器会在其中任意位置扫出分类引用（裸 GUID、裸路径、各种对象形状）
type ShopProductOverlay struct {
	BaseModel
	ProductID int64    `gorm:"uniqueIndex:uidx_product_shop;index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`
	ShopID    int64    `gorm:"uniqueIndex:uidx_product_shop;index;not null" json:"shop_id"`

	ActualDefaultGuid string         `gorm:"size:64" json:"actual_default_guid"`
	Payload           datatypes.JSON `gorm:"type:jsonb" json:"payload"`
}

func (ShopProductOverlay) TableName() string {
	return "shop_product_overlays"
}
