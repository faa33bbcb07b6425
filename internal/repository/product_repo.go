package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shophub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByGuid(ctx context.Context, guid string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error

	// ListPaged 按主键顺序分页拉取，供一致性校验流式消费
	ListPaged(ctx context.Context, masterShopID int64, afterID int64, limit int) ([]model.Product, error)
	Count(ctx context.Context, masterShopID int64) (int64, error)

	// 批量操作
	BatchUpsert(ctx context.Context, products []model.Product) error

	// 分站快照
	GetOverlay(ctx context.Context, productID, shopID int64) (*model.ShopProductOverlay, error)
	ListOverlays(ctx context.Context, shopID int64, productIDs []int64) ([]model.ShopProductOverlay, error)
	UpsertOverlay(ctx context.Context, overlay *model.ShopProductOverlay) error
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByGuid(ctx context.Context, guid string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepo) ListPaged(ctx context.Context, masterShopID int64, afterID int64, limit int) ([]model.Product, error) {
	var products []model.Product
	if limit <= 0 {
		limit = 100
	}
	err := r.db.WithContext(ctx).
		Where("master_shop_id = ? AND id > ?", masterShopID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) Count(ctx context.Context, masterShopID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("master_shop_id = ?", masterShopID).
		Count(&total).Error
	return total, err
}

func (r *productRepo) BatchUpsert(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "sku", "default_category_guid", "category_guids", "updated_at",
		}),
	}).Create(&products).Error
}

func (r *productRepo) GetOverlay(ctx context.Context, productID, shopID int64) (*model.ShopProductOverlay, error) {
	var overlay model.ShopProductOverlay
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND shop_id = ?", productID, shopID).
		First(&overlay).Error
	if err != nil {
		return nil, err
	}
	return &overlay, nil
}

func (r *productRepo) ListOverlays(ctx context.Context, shopID int64, productIDs []int64) ([]model.ShopProductOverlay, error) {
	var overlays []model.ShopProductOverlay
	if len(productIDs) == 0 {
		return overlays, nil
	}
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id IN ?", shopID, productIDs).
		Find(&overlays).Error
	return overlays, err
}

func (r *productRepo) UpsertOverlay(ctx context.Context, overlay *model.ShopProductOverlay) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"actual_default_guid", "payload", "updated_at",
		}),
	}).Create(overlay).Error
}
