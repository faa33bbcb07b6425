package repository

import (
	"context"

	"gorm.io/gorm"

	"shophub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ShopRepository 店铺仓储接口
type ShopRepository interface {
	Create(ctx context.Context, shop *model.Shop) error
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	GetByCode(ctx context.Context, code string) (*model.Shop, error)
	// GetMaster 获取主站店铺；未配置时返回 gorm.ErrRecordNotFound
	GetMaster(ctx context.Context) (*model.Shop, error)
	Update(ctx context.Context, shop *model.Shop) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	// 列表查询
	List(ctx context.Context, filter ShopFilter) ([]model.Shop, int64, error)
	ListActiveShops(ctx context.Context) ([]model.Shop, error)
	// ListStorefronts 所有非主站的在用分站
	ListStorefronts(ctx context.Context) ([]model.Shop, error)
}

// ==================== 过滤条件 ====================

// ShopFilter 店铺过滤条件
type ShopFilter struct {
	Name     string
	Status   int // -1 表示不筛选
	IsMaster *bool
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type shopRepo struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓储
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) Create(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *shopRepo) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) GetByCode(ctx context.Context, code string) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) GetMaster(ctx context.Context) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).
		Where("is_master = ?", true).
		Order("id ASC").
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) Update(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Save(shop).Error
}

func (r *shopRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Shop{}).Where("id = ?", id).Updates(fields).Error
}

func (r *shopRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Shop{}, id).Error
}

func (r *shopRepo) List(ctx context.Context, filter ShopFilter) ([]model.Shop, int64, error) {
	var shops []model.Shop
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Shop{})
	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Status >= 0 {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsMaster != nil {
		query = query.Where("is_master = ?", *filter.IsMaster)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	err := query.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&shops).Error
	return shops, total, err
}

func (r *shopRepo) ListActiveShops(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ShopStatusActive).
		Order("id ASC").
		Find(&shops).Error
	return shops, err
}

func (r *shopRepo) ListStorefronts(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("is_master = ? AND status = ?", false, model.ShopStatusActive).
		Order("id ASC").
		Find(&shops).Error
	return shops, err
}
