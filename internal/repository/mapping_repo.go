package repository

import (
	"context"

	"gorm.io/gorm"

	"shophub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// MappingRepository 分类映射仓储接口
// 优先级/不可降级规则在 service 层（MappingService）裁决，这里只做存取
type MappingRepository interface {
	Create(ctx context.Context, m *model.CategoryMapping) error
	Update(ctx context.Context, m *model.CategoryMapping) error
	GetByID(ctx context.Context, id int64) (*model.CategoryMapping, error)

	// GetByNodeAndShop 取 (权威节点, 分站) 的唯一映射行
	GetByNodeAndShop(ctx context.Context, categoryNodeID, shopID int64) (*model.CategoryMapping, error)
	// ListByNodeAndShop 兜底：历史脏数据可能出现多行，全部取出由上层裁决
	ListByNodeAndShop(ctx context.Context, categoryNodeID, shopID int64) ([]model.CategoryMapping, error)

	ListByShop(ctx context.Context, shopID int64) ([]model.CategoryMapping, error)
	ListByNodeIDs(ctx context.Context, shopID int64, nodeIDs []int64) ([]model.CategoryMapping, error)
	// ListConfirmedNodeIDs 该分站已有 confirmed 映射的权威节点 ID 集
	ListConfirmedNodeIDs(ctx context.Context, shopID int64) ([]int64, error)

	// 统计
	CountByStatus(ctx context.Context, shopID int64) (map[model.MappingStatus]int64, error)
}

// ==================== 仓储实现 ====================

type mappingRepo struct {
	db *gorm.DB
}

// NewMappingRepository 创建分类映射仓储
func NewMappingRepository(db *gorm.DB) MappingRepository {
	return &mappingRepo{db: db}
}

func (r *mappingRepo) Create(ctx context.Context, m *model.CategoryMapping) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *mappingRepo) Update(ctx context.Context, m *model.CategoryMapping) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *mappingRepo) GetByID(ctx context.Context, id int64) (*model.CategoryMapping, error) {
	var m model.CategoryMapping
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepo) GetByNodeAndShop(ctx context.Context, categoryNodeID, shopID int64) (*model.CategoryMapping, error) {
	var m model.CategoryMapping
	err := r.db.WithContext(ctx).
		Where("category_node_id = ? AND shop_id = ?", categoryNodeID, shopID).
		Order("id ASC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepo) ListByNodeAndShop(ctx context.Context, categoryNodeID, shopID int64) ([]model.CategoryMapping, error) {
	var ms []model.CategoryMapping
	err := r.db.WithContext(ctx).
		Where("category_node_id = ? AND shop_id = ?", categoryNodeID, shopID).
		Order("id ASC").
		Find(&ms).Error
	return ms, err
}

func (r *mappingRepo) ListByShop(ctx context.Context, shopID int64) ([]model.CategoryMapping, error) {
	var ms []model.CategoryMapping
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("id ASC").
		Find(&ms).Error
	return ms, err
}

func (r *mappingRepo) ListByNodeIDs(ctx context.Context, shopID int64, nodeIDs []int64) ([]model.CategoryMapping, error) {
	var ms []model.CategoryMapping
	if len(nodeIDs) == 0 {
		return ms, nil
	}
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND category_node_id IN ?", shopID, nodeIDs).
		Order("id ASC").
		Find(&ms).Error
	return ms, err
}

func (r *mappingRepo) ListConfirmedNodeIDs(ctx context.Context, shopID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.CategoryMapping{}).
		Where("shop_id = ? AND status = ?", shopID, model.MappingStatusConfirmed).
		Pluck("category_node_id", &ids).Error
	return ids, err
}

func (r *mappingRepo) CountByStatus(ctx context.Context, shopID int64) (map[model.MappingStatus]int64, error) {
	type row struct {
		Status model.MappingStatus
		Cnt    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.CategoryMapping{}).
		Select("status, count(*) as cnt").
		Where("shop_id = ?", shopID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.MappingStatus]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.Cnt
	}
	return out, nil
}
