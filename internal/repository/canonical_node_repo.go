package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shophub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// CanonicalNodeRepository 权威分类节点仓储接口
type CanonicalNodeRepository interface {
	GetByID(ctx context.Context, id int64) (*model.CanonicalCategoryNode, error)
	GetByGuid(ctx context.Context, guid string) (*model.CanonicalCategoryNode, error)
	GetByGuids(ctx context.Context, guids []string) ([]model.CanonicalCategoryNode, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.CanonicalCategoryNode, error)
	ListAll(ctx context.Context, masterShopID int64) ([]model.CanonicalCategoryNode, error)

	// Upsert 按 guid 插入或更新
	Upsert(ctx context.Context, node *model.CanonicalCategoryNode) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	Count(ctx context.Context, masterShopID int64) (int64, error)
}

// ==================== 仓储实现 ====================

type canonicalNodeRepo struct {
	db *gorm.DB
}

// NewCanonicalNodeRepository 创建权威分类节点仓储
func NewCanonicalNodeRepository(db *gorm.DB) CanonicalNodeRepository {
	return &canonicalNodeRepo{db: db}
}

func (r *canonicalNodeRepo) GetByID(ctx context.Context, id int64) (*model.CanonicalCategoryNode, error) {
	var node model.CanonicalCategoryNode
	if err := r.db.WithContext(ctx).First(&node, id).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *canonicalNodeRepo) GetByGuid(ctx context.Context, guid string) (*model.CanonicalCategoryNode, error) {
	var node model.CanonicalCategoryNode
	if err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *canonicalNodeRepo) GetByGuids(ctx context.Context, guids []string) ([]model.CanonicalCategoryNode, error) {
	var nodes []model.CanonicalCategoryNode
	if len(guids) == 0 {
		return nodes, nil
	}
	err := r.db.WithContext(ctx).Where("guid IN ?", guids).Find(&nodes).Error
	return nodes, err
}

func (r *canonicalNodeRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.CanonicalCategoryNode, error) {
	var nodes []model.CanonicalCategoryNode
	if len(ids) == 0 {
		return nodes, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&nodes).Error
	return nodes, err
}

func (r *canonicalNodeRepo) ListAll(ctx context.Context, masterShopID int64) ([]model.CanonicalCategoryNode, error) {
	var nodes []model.CanonicalCategoryNode
	err := r.db.WithContext(ctx).
		Where("master_shop_id = ?", masterShopID).
		Order("id ASC").
		Find(&nodes).Error
	return nodes, err
}

func (r *canonicalNodeRepo) Upsert(ctx context.Context, node *model.CanonicalCategoryNode) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"parent_id", "parent_guid", "name", "slug", "position", "raw_payload", "updated_at",
		}),
	}).Create(node).Error
}

func (r *canonicalNodeRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.CanonicalCategoryNode{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *canonicalNodeRepo) Count(ctx context.Context, masterShopID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.CanonicalCategoryNode{}).
		Where("master_shop_id = ?", masterShopID).
		Count(&total).Error
	return total, err
}
