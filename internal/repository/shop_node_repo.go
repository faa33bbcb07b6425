package repository

import (
	"context"

	"gorm.io/gorm"

	"shophub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ShopNodeRepository 分站分类节点仓储接口
type ShopNodeRepository interface {
	Create(ctx context.Context, node *model.ShopCategoryNode) error
	GetByID(ctx context.Context, id int64) (*model.ShopCategoryNode, error)
	GetByRemoteGuid(ctx context.Context, shopID int64, remoteGuid string) (*model.ShopCategoryNode, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.ShopCategoryNode, error)
	Update(ctx context.Context, node *model.ShopCategoryNode) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 查询
	ListByShop(ctx context.Context, shopID int64) ([]model.ShopCategoryNode, error)
	ListByParent(ctx context.Context, shopID int64, parentID int64) ([]model.ShopCategoryNode, error)
	Count(ctx context.Context, shopID int64) (int64, error)

	// DeleteSubtree 管理员显式删除：按主键级联删除整棵子树（按 ID 级联，不按 GUID）
	DeleteSubtree(ctx context.Context, shopID int64, rootID int64) (int64, error)
}

// ==================== 仓储实现 ====================

type shopNodeRepo struct {
	db *gorm.DB
}

// NewShopNodeRepository 创建分站分类节点仓储
func NewShopNodeRepository(db *gorm.DB) ShopNodeRepository {
	return &shopNodeRepo{db: db}
}

func (r *shopNodeRepo) Create(ctx context.Context, node *model.ShopCategoryNode) error {
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *shopNodeRepo) GetByID(ctx context.Context, id int64) (*model.ShopCategoryNode, error) {
	var node model.ShopCategoryNode
	if err := r.db.WithContext(ctx).First(&node, id).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *shopNodeRepo) GetByRemoteGuid(ctx context.Context, shopID int64, remoteGuid string) (*model.ShopCategoryNode, error) {
	var node model.ShopCategoryNode
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND remote_guid = ?", shopID, remoteGuid).
		First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *shopNodeRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.ShopCategoryNode, error) {
	var nodes []model.ShopCategoryNode
	if len(ids) == 0 {
		return nodes, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&nodes).Error
	return nodes, err
}

func (r *shopNodeRepo) Update(ctx context.Context, node *model.ShopCategoryNode) error {
	return r.db.WithContext(ctx).Save(node).Error
}

func (r *shopNodeRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.ShopCategoryNode{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *shopNodeRepo) ListByShop(ctx context.Context, shopID int64) ([]model.ShopCategoryNode, error) {
	var nodes []model.ShopCategoryNode
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("id ASC").
		Find(&nodes).Error
	return nodes, err
}

func (r *shopNodeRepo) ListByParent(ctx context.Context, shopID int64, parentID int64) ([]model.ShopCategoryNode, error) {
	var nodes []model.ShopCategoryNode
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND parent_id = ?", shopID, parentID).
		Order("position ASC, id ASC").
		Find(&nodes).Error
	return nodes, err
}

func (r *shopNodeRepo) Count(ctx context.Context, shopID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ShopCategoryNode{}).
		Where("shop_id = ?", shopID).
		Count(&total).Error
	return total, err
}

func (r *shopNodeRepo) DeleteSubtree(ctx context.Context, shopID int64, rootID int64) (int64, error) {
	// 逐层收集子孙 ID，带跳数上限防环
	ids := []int64{rootID}
	frontier := []int64{rootID}
	for hop := 0; hop < model.MaxTreeHops && len(frontier) > 0; hop++ {
		var children []int64
		err := r.db.WithContext(ctx).
			Model(&model.ShopCategoryNode{}).
			Where("shop_id = ? AND parent_id IN ?", shopID, frontier).
			Pluck("id", &children).Error
		if err != nil {
			return 0, err
		}
		frontier = children
		ids = append(ids, children...)
	}

	res := r.db.WithContext(ctx).
		Where("shop_id = ? AND id IN ?", shopID, ids).
		Delete(&model.ShopCategoryNode{})
	return res.RowsAffected, res.Error
}
