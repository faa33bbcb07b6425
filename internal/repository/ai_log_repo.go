package repository

import (
	"context"

	"gorm.io/gorm"

	"shophub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// AICallLogRepository AI 调用日志仓储接口
type AICallLogRepository interface {
	Create(ctx context.Context, log *model.AICallLog) error
	GetByID(ctx context.Context, id int64) (*model.AICallLog, error)
	ListByShop(ctx context.Context, shopID int64, page, pageSize int) ([]model.AICallLog, int64, error)
	ListByRunID(ctx context.Context, runID string) ([]model.AICallLog, error)
	SumCostStats(ctx context.Context, shopID int64) (inputTokens, outputTokens int64, err error)
}

// ==================== 仓储实现 ====================

type aiCallLogRepo struct {
	db *gorm.DB
}

// NewAICallLogRepository 创建 AI 调用日志仓储
func NewAICallLogRepository(db *gorm.DB) AICallLogRepository {
	return &aiCallLogRepo{db: db}
}

func (r *aiCallLogRepo) Create(ctx context.Context, log *model.AICallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *aiCallLogRepo) GetByID(ctx context.Context, id int64) (*model.AICallLog, error) {
	var log model.AICallLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *aiCallLogRepo) ListByShop(ctx context.Context, shopID int64, page, pageSize int) ([]model.AICallLog, int64, error) {
	var logs []model.AICallLog
	var total int64

	query := r.db.WithContext(ctx).Model(&model.AICallLog{}).Where("shop_id = ?", shopID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}

func (r *aiCallLogRepo) ListByRunID(ctx context.Context, runID string) ([]model.AICallLog, error) {
	var logs []model.AICallLog
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id ASC").Find(&logs).Error
	return logs, err
}

func (r *aiCallLogRepo) SumCostStats(ctx context.Context, shopID int64) (int64, int64, error) {
	type sums struct {
		InputSum  int64
		OutputSum int64
	}
	var s sums
	err := r.db.WithContext(ctx).
		Model(&model.AICallLog{}).
		Select("COALESCE(SUM(input_tokens),0) as input_sum, COALESCE(SUM(output_tokens),0) as output_sum").
		Where("shop_id = ?", shopID).
		Scan(&s).Error
	return s.InputSum, s.OutputSum, err
}
