package task

import (
	"context"

	"go.uber.org/zap"

	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/internal/service"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台同步任务
type TaskManager struct {
	catalogTask *CatalogSyncTask
	logger      *zap.SugaredLogger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	ShopRepo        repository.ShopRepository
	ShopService     *service.ShopService
	TreeSyncService *service.TreeSyncService
	CatalogService  *service.CatalogService
	Snapshots       service.SnapshotProvider
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	Enabled     bool
	CatalogCron string // 六段 cron 表达式
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig, logger *zap.SugaredLogger) *TaskManager {
	tm := &TaskManager{logger: logger}
	if cfg != nil && cfg.Enabled {
		tm.catalogTask = NewCatalogSyncTask(
			deps.ShopRepo,
			deps.ShopService,
			deps.TreeSyncService,
			deps.CatalogService,
			deps.Snapshots,
			cfg.CatalogCron,
			logger,
		)
	}
	return tm
}

// Start 启动所有任务
func (tm *TaskManager) Start() {
	if tm.catalogTask != nil {
		tm.catalogTask.Start()
	}
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.catalogTask != nil {
		tm.catalogTask.Stop()
	}
}

// TriggerFullSync 手动触发一轮全量目录同步（异步）
func (tm *TaskManager) TriggerFullSync() {
	if tm.catalogTask == nil {
		tm.logger.Warnw("目录同步任务未启用，忽略手动触发")
		return
	}
	go tm.catalogTask.RunFull(context.Background())
}
