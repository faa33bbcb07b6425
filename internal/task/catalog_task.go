package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shophub_v1_202608/internal/middleware"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/internal/service"
)

// ==================== CatalogSyncTask 目录同步任务 ====================

// CatalogSyncTask 夜间全量同步任务
// 流程：主站分类树 → 各分站分类树（含自动匹配）→ 主站商品目录 → 各分站商品快照
// 按店铺串行执行，单店失败只记日志不中断整轮
type CatalogSyncTask struct {
	shopRepo        repository.ShopRepository
	shopService     *service.ShopService
	treeSyncService *service.TreeSyncService
	catalogService  *service.CatalogService
	snapshots       service.SnapshotProvider
	cron            *cron.Cron
	spec            string
	logger          *zap.SugaredLogger

	running chan struct{} // 容量 1，保证全量轮不重入
}

// NewCatalogSyncTask 创建目录同步任务
func NewCatalogSyncTask(
	shopRepo repository.ShopRepository,
	shopService *service.ShopService,
	treeSyncService *service.TreeSyncService,
	catalogService *service.CatalogService,
	snapshots service.SnapshotProvider,
	spec string,
	logger *zap.SugaredLogger,
) *CatalogSyncTask {
	if spec == "" {
		spec = "0 30 3 * * *"
	}
	return &CatalogSyncTask{
		shopRepo:        shopRepo,
		shopService:     shopService,
		treeSyncService: treeSyncService,
		catalogService:  catalogService,
		snapshots:       snapshots,
		cron:            cron.New(cron.WithSeconds()),
		spec:            spec,
		logger:          logger,
		running:         make(chan struct{}, 1),
	}
}

// Start 启动定时任务
func (t *CatalogSyncTask) Start() {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		t.RunFull(ctx)
	})
	if err != nil {
		t.logger.Errorw("目录同步任务启动失败", "err", err)
		return
	}
	t.cron.Start()
	t.logger.Infow("目录同步任务已启动", "cron", t.spec)
}

// Stop 停止任务，等在途的一轮收尾
func (t *CatalogSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Infow("目录同步任务已停止")
}

// RunFull 跑一轮全量同步
func (t *CatalogSyncTask) RunFull(ctx context.Context) {
	select {
	case t.running <- struct{}{}:
		defer func() { <-t.running }()
	default:
		t.logger.Warnw("上一轮目录同步尚未结束，本轮跳过")
		return
	}

	start := time.Now()
	t.logger.Infow("目录全量同步开始")

	t.syncMasterTree(ctx)

	shops, err := t.shopRepo.ListStorefronts(ctx)
	if err != nil {
		t.logger.Errorw("获取分站列表失败", "err", err)
		return
	}
	for i := range shops {
		shop := &shops[i]
		t.syncShopTree(ctx, shop.ID, shop.Code)
		middleware.MarkSyncExecuted(shop.ID, middleware.SyncTypeTree)
	}

	if _, err := t.catalogService.SyncMasterProducts(ctx); err != nil {
		t.logger.Errorw("主站商品目录同步失败", "err", err)
	}
	for i := range shops {
		shop := &shops[i]
		if _, err := t.catalogService.SyncShopOverlays(ctx, shop.ID); err != nil {
			t.logger.Errorw("分站商品快照同步失败", "shop_id", shop.ID, "err", err)
		}
		middleware.MarkSyncExecuted(shop.ID, middleware.SyncTypeCatalog)
	}

	t.logger.Infow("目录全量同步结束", "elapsed", time.Since(start).String(), "shops", len(shops))
}

func (t *CatalogSyncTask) syncMasterTree(ctx context.Context) {
	master, err := t.shopService.GetMasterShop(ctx)
	if err != nil {
		t.logger.Warnw("主站分类树同步跳过", "err", err)
		return
	}
	payload, err := t.fetchTree(ctx, master.ID)
	if err != nil {
		t.logger.Errorw("拉取主站分类树失败", "err", err)
		return
	}
	if resp, err := t.treeSyncService.SyncMaster(ctx, payload); err != nil {
		t.logger.Errorw("主站分类树同步失败", "err", err)
	} else {
		t.logger.Infow("主站分类树同步完成", "categories", resp.Categories)
	}
}

func (t *CatalogSyncTask) syncShopTree(ctx context.Context, shopID int64, shopCode string) {
	payload, err := t.fetchTree(ctx, shopID)
	if err != nil {
		t.logger.Errorw("拉取分站分类树失败", "shop_id", shopID, "err", err)
		return
	}
	if resp, err := t.treeSyncService.Sync(ctx, shopID, payload); err != nil {
		t.logger.Errorw("分站分类树同步失败", "shop_id", shopID, "err", err)
	} else {
		t.logger.Infow("分站分类树同步完成", "shop_id", shopID, "shop_code", shopCode, "nodes", resp.ShopNodes)
	}
}

// fetchTree 拉分类树载荷并归档一份
func (t *CatalogSyncTask) fetchTree(ctx context.Context, shopID int64) (interface{}, error) {
	shop, err := t.shopService.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	raw, err := t.shopService.ApiClient(shop).FetchCategoryTree(ctx)
	if err != nil {
		return nil, err
	}
	if key, err := t.snapshots.Save(ctx, shop.Code, raw); err != nil {
		t.logger.Warnw("载荷归档失败", "shop_id", shopID, "err", err)
	} else {
		t.logger.Debugw("载荷已归档", "shop_id", shopID, "key", key)
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
