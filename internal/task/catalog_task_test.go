package task

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/internal/service"
	"shophub_v1_202608/pkg/logger"
)

// ==================== 测试辅助 ====================

func setupTaskTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	err = db.AutoMigrate(
		&model.Shop{},
		&model.CanonicalCategoryNode{},
		&model.ShopCategoryNode{},
		&model.CategoryMapping{},
		&model.Product{},
		&model.ShopProductOverlay{},
	)
	if err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	return db
}

func newTestTaskDeps(t *testing.T, db *gorm.DB, snapshotBase string) *TaskManagerDeps {
	t.Helper()
	shopRepo := repository.NewShopRepository(db)
	shopSvc := service.NewShopService(shopRepo, logger.NewNop())
	mappingSvc := service.NewMappingService(
		repository.NewMappingRepository(db),
		repository.NewCanonicalNodeRepository(db),
		repository.NewShopNodeRepository(db),
		shopRepo,
		logger.NewNop(),
	)
	treeSvc := service.NewTreeSyncService(
		shopRepo,
		repository.NewCanonicalNodeRepository(db),
		repository.NewShopNodeRepository(db),
		mappingSvc,
		service.NewMatchingEngine(),
		logger.NewNop(),
	)
	catalogSvc := service.NewCatalogService(
		shopRepo,
		repository.NewProductRepository(db),
		shopSvc,
		logger.NewNop(),
	)
	snapshots, err := service.NewSnapshotProvider(&service.SnapshotConfig{
		Provider: "local",
		BasePath: snapshotBase,
	})
	if err != nil {
		t.Fatalf("创建归档存储失败: %v", err)
	}
	return &TaskManagerDeps{
		ShopRepo:        shopRepo,
		ShopService:     shopSvc,
		TreeSyncService: treeSvc,
		CatalogService:  catalogSvc,
		Snapshots:       snapshots,
	}
}

func newTestCatalogTask(t *testing.T, db *gorm.DB) *CatalogSyncTask {
	deps := newTestTaskDeps(t, db, t.TempDir())
	return NewCatalogSyncTask(deps.ShopRepo, deps.ShopService, deps.TreeSyncService, deps.CatalogService, deps.Snapshots, "", logger.NewNop())
}

// shopFixtureServer 模拟一个分站 API：分类树 + 商品分页
func shopFixtureServer(t *testing.T, tree interface{}, products []map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/categories/tree":
			if err := json.NewEncoder(w).Encode(tree); err != nil {
				t.Errorf("写分类树响应失败: %v", err)
			}
		case "/api/v1/products":
			items := make([]json.RawMessage, 0, len(products))
			for _, p := range products {
				raw, err := json.Marshal(p)
				if err != nil {
					t.Errorf("序列化商品失败: %v", err)
				}
				items = append(items, raw)
			}
			resp := map[string]interface{}{
				"items":      items,
				"total":      len(items),
				"page":       1,
				"totalPages": 1,
			}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				t.Errorf("写商品响应失败: %v", err)
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

// ==================== RunFull ====================

func TestCatalogSyncTask_RunFull_EndToEnd(t *testing.T) {
	db := setupTaskTestDB(t)

	masterSrv := shopFixtureServer(t,
		[]map[string]interface{}{
			{"guid": "c-home", "name": "Home", "friendlyUrl": "home"},
			{"guid": "c-decor", "name": "Decor", "friendlyUrl": "decor", "parentGuid": "c-home"},
		},
		[]map[string]interface{}{
			{"guid": "p-1", "title": "Vase", "sku": "V-1", "defaultCategoryGuid": "c-decor"},
		},
	)
	defer masterSrv.Close()

	shopSrv := shopFixtureServer(t,
		[]map[string]interface{}{
			{"guid": "s-home", "name": "Domov", "friendlyUrl": "home"},
		},
		[]map[string]interface{}{
			{"guid": "p-1", "title": "Váza", "defaultCategoryGuid": "s-home"},
		},
	)
	defer shopSrv.Close()

	master := model.Shop{Name: "主站", Code: "cz-main", IsMaster: true, ApiBaseURL: masterSrv.URL}
	storefront := model.Shop{Name: "SK 分站", Code: "sk-shop", ApiBaseURL: shopSrv.URL}
	if err := db.Create(&master).Error; err != nil {
		t.Fatalf("写入主站失败: %v", err)
	}
	if err := db.Create(&storefront).Error; err != nil {
		t.Fatalf("写入分站失败: %v", err)
	}

	task := newTestCatalogTask(t, db)
	task.RunFull(context.Background())

	var canonicalCount, shopNodeCount, productCount, overlayCount int64
	db.Model(&model.CanonicalCategoryNode{}).Count(&canonicalCount)
	db.Model(&model.ShopCategoryNode{}).Count(&shopNodeCount)
	db.Model(&model.Product{}).Count(&productCount)
	db.Model(&model.ShopProductOverlay{}).Count(&overlayCount)

	if canonicalCount != 2 {
		t.Errorf("权威分类节点数 = %d, want 2", canonicalCount)
	}
	if shopNodeCount != 1 {
		t.Errorf("分站分类节点数 = %d, want 1", shopNodeCount)
	}
	if productCount != 1 {
		t.Errorf("主站商品数 = %d, want 1", productCount)
	}
	if overlayCount != 1 {
		t.Errorf("分站快照数 = %d, want 1", overlayCount)
	}

	// 分站节点 friendlyUrl 与权威树同槽位一致，自动匹配应产出映射
	var mappingCount int64
	db.Model(&model.CategoryMapping{}).Where("shop_id = ?", storefront.ID).Count(&mappingCount)
	if mappingCount != 1 {
		t.Errorf("自动匹配映射数 = %d, want 1", mappingCount)
	}

	// 两个店铺的分类树载荷都应落了归档
	var refreshed model.Shop
	if err := db.First(&refreshed, master.ID).Error; err != nil {
		t.Fatalf("查询主站失败: %v", err)
	}
	if refreshed.CategorySyncedAt == nil {
		t.Errorf("主站 CategorySyncedAt 未更新")
	}
}

func TestCatalogSyncTask_RunFull_ArchivesPayloads(t *testing.T) {
	db := setupTaskTestDB(t)

	srv := shopFixtureServer(t,
		[]map[string]interface{}{{"guid": "c-root", "name": "Root"}},
		nil,
	)
	defer srv.Close()

	master := model.Shop{Name: "主站", Code: "cz-main", IsMaster: true, ApiBaseURL: srv.URL}
	if err := db.Create(&master).Error; err != nil {
		t.Fatalf("写入主站失败: %v", err)
	}

	base := t.TempDir()
	deps := newTestTaskDeps(t, db, base)
	task := NewCatalogSyncTask(deps.ShopRepo, deps.ShopService, deps.TreeSyncService, deps.CatalogService, deps.Snapshots, "", logger.NewNop())
	task.RunFull(context.Background())

	var files []string
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("遍历归档目录失败: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("归档文件数 = %d, want 1", len(files))
	}
	if !strings.Contains(files[0], string(os.PathSeparator)+"cz-main"+string(os.PathSeparator)) {
		t.Errorf("归档路径 %q 不含店铺编码目录", files[0])
	}
}

func TestCatalogSyncTask_RunFull_NoMaster(t *testing.T) {
	db := setupTaskTestDB(t)
	task := newTestCatalogTask(t, db)

	// 没有配置主站也没有分站，整轮应平静收场
	task.RunFull(context.Background())

	var productCount, nodeCount int64
	db.Model(&model.Product{}).Count(&productCount)
	db.Model(&model.CanonicalCategoryNode{}).Count(&nodeCount)
	if productCount != 0 || nodeCount != 0 {
		t.Errorf("空库全量同步不应写入数据: products=%d, nodes=%d", productCount, nodeCount)
	}
}

func TestCatalogSyncTask_RunFull_NotReentrant(t *testing.T) {
	db := setupTaskTestDB(t)

	srv := shopFixtureServer(t,
		[]map[string]interface{}{{"guid": "c-root", "name": "Root"}},
		nil,
	)
	defer srv.Close()

	master := model.Shop{Name: "主站", Code: "cz-main", IsMaster: true, ApiBaseURL: srv.URL}
	if err := db.Create(&master).Error; err != nil {
		t.Fatalf("写入主站失败: %v", err)
	}

	task := newTestCatalogTask(t, db)

	// 占住并发令牌，模拟上一轮未结束
	task.running <- struct{}{}
	task.RunFull(context.Background())

	var nodeCount int64
	db.Model(&model.CanonicalCategoryNode{}).Count(&nodeCount)
	if nodeCount != 0 {
		t.Errorf("重入的一轮不应执行同步: nodes=%d", nodeCount)
	}

	<-task.running
	task.RunFull(context.Background())
	db.Model(&model.CanonicalCategoryNode{}).Count(&nodeCount)
	if nodeCount != 1 {
		t.Errorf("令牌释放后应正常同步: nodes=%d, want 1", nodeCount)
	}
}

// ==================== TaskManager ====================

func TestTaskManager_Disabled(t *testing.T) {
	tm := NewTaskManager(nil, &TaskManagerConfig{Enabled: false}, logger.NewNop())
	if tm.catalogTask != nil {
		t.Fatalf("未启用时不应创建目录同步任务")
	}

	// 全部应是安静的空操作
	tm.Start()
	tm.TriggerFullSync()
	tm.Stop()
}

func TestTaskManager_Enabled(t *testing.T) {
	db := setupTaskTestDB(t)
	deps := newTestTaskDeps(t, db, t.TempDir())

	tm := NewTaskManager(deps, &TaskManagerConfig{Enabled: true, CatalogCron: "0 30 3 * * *"}, logger.NewNop())
	if tm.catalogTask == nil {
		t.Fatalf("启用后应创建目录同步任务")
	}
	if tm.catalogTask.spec != "0 30 3 * * *" {
		t.Errorf("cron 表达式 = %q, want %q", tm.catalogTask.spec, "0 30 3 * * *")
	}

	tm.Start()
	tm.Stop()
}
