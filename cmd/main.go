package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shophub_v1_202608/docs"
	"shophub_v1_202608/internal/api/controller"
	"shophub_v1_202608/internal/config"
	"shophub_v1_202608/internal/middleware"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/internal/router"
	"shophub_v1_202608/internal/service"
	"shophub_v1_202608/internal/task"
	"shophub_v1_202608/pkg/database"
	"shophub_v1_202608/pkg/logger"
)

// @title ShopHub Category Mapping API
// @version 1.0
// @description 跨店铺分类映射与同步服务
func main() {
	// 1. 配置与日志
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	sugar, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		Issuer:          cfg.JWT.Issuer,
	})

	// 2. 数据库
	db := initDatabase(cfg, sugar)

	// 3. 依赖装配
	deps := initDependencies(cfg, db, sugar)

	// 4. 启动后台任务
	deps.TaskManager.Start()
	defer deps.TaskManager.Stop()

	// 5. 兜底管理员
	if err := deps.Services.User.EnsureAdmin(context.Background(), cfg.Admin.Username, cfg.Admin.Password); err != nil {
		sugar.Warnw("创建兜底管理员失败", "err", err)
	}

	// 6. 路由与启动
	if cfg.Server.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router.InitRoutes(r,
		deps.Controllers.User,
		deps.Controllers.Shop,
		deps.Controllers.Sync,
		deps.Controllers.Mapping,
		deps.Controllers.Suggestion,
		deps.Controllers.Report,
		deps.TaskManager,
	)
	startServer(r, cfg, sugar)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Repos       *Repositories
	Services    *Services
	Controllers *Controllers
	TaskManager *task.TaskManager
}

// Repositories 仓库集合
type Repositories struct {
	Shop          repository.ShopRepository
	CanonicalNode repository.CanonicalNodeRepository
	ShopNode      repository.ShopNodeRepository
	Mapping       repository.MappingRepository
	Product       repository.ProductRepository
	AiCallLog     repository.AICallLogRepository
	User          repository.UserRepository
}

// Services 服务集合
type Services struct {
	Shop          *service.ShopService
	Mapping       *service.MappingService
	TreeSync      *service.TreeSyncService
	Suggestion    *service.SuggestionService
	Catalog       *service.CatalogService
	CategoryCheck *service.CategoryCheckService
	User          *service.UserService
	AI            *service.AIService
	Snapshots     service.SnapshotProvider
}

// Controllers 控制器集合
type Controllers struct {
	User       *controller.UserController
	Shop       *controller.ShopController
	Sync       *controller.SyncController
	Mapping    *controller.MappingController
	Suggestion *controller.SuggestionController
	Report     *controller.ReportController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库并迁移
func initDatabase(cfg *config.Config, sugar *zap.SugaredLogger) *gorm.DB {
	dsn := database.BuildDSN(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Name,
		cfg.Database.User, cfg.Database.Password, cfg.Database.SSLMode,
	)
	db, err := database.Open(dsn, cfg.Server.Mode,
		// Manager
		&model.SysUser{},
		// Shop
		&model.Shop{},
		// Category
		&model.CanonicalCategoryNode{}, &model.ShopCategoryNode{}, &model.CategoryMapping{},
		// Product
		&model.Product{}, &model.ShopProductOverlay{},
		// Audit
		&model.AICallLog{},
	)
	if err != nil {
		sugar.Fatalw("初始化数据库失败", "err", err)
	}
	return db
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, sugar *zap.SugaredLogger) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Shop:          repository.NewShopRepository(db),
		CanonicalNode: repository.NewCanonicalNodeRepository(db),
		ShopNode:      repository.NewShopNodeRepository(db),
		Mapping:       repository.NewMappingRepository(db),
		Product:       repository.NewProductRepository(db),
		AiCallLog:     repository.NewAICallLogRepository(db),
		User:          repository.NewUserRepository(db),
	}

	// -------- 存储 & AI --------
	snapshots, err := service.NewSnapshotProvider(&service.SnapshotConfig{
		Provider:  cfg.Snapshot.Provider,
		Bucket:    cfg.Snapshot.Bucket,
		Region:    cfg.Snapshot.Region,
		AccessKey: cfg.Snapshot.AccessKey,
		SecretKey: cfg.Snapshot.SecretKey,
		Endpoint:  cfg.Snapshot.Endpoint,
		BasePath:  cfg.Snapshot.BasePath,
	})
	if err != nil {
		sugar.Fatalw("初始化载荷归档存储失败", "err", err)
	}
	aiSvc := service.NewAIService(&service.AIConfig{
		ApiKey:  cfg.AI.ApiKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, sugar)

	// -------- 业务服务 --------
	services := &Services{AI: aiSvc, Snapshots: snapshots}
	services.Shop = service.NewShopService(repos.Shop, sugar)
	services.Mapping = service.NewMappingService(repos.Mapping, repos.CanonicalNode, repos.ShopNode, repos.Shop, sugar)
	services.TreeSync = service.NewTreeSyncService(
		repos.Shop, repos.CanonicalNode, repos.ShopNode,
		services.Mapping, service.NewMatchingEngine(), sugar,
	)
	services.Suggestion = service.NewSuggestionService(
		repos.Shop, repos.CanonicalNode, repos.ShopNode, repos.Mapping,
		services.Mapping, aiSvc, repos.AiCallLog, sugar,
	)
	services.Catalog = service.NewCatalogService(repos.Shop, repos.Product, services.Shop, sugar)
	services.CategoryCheck = service.NewCategoryCheckService(
		repos.Shop, repos.CanonicalNode, repos.ShopNode, repos.Product, repos.Mapping, sugar,
	)
	services.User = service.NewUserService(repos.User)

	// -------- 后台任务 --------
	taskManager := task.NewTaskManager(&task.TaskManagerDeps{
		ShopRepo:        repos.Shop,
		ShopService:     services.Shop,
		TreeSyncService: services.TreeSync,
		CatalogService:  services.Catalog,
		Snapshots:       snapshots,
	}, &task.TaskManagerConfig{
		Enabled:     cfg.Task.Enabled,
		CatalogCron: cfg.Task.CatalogCron,
	}, sugar)

	// -------- Controller 层 --------
	controllers := &Controllers{
		User:       controller.NewUserController(services.User),
		Shop:       controller.NewShopController(services.Shop),
		Sync:       controller.NewSyncController(services.TreeSync, services.Shop, snapshots, sugar),
		Mapping:    controller.NewMappingController(services.Mapping),
		Suggestion: controller.NewSuggestionController(services.Suggestion),
		Report:     controller.NewReportController(services.CategoryCheck),
	}

	return &Dependencies{
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		TaskManager: taskManager,
	}
}

// ==================== 服务启动 ====================

// startServer 启动 HTTP 服务并优雅退出
func startServer(r *gin.Engine, cfg *config.Config, sugar *zap.SugaredLogger) {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	go func() {
		sugar.Infow("服务启动", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("服务异常退出", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Infow("收到退出信号，开始优雅关闭")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("优雅关闭失败", "err", err)
	}
	sugar.Infow("服务已退出")
}
