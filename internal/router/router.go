package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"shophub_v1_202608/internal/api/controller"
	"shophub_v1_202608/internal/middleware"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/task"

	_ "shophub_v1_202608/docs"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	userCtl *controller.UserController,
	shopCtl *controller.ShopController,
	syncCtl *controller.SyncController,
	mappingCtl *controller.MappingController,
	suggestionCtl *controller.SuggestionController,
	reportCtl *controller.ReportController,
	taskManager *task.TaskManager) {
	// Swagger 文档
	// 访问 http://localhost:8080/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/login", userCtl.Login)
			auth.POST("/refresh", userCtl.RefreshToken)
		}

		// 以下全部需要登录
		authed := api.Group("")
		authed.Use(middleware.JWTAuth())

		// shop 店铺管理
		shops := authed.Group("/shops")
		{
			shops.GET("", shopCtl.List)
			shops.GET("/:id", shopCtl.Get)
			shops.POST("", middleware.RequireRole(model.UserRoleAdmin), shopCtl.Create)
			shops.PUT("/:id", middleware.RequireRole(model.UserRoleAdmin), shopCtl.Update)
			shops.DELETE("/:id", middleware.RequireRole(model.UserRoleAdmin), shopCtl.Delete)
			shops.POST("/:id/refresh", shopCtl.Refresh)
		}

		// sync 同步触发
		sync := authed.Group("/sync")
		{
			sync.POST("/master",
				middleware.GlobalSyncRateLimit(middleware.SyncTypeTree, 0),
				syncCtl.SyncMaster)
			sync.POST("/shops/:id",
				middleware.SyncRateLimit(middleware.SyncTypeTree, 0),
				syncCtl.SyncShop)
			sync.GET("/shops/:id/cooldown", syncCtl.CooldownStatus)
			sync.DELETE("/shops/:id/cooldown",
				middleware.RequireRole(model.UserRoleAdmin),
				syncCtl.ResetCooldown)
			// 全量夜间流程的手动入口
			sync.POST("/full",
				middleware.RequireRole(model.UserRoleAdmin),
				middleware.GlobalSyncRateLimit(middleware.SyncTypeCatalog, 0),
				func(ctx *gin.Context) {
					taskManager.TriggerFullSync()
					ctx.JSON(http.StatusOK, gin.H{"code": 0, "message": "全量同步已触发"})
				})
		}

		// category 分类树
		categories := authed.Group("/categories")
		{
			categories.GET("/tree", mappingCtl.Tree)
			categories.DELETE("/shops/:shop_id/nodes/:id",
				middleware.RequireRole(model.UserRoleAdmin),
				syncCtl.DeleteSubtree)
		}

		// mapping 映射
		mappings := authed.Group("/mappings")
		{
			mappings.GET("/resolve", mappingCtl.Resolve)
			mappings.PUT("/:id", mappingCtl.Update)
		}

		// suggestion AI 建议
		suggestions := authed.Group("/suggestions")
		{
			suggestions.POST("/shops/:shop_id/run",
				middleware.SyncRateLimit(middleware.SyncTypeSuggestion, 0),
				suggestionCtl.Run)
		}

		// report 报表
		reports := authed.Group("/reports")
		{
			reports.GET("/default-category", reportCtl.DefaultCategory)
		}
	}
}
