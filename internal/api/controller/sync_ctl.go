package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/middleware"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/service"
)

// ==================== SyncController 同步控制器 ====================

// SyncController 分类树同步接口
type SyncController struct {
	treeSyncService *service.TreeSyncService
	shopService     *service.ShopService
	snapshots       service.SnapshotProvider
	logger          *zap.SugaredLogger
}

// NewSyncController 创建同步控制器
func NewSyncController(
	treeSyncService *service.TreeSyncService,
	shopService *service.ShopService,
	snapshots service.SnapshotProvider,
	logger *zap.SugaredLogger,
) *SyncController {
	return &SyncController{
		treeSyncService: treeSyncService,
		shopService:     shopService,
		snapshots:       snapshots,
		logger:          logger,
	}
}

// resolvePayload 决定本次同步吃哪份载荷
// 优先级：归档 key > 请求内联载荷 > 现场拉分站 API
// 内联和现场拉的载荷都会尽力归档一份，归档失败不阻塞同步
func (c *SyncController) resolvePayload(ctx context.Context, shop *model.Shop, req *dto.SyncReq) (interface{}, error) {
	if req.SnapshotKey != "" {
		raw, err := c.snapshots.Load(ctx, req.SnapshotKey)
		if err != nil {
			return nil, fmt.Errorf("读取归档载荷失败: %w", err)
		}
		var payload interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("归档载荷不是合法 JSON: %w", err)
		}
		return payload, nil
	}

	if req.Payload != nil {
		if raw, err := json.Marshal(req.Payload); err == nil {
			if key, err := c.snapshots.Save(ctx, shop.Code, raw); err != nil {
				c.logger.Warnw("载荷归档失败", "shop_id", shop.ID, "err", err)
			} else {
				c.logger.Debugw("载荷已归档", "shop_id", shop.ID, "key", key)
			}
		}
		return req.Payload, nil
	}

	if shop.ApiBaseURL == "" {
		return nil, fmt.Errorf("请求未携带载荷且店铺未配置 API 地址")
	}
	raw, err := c.shopService.ApiClient(shop).FetchCategoryTree(ctx)
	if err != nil {
		return nil, err
	}
	if key, err := c.snapshots.Save(ctx, shop.Code, raw); err != nil {
		c.logger.Warnw("载荷归档失败", "shop_id", shop.ID, "err", err)
	} else {
		c.logger.Debugw("载荷已归档", "shop_id", shop.ID, "key", key)
	}
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("分站载荷不是合法 JSON: %w", err)
	}
	return payload, nil
}

// SyncMaster 同步权威分类树
// @Summary 同步主站权威分类树
// @Tags Sync
// @Accept json
// @Param request body dto.SyncReq true "载荷或归档 key，都不传则现场拉主站 API"
// @Success 200 {object} dto.SyncResp
// @Failure 409 {object} map[string]interface{} "主站未配置"
// @Router /api/sync/master [post]
func (c *SyncController) SyncMaster(ctx *gin.Context) {
	var req dto.SyncReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	master, err := c.shopService.GetMasterShop(ctx.Request.Context())
	if err != nil {
		respondErr(ctx, err)
		return
	}

	payload, err := c.resolvePayload(ctx.Request.Context(), master, &req)
	if err != nil {
		respondErr(ctx, err)
		return
	}

	resp, err := c.treeSyncService.SyncMaster(ctx.Request.Context(), payload)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, resp)
}

// SyncShop 同步单个分站分类树
// @Summary 同步分站分类树并跑自动匹配
// @Tags Sync
// @Accept json
// @Param id path int true "店铺 ID"
// @Param request body dto.SyncReq true "载荷或归档 key，都不传则现场拉分站 API"
// @Success 200 {object} dto.SyncResp
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/sync/shops/{id} [post]
func (c *SyncController) SyncShop(ctx *gin.Context) {
	shopID := parseID(ctx, "id")
	if shopID == 0 {
		return
	}
	var req dto.SyncReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	shop, err := c.shopService.GetShop(ctx.Request.Context(), shopID)
	if err != nil {
		respondErr(ctx, err)
		return
	}

	payload, err := c.resolvePayload(ctx.Request.Context(), shop, &req)
	if err != nil {
		respondErr(ctx, err)
		return
	}

	resp, err := c.treeSyncService.Sync(ctx.Request.Context(), shopID, payload)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, resp)
}

// DeleteSubtree 管理员删除分站分类子树
// @Summary 删除分站分类节点及其全部后代
// @Tags Category
// @Param shop_id path int true "店铺 ID"
// @Param id path int true "节点 ID"
// @Success 200 {object} dto.CategoryDeleteResp
// @Router /api/categories/shops/{shop_id}/nodes/{id} [delete]
func (c *SyncController) DeleteSubtree(ctx *gin.Context) {
	shopID := parseID(ctx, "shop_id")
	if shopID == 0 {
		return
	}
	nodeID := parseID(ctx, "id")
	if nodeID == 0 {
		return
	}

	deleted, err := c.treeSyncService.DeleteShopSubtree(ctx.Request.Context(), shopID, nodeID)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, dto.CategoryDeleteResp{Deleted: deleted})
}

// 冷却状态查询覆盖的同步类型
var cooldownSyncTypes = []middleware.SyncType{
	middleware.SyncTypeTree,
	middleware.SyncTypeCatalog,
	middleware.SyncTypeSuggestion,
}

// CooldownStatus 查询店铺各同步类型的冷却状态
// @Summary 同步冷却状态
// @Tags Sync
// @Param id path int true "店铺 ID"
// @Success 200 {object} dto.SyncCooldownResp
// @Router /api/sync/shops/{id}/cooldown [get]
func (c *SyncController) CooldownStatus(ctx *gin.Context) {
	shopID := parseID(ctx, "id")
	if shopID == 0 {
		return
	}
	if _, err := c.shopService.GetShop(ctx.Request.Context(), shopID); err != nil {
		respondErr(ctx, err)
		return
	}

	resp := dto.SyncCooldownResp{ShopID: shopID}
	for _, st := range cooldownSyncTypes {
		allowed, retryAfter := middleware.CheckSyncAllowed(shopID, st)
		item := dto.SyncCooldownItem{SyncType: string(st), Allowed: allowed}
		if !allowed {
			item.RetryAfter = int(retryAfter.Seconds())
			if item.RetryAfter < 1 {
				item.RetryAfter = 1
			}
		}
		resp.Items = append(resp.Items, item)
	}
	ok(ctx, resp)
}

// ResetCooldown 管理员清掉店铺的同步冷却
// @Summary 重置同步冷却
// @Tags Sync
// @Param id path int true "店铺 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/sync/shops/{id}/cooldown [delete]
func (c *SyncController) ResetCooldown(ctx *gin.Context) {
	shopID := parseID(ctx, "id")
	if shopID == 0 {
		return
	}
	if _, err := c.shopService.GetShop(ctx.Request.Context(), shopID); err != nil {
		respondErr(ctx, err)
		return
	}

	for _, st := range cooldownSyncTypes {
		middleware.ResetSyncLimit(shopID, st)
	}
	c.logger.Infow("同步冷却已重置", "shop_id", shopID)
	ok(ctx, gin.H{"shop_id": shopID})
}
