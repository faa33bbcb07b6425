package controller

import (
	"github.com/gin-gonic/gin"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/internal/service"
)

// ==================== ShopController 店铺控制器 ====================

// ShopController 店铺档案接口
type ShopController struct {
	shopService *service.ShopService
}

// NewShopController 创建店铺控制器
func NewShopController(shopService *service.ShopService) *ShopController {
	return &ShopController{shopService: shopService}
}

func toShopResp(shop *model.Shop) dto.ShopResp {
	return dto.ShopResp{
		ID:           shop.ID,
		Name:         shop.Name,
		Code:         shop.Code,
		IsMaster:     shop.IsMaster,
		Locale:       shop.Locale,
		CurrencyCode: shop.CurrencyCode,
		Status:       shop.Status,
	}
}

// List 店铺列表
// @Summary 店铺列表
// @Tags Shop
// @Param name query string false "名称模糊匹配"
// @Param page query int false "页码"
// @Param page_size query int false "页大小"
// @Success 200 {object} dto.ShopListResp
// @Router /api/shops [get]
func (c *ShopController) List(ctx *gin.Context) {
	var q struct {
		Name     string `form:"name"`
		Page     int    `form:"page,default=1"`
		PageSize int    `form:"page_size,default=20"`
	}
	if err := ctx.ShouldBindQuery(&q); err != nil {
		badRequest(ctx, err)
		return
	}

	shops, total, err := c.shopService.ListShops(ctx.Request.Context(), repository.ShopFilter{
		Name:     q.Name,
		Status:   -1,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		respondErr(ctx, err)
		return
	}

	resp := dto.ShopListResp{Items: make([]dto.ShopResp, 0, len(shops)), Total: total}
	for i := range shops {
		resp.Items = append(resp.Items, toShopResp(&shops[i]))
	}
	ok(ctx, resp)
}

// Get 店铺详情
// @Summary 店铺详情
// @Tags Shop
// @Param id path int true "店铺 ID"
// @Success 200 {object} dto.ShopResp
// @Router /api/shops/{id} [get]
func (c *ShopController) Get(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}
	shop, err := c.shopService.GetShop(ctx.Request.Context(), id)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, toShopResp(shop))
}

// Create 新建店铺
// @Summary 新建店铺
// @Tags Shop
// @Accept json
// @Param request body dto.ShopCreateReq true "店铺信息"
// @Success 200 {object} dto.ShopResp
// @Router /api/shops [post]
func (c *ShopController) Create(ctx *gin.Context) {
	var req dto.ShopCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	shop := &model.Shop{
		Name:         req.Name,
		Code:         req.Code,
		IsMaster:     req.IsMaster,
		ApiBaseURL:   req.ApiBaseURL,
		ApiKey:       req.ApiKey,
		Locale:       req.Locale,
		CurrencyCode: req.CurrencyCode,
	}
	if err := c.shopService.CreateShop(ctx.Request.Context(), shop); err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, toShopResp(shop))
}

// Update 更新店铺
// @Summary 更新店铺
// @Tags Shop
// @Accept json
// @Param id path int true "店铺 ID"
// @Param request body dto.ShopUpdateReq true "变更字段"
// @Success 200 {object} map[string]interface{}
// @Router /api/shops/{id} [put]
func (c *ShopController) Update(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}
	var req dto.ShopUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.ApiBaseURL != nil {
		fields["api_base_url"] = *req.ApiBaseURL
	}
	if req.ApiKey != nil {
		fields["api_key"] = *req.ApiKey
	}
	if req.Locale != nil {
		fields["locale"] = *req.Locale
	}
	if req.CurrencyCode != nil {
		fields["currency_code"] = *req.CurrencyCode
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		ok(ctx, gin.H{"updated": false})
		return
	}

	if err := c.shopService.UpdateShop(ctx.Request.Context(), id, fields); err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, gin.H{"updated": true})
}

// Delete 删除店铺
// @Summary 删除店铺
// @Tags Shop
// @Param id path int true "店铺 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/shops/{id} [delete]
func (c *ShopController) Delete(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}
	if err := c.shopService.DeleteShop(ctx.Request.Context(), id); err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, gin.H{"deleted": true})
}

// Refresh 从分站回拉店铺信息
// @Summary 从分站 API 同步店铺基础信息
// @Tags Shop
// @Param id path int true "店铺 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/shops/{id}/refresh [post]
func (c *ShopController) Refresh(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}
	if err := c.shopService.RefreshShopInfo(ctx.Request.Context(), id); err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, gin.H{"refreshed": true})
}
