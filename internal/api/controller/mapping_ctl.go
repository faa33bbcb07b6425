package controller

import (
	"github.com/gin-gonic/gin"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/service"
)

// ==================== MappingController 映射控制器 ====================

// MappingController 分类映射接口
type MappingController struct {
	mappingService *service.MappingService
}

// NewMappingController 创建映射控制器
func NewMappingController(mappingService *service.MappingService) *MappingController {
	return &MappingController{mappingService: mappingService}
}

// Resolve 批量解析权威 GUID 在某分站下的映射
// @Summary 批量解析映射
// @Tags Mapping
// @Param shop_id query int true "目标店铺 ID"
// @Param guids query []string true "权威分类 GUID 列表"
// @Success 200 {array} dto.ResolveItemResp
// @Router /api/mappings/resolve [get]
func (c *MappingController) Resolve(ctx *gin.Context) {
	var req dto.ResolveReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	items, err := c.mappingService.Resolve(ctx.Request.Context(), req.Guids, req.ShopID)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, items)
}

// Update 人工调整映射
// @Summary 人工调整映射（confirmed 具有粘性，applied=false 表示调整被既有决策否决）
// @Tags Mapping
// @Accept json
// @Param id path int true "映射行 ID"
// @Param request body dto.MappingUpdateReq true "调整内容"
// @Success 200 {object} dto.MappingUpdateResp
// @Router /api/mappings/{id} [put]
func (c *MappingController) Update(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}
	var req dto.MappingUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.mappingService.UpdateManual(ctx.Request.Context(), id, &req)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Tree 带映射状态标注的分类树
// @Summary 分类树（shop_id 指向主站时返回权威树，否则返回分站树）
// @Tags Category
// @Param shop_id query int true "店铺 ID"
// @Success 200 {array} dto.TreeNodeResp
// @Router /api/categories/tree [get]
func (c *MappingController) Tree(ctx *gin.Context) {
	var q struct {
		ShopID int64 `form:"shop_id" binding:"required"`
	}
	if err := ctx.ShouldBindQuery(&q); err != nil {
		badRequest(ctx, err)
		return
	}

	tree, err := c.mappingService.BuildTree(ctx.Request.Context(), q.ShopID)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, tree)
}
