package controller

import (
	"github.com/gin-gonic/gin"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/service"
)

// ==================== SuggestionController 建议控制器 ====================

// SuggestionController AI 映射建议接口
type SuggestionController struct {
	suggestionService *service.SuggestionService
}

// NewSuggestionController 创建建议控制器
func NewSuggestionController(suggestionService *service.SuggestionService) *SuggestionController {
	return &SuggestionController{suggestionService: suggestionService}
}

// Run 对单个分站跑一批 AI 映射建议
// @Summary 触发 AI 映射建议批次
// @Tags Suggestion
// @Accept json
// @Param shop_id path int true "店铺 ID"
// @Param request body dto.SuggestionRunReq false "批次参数"
// @Success 200 {object} dto.SuggestionRunResp
// @Failure 502 {object} map[string]interface{} "AI 调用失败，本批未落库"
// @Router /api/suggestions/shops/{shop_id}/run [post]
func (c *SuggestionController) Run(ctx *gin.Context) {
	shopID := parseID(ctx, "shop_id")
	if shopID == 0 {
		return
	}
	var req dto.SuggestionRunReq
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		badRequest(ctx, err)
		return
	}

	resp, err := c.suggestionService.RunSuggestions(ctx.Request.Context(), shopID, req.IncludeMapped)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, resp)
}
