package controller

import (
	"github.com/gin-gonic/gin"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/service"
)

// ==================== ReportController 报表控制器 ====================

// ReportController 一致性报表接口
type ReportController struct {
	categoryCheckService *service.CategoryCheckService
}

// NewReportController 创建报表控制器
func NewReportController(categoryCheckService *service.CategoryCheckService) *ReportController {
	return &ReportController{categoryCheckService: categoryCheckService}
}

// DefaultCategory 商品默认分类一致性报告
// @Summary 默认分类一致性报告
// @Tags Report
// @Param shop_id query int true "目标店铺 ID"
// @Param reason query string false "按原因过滤"
// @Param page query int false "页码"
// @Param page_size query int false "页大小"
// @Success 200 {object} dto.CategoryCheckResp
// @Router /api/reports/default-category [get]
func (c *ReportController) DefaultCategory(ctx *gin.Context) {
	var req dto.CategoryCheckReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.categoryCheckService.Report(ctx.Request.Context(), &req)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, resp)
}
