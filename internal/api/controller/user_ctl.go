package controller

import (
	"github.com/gin-gonic/gin"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/service"
)

// ==================== UserController 用户控制器 ====================

// UserController 后台用户认证接口
type UserController struct {
	userService *service.UserService
}

// NewUserController 创建用户控制器
func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// Login 用户登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginReq true "登录信息"
// @Success 200 {object} dto.LoginResp
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (c *UserController) Login(ctx *gin.Context) {
	var req dto.LoginReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.userService.Login(ctx.Request.Context(), &req)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, resp)
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} dto.LoginResp
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (c *UserController) RefreshToken(ctx *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.userService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ok(ctx, resp)
}
