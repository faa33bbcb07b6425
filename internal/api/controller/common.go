package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shophub_v1_202608/internal/service"
)

// parseID 从路径参数取 ID，非法时直接写 400 并返回 0
func parseID(ctx *gin.Context, name string) int64 {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 " + name})
		return 0
	}
	return id
}

// respondErr 把 service 层错误翻译成 HTTP 状态码
func respondErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrMappingNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"code": 404, "message": err.Error()})
	case errors.Is(err, service.ErrMasterShopNotConfigured),
		errors.Is(err, service.ErrShopCodeExists),
		errors.Is(err, service.ErrMasterAlreadyExists),
		errors.Is(err, service.ErrMasterShopProtected):
		ctx.JSON(http.StatusConflict, gin.H{"code": 409, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		ctx.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": err.Error()})
	case errors.Is(err, service.ErrUserDisabled):
		ctx.JSON(http.StatusForbidden, gin.H{"code": 403, "message": err.Error()})
	case errors.Is(err, service.ErrAISuggestFailed):
		ctx.JSON(http.StatusBadGateway, gin.H{"code": 502, "message": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
	}
}

// ok 统一成功外壳
func ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{"code": 0, "message": "ok", "data": data})
}

func badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
}
