package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步冷却中间件 ====================

// gin 层的同步冷却封装：路由里声明同步类型，冷却判定交给 SyncRateLimiter。
// interval 传 0 用该类型的默认冷却间隔。

// SyncRateLimit 按店铺维度冷却
// 店铺 ID 依次从路径参数 id、shop_id 和查询参数 shop_id 里取；都没有时退到全局 key
func SyncRateLimit(syncType SyncType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(syncType)
	}
	return func(c *gin.Context) {
		key, ok := shopScopedKey(c, syncType)
		if !ok {
			return
		}
		if result := GetLimiter().Check(key, interval); !result.Allowed {
			abortCooldown(c, syncType, result.RetryAfter)
			return
		}
		c.Next()
	}
}

// GlobalSyncRateLimit 全局冷却，给"同步主站"这类不分店铺的入口用
func GlobalSyncRateLimit(syncType SyncType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(syncType)
	}
	return func(c *gin.Context) {
		if result := GetLimiter().Check(GlobalSyncKey(syncType), interval); !result.Allowed {
			abortCooldown(c, syncType, result.RetryAfter)
			return
		}
		c.Next()
	}
}

// shopScopedKey 解析请求里的店铺 ID 并生成限流 key
// 返回 false 表示 ID 非法且请求已被终止
func shopScopedKey(c *gin.Context, syncType SyncType) (string, bool) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Param("shop_id")
	}
	if raw == "" {
		raw = c.Query("shop_id")
	}
	if raw == "" {
		return GlobalSyncKey(syncType), true
	}
	shopID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的店铺 ID",
		})
		return "", false
	}
	return ShopSyncKey(shopID, syncType), true
}

// abortCooldown 以 429 终止请求并带上剩余冷却时间
func abortCooldown(c *gin.Context, syncType SyncType, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":    429,
		"message": fmt.Sprintf("同步冷却中，%s 后可重试", cooldownText(seconds)),
		"data": gin.H{
			"retry_after": seconds,
			"sync_type":   syncType,
		},
	})
}

func cooldownText(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d 秒", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%d 分钟", seconds/60)
	}
	return fmt.Sprintf("%d 分 %d 秒", seconds/60, seconds%60)
}

// ==================== Service 层入口 ====================

// CheckSyncAllowed 查询某店铺某类型当前是否在冷却期，不消耗配额
func CheckSyncAllowed(shopID int64, syncType SyncType) (bool, time.Duration) {
	result := GetLimiter().CheckOnly(ShopSyncKey(shopID, syncType), GetInterval(syncType))
	return result.Allowed, result.RetryAfter
}

// MarkSyncExecuted 后台任务跑完一轮后补记执行时间
func MarkSyncExecuted(shopID int64, syncType SyncType) {
	GetLimiter().MarkExecuted(ShopSyncKey(shopID, syncType))
}

// ResetSyncLimit 清掉某店铺某类型的冷却记录
func ResetSyncLimit(shopID int64, syncType SyncType) {
	GetLimiter().Reset(ShopSyncKey(shopID, syncType))
}
