package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newCooldownRouter(syncType SyncType, interval time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/sync/shops/:id", SyncRateLimit(syncType, interval), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	r.POST("/sync/master", GlobalSyncRateLimit(syncType, interval), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	return r
}

func doPost(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestSyncRateLimit_CooldownPerShop(t *testing.T) {
	// 独立同步类型，避免和全局限流器里的其他 key 串味
	st := SyncType("test-cooldown-shop")
	r := newCooldownRouter(st, time.Hour)

	if w := doPost(r, "/sync/shops/9001"); w.Code != http.StatusOK {
		t.Fatalf("首次请求 = %d, want 200", w.Code)
	}

	w := doPost(r, "/sync/shops/9001")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("冷却期内请求 = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 响应应带 Retry-After 头")
	}
	var body struct {
		Code int `json:"code"`
		Data struct {
			RetryAfter int    `json:"retry_after"`
			SyncType   string `json:"sync_type"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析 429 响应失败: %v", err)
	}
	if body.Code != 429 || body.Data.RetryAfter < 1 || body.Data.SyncType != string(st) {
		t.Errorf("429 响应体 = %+v", body)
	}

	// 别的店铺不受影响
	if w := doPost(r, "/sync/shops/9002"); w.Code != http.StatusOK {
		t.Errorf("其他店铺请求 = %d, want 200", w.Code)
	}
}

func TestSyncRateLimit_InvalidShopID(t *testing.T) {
	r := newCooldownRouter(SyncType("test-cooldown-badid"), time.Hour)
	if w := doPost(r, "/sync/shops/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("非法店铺 ID = %d, want 400", w.Code)
	}
}

func TestGlobalSyncRateLimit_Cooldown(t *testing.T) {
	r := newCooldownRouter(SyncType("test-cooldown-global"), time.Hour)

	if w := doPost(r, "/sync/master"); w.Code != http.StatusOK {
		t.Fatalf("首次全局请求 = %d, want 200", w.Code)
	}
	if w := doPost(r, "/sync/master"); w.Code != http.StatusTooManyRequests {
		t.Errorf("冷却期内全局请求 = %d, want 429", w.Code)
	}
}

func TestResetSyncLimit_ClearsCooldown(t *testing.T) {
	st := SyncType("test-cooldown-reset")
	r := newCooldownRouter(st, time.Hour)

	if w := doPost(r, "/sync/shops/9003"); w.Code != http.StatusOK {
		t.Fatalf("首次请求 = %d, want 200", w.Code)
	}
	if allowed, _ := CheckSyncAllowed(9003, st); allowed {
		t.Error("冷却期内 CheckSyncAllowed 应返回 false")
	}

	ResetSyncLimit(9003, st)
	if allowed, _ := CheckSyncAllowed(9003, st); !allowed {
		t.Error("重置后 CheckSyncAllowed 应返回 true")
	}
	if w := doPost(r, "/sync/shops/9003"); w.Code != http.StatusOK {
		t.Errorf("重置后请求 = %d, want 200", w.Code)
	}
}
