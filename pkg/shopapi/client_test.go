package shopapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_FetchShopInfo(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/shop" {
			t.Errorf("请求路径 = %q", r.URL.Path)
		}
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"SK Shop","locale":"sk","currencyCode":"EUR"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 0)
	info, err := client.FetchShopInfo(context.Background())
	if err != nil {
		t.Fatalf("FetchShopInfo 失败: %v", err)
	}
	if info.Name != "SK Shop" || info.Locale != "sk" || info.CurrencyCode != "EUR" {
		t.Errorf("info = %+v", info)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
}

func TestClient_FetchShopInfo_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":403,"message":"bad key"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong", 0)
	if _, err := client.FetchShopInfo(context.Background()); err == nil {
		t.Fatal("非 2xx 响应应返回错误")
	}
}

func TestClient_FetchCategoryTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/categories/tree" {
			t.Errorf("请求路径 = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"categories":[{"guid":"g1","name":"Home"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 0)
	raw, err := client.FetchCategoryTree(context.Background())
	if err != nil {
		t.Fatalf("FetchCategoryTree 失败: %v", err)
	}
	if len(raw) == 0 {
		t.Error("载荷不应为空")
	}
}

func TestClient_FetchCategoryTree_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 0)
	if _, err := client.FetchCategoryTree(context.Background()); err == nil {
		t.Fatal("非 JSON 载荷应报错")
	}
}

func TestClient_FetchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("pageSize") != "50" {
			t.Errorf("query = %v", r.URL.Query())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"guid":"p1"},{"guid":"p2"}],"total":102,"page":2,"totalPages":3}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 0)
	pp, err := client.FetchProducts(context.Background(), 2, 50)
	if err != nil {
		t.Fatalf("FetchProducts 失败: %v", err)
	}
	if len(pp.Items) != 2 || pp.TotalPages != 3 || pp.Total != 102 {
		t.Errorf("page = %+v", pp)
	}
}
