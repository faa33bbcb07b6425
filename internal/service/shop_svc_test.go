package service

import (
	"context"
	"testing"

	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/pkg/logger"
)

func TestShopService_CreateShop_Uniqueness(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewShopService(repository.NewShopRepository(db), logger.NewNop())
	ctx := context.Background()

	master := &model.Shop{Name: "CZ Main", Code: "cz-main", IsMaster: true}
	if err := svc.CreateShop(ctx, master); err != nil {
		t.Fatalf("创建主站失败: %v", err)
	}
	if master.Status != model.ShopStatusActive {
		t.Errorf("默认状态 = %d, want active", master.Status)
	}

	// 编码全局唯一
	if err := svc.CreateShop(ctx, &model.Shop{Name: "Dup", Code: "cz-main"}); err != ErrShopCodeExists {
		t.Errorf("重复编码 err = %v, want ErrShopCodeExists", err)
	}
	// 主站全局唯一
	if err := svc.CreateShop(ctx, &model.Shop{Name: "Second Master", Code: "cz-2", IsMaster: true}); err != ErrMasterAlreadyExists {
		t.Errorf("第二个主站 err = %v, want ErrMasterAlreadyExists", err)
	}
	// 普通分站不受限
	if err := svc.CreateShop(ctx, &model.Shop{Name: "SK Shop", Code: "sk-shop"}); err != nil {
		t.Errorf("创建分站失败: %v", err)
	}
}

func TestShopService_GetMasterShop(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewShopService(repository.NewShopRepository(db), logger.NewNop())
	ctx := context.Background()

	if _, err := svc.GetMasterShop(ctx); err != ErrMasterShopNotConfigured {
		t.Errorf("无主站 err = %v, want ErrMasterShopNotConfigured", err)
	}

	mustCreate(t, db, &model.Shop{Name: "CZ Main", Code: "cz-main", IsMaster: true, Status: 1})
	master, err := svc.GetMasterShop(ctx)
	if err != nil {
		t.Fatalf("GetMasterShop 失败: %v", err)
	}
	if master.Code != "cz-main" {
		t.Errorf("主站编码 = %q", master.Code)
	}
}

func TestShopService_DeleteShop_MasterProtected(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewShopService(repository.NewShopRepository(db), logger.NewNop())
	ctx := context.Background()

	master := model.Shop{Name: "CZ Main", Code: "cz-main", IsMaster: true, Status: 1}
	mustCreate(t, db, &master)
	shop := model.Shop{Name: "SK Shop", Code: "sk-shop", Status: 1}
	mustCreate(t, db, &shop)

	if err := svc.DeleteShop(ctx, master.ID); err != ErrMasterShopProtected {
		t.Errorf("删主站 err = %v, want ErrMasterShopProtected", err)
	}
	if err := svc.DeleteShop(ctx, shop.ID); err != nil {
		t.Errorf("删分站失败: %v", err)
	}
	if _, err := svc.GetShop(ctx, shop.ID); err != ErrShopNotFound {
		t.Errorf("删后查询 err = %v, want ErrShopNotFound", err)
	}
	if err := svc.DeleteShop(ctx, 999); err != ErrShopNotFound {
		t.Errorf("删未知店铺 err = %v, want ErrShopNotFound", err)
	}
}

func TestShopService_UpdateShop(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewShopService(repository.NewShopRepository(db), logger.NewNop())
	ctx := context.Background()

	shop := model.Shop{Name: "SK Shop", Code: "sk-shop", Status: 1}
	mustCreate(t, db, &shop)

	if err := svc.UpdateShop(ctx, shop.ID, map[string]interface{}{"name": "SK Store", "locale": "sk"}); err != nil {
		t.Fatalf("UpdateShop 失败: %v", err)
	}
	fresh, err := svc.GetShop(ctx, shop.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if fresh.Name != "SK Store" || fresh.Locale != "sk" {
		t.Errorf("更新结果 = %+v", fresh)
	}

	if err := svc.UpdateShop(ctx, 999, map[string]interface{}{"name": "x"}); err != ErrShopNotFound {
		t.Errorf("更新未知店铺 err = %v, want ErrShopNotFound", err)
	}
}

func TestShopService_ListShops_Filter(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewShopService(repository.NewShopRepository(db), logger.NewNop())
	ctx := context.Background()

	mustCreate(t, db, &model.Shop{Name: "CZ Main", Code: "cz-main", IsMaster: true, Status: 1})
	mustCreate(t, db, &model.Shop{Name: "SK Shop", Code: "sk-shop", Status: 1})
	mustCreate(t, db, &model.Shop{Name: "Syncing", Code: "old-shop", Status: model.ShopStatusSyncing})

	all, total, err := svc.ListShops(ctx, repository.ShopFilter{Status: -1})
	if err != nil {
		t.Fatalf("ListShops 失败: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("全量 = %d/%d, want 3/3", total, len(all))
	}

	active, total, err := svc.ListShops(ctx, repository.ShopFilter{Status: 1})
	if err != nil {
		t.Fatalf("ListShops 失败: %v", err)
	}
	if total != 2 || len(active) != 2 {
		t.Errorf("按状态过滤 = %d/%d, want 2/2", total, len(active))
	}

	named, _, err := svc.ListShops(ctx, repository.ShopFilter{Name: "SK", Status: -1})
	if err != nil {
		t.Fatalf("ListShops 失败: %v", err)
	}
	if len(named) != 1 || named[0].Code != "sk-shop" {
		t.Errorf("按名称过滤 = %+v", named)
	}
}
