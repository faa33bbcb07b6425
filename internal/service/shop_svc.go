package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/pkg/shopapi"
)

// ShopService 店铺档案管理
type ShopService struct {
	shopRepo repository.ShopRepository
	logger   *zap.SugaredLogger
}

// NewShopService 创建店铺服务
func NewShopService(shopRepo repository.ShopRepository, logger *zap.SugaredLogger) *ShopService {
	return &ShopService{shopRepo: shopRepo, logger: logger}
}

// GetShop 查店铺
func (s *ShopService) GetShop(ctx context.Context, id int64) (*model.Shop, error) {
	shop, err := s.shopRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return shop, nil
}

// GetMasterShop 查主站
func (s *ShopService) GetMasterShop(ctx context.Context) (*model.Shop, error) {
	shop, err := s.shopRepo.GetMaster(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMasterShopNotConfigured
		}
		return nil, err
	}
	return shop, nil
}

// CreateShop 新建店铺
// 主站全局唯一，编码全局唯一
func (s *ShopService) CreateShop(ctx context.Context, shop *model.Shop) error {
	if _, err := s.shopRepo.GetByCode(ctx, shop.Code); err == nil {
		return ErrShopCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if shop.IsMaster {
		if _, err := s.shopRepo.GetMaster(ctx); err == nil {
			return ErrMasterAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if shop.Status == 0 {
		shop.Status = model.ShopStatusActive
	}
	return s.shopRepo.Create(ctx, shop)
}

// UpdateShop 更新店铺档案
func (s *ShopService) UpdateShop(ctx context.Context, id int64, fields map[string]interface{}) error {
	if _, err := s.GetShop(ctx, id); err != nil {
		return err
	}
	return s.shopRepo.UpdateFields(ctx, id, fields)
}

// DeleteShop 下线并删除店铺；主站不允许删
func (s *ShopService) DeleteShop(ctx context.Context, id int64) error {
	shop, err := s.GetShop(ctx, id)
	if err != nil {
		return err
	}
	if shop.IsMaster {
		return ErrMasterShopProtected
	}
	return s.shopRepo.Delete(ctx, id)
}

// ListShops 条件查询
func (s *ShopService) ListShops(ctx context.Context, filter repository.ShopFilter) ([]model.Shop, int64, error) {
	return s.shopRepo.List(ctx, filter)
}

// RefreshShopInfo 从分站 API 回拉基础信息并落库
func (s *ShopService) RefreshShopInfo(ctx context.Context, shopID int64) error {
	shop, err := s.GetShop(ctx, shopID)
	if err != nil {
		return err
	}
	if shop.ApiBaseURL == "" {
		s.logger.Warnw("店铺未配置 API 地址，跳过信息同步", "shop_id", shopID)
		return nil
	}

	client := shopapi.NewClient(shop.ApiBaseURL, shop.ApiKey, 0)
	info, err := client.FetchShopInfo(ctx)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if info.Name != "" {
		fields["name"] = info.Name
	}
	if info.Locale != "" {
		fields["locale"] = info.Locale
	}
	if info.CurrencyCode != "" {
		fields["currency_code"] = info.CurrencyCode
	}
	return s.shopRepo.UpdateFields(ctx, shopID, fields)
}

// ApiClient 给同步层用的分站客户端
func (s *ShopService) ApiClient(shop *model.Shop) *shopapi.Client {
	return shopapi.NewClient(shop.ApiBaseURL, shop.ApiKey, 0)
}
