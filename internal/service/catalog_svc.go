package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
)

// 商品快照字段的同义键
var (
	productTitleKeys        = []string{"title", "name"}
	productSkuKeys          = []string{"sku", "skuCode", "sku_code"}
	defaultCategoryGuidKeys = []string{"defaultCategoryGuid", "default_category_guid"}
	defaultCategoryObjKeys  = []string{"defaultCategory", "default_category"}
)

const catalogPageSize = 100

// ==================== CatalogService 商品快照同步 ====================

// CatalogService 商品目录同步
// 主站商品进 products 表，分站快照进 overlay 表，载荷原样留底
type CatalogService struct {
	shopRepo    repository.ShopRepository
	productRepo repository.ProductRepository
	shopService *ShopService
	logger      *zap.SugaredLogger
}

// NewCatalogService 创建商品目录同步服务
func NewCatalogService(
	shopRepo repository.ShopRepository,
	productRepo repository.ProductRepository,
	shopService *ShopService,
	logger *zap.SugaredLogger,
) *CatalogService {
	return &CatalogService{
		shopRepo:    shopRepo,
		productRepo: productRepo,
		shopService: shopService,
		logger:      logger,
	}
}

// extractDefaultGuid 从商品快照里挖默认分类 GUID
// 兼容裸字符串键和嵌套对象两种形状
func extractDefaultGuid(item map[string]interface{}) string {
	if s, ok := stringField(item, defaultCategoryGuidKeys); ok {
		return s
	}
	for _, k := range defaultCategoryObjKeys {
		switch v := item[k].(type) {
		case map[string]interface{}:
			if s, ok := stringField(v, guidKeys); ok {
				return s
			}
		case string:
			if ref, ok := refFromString(v); ok && ref.Guid != "" {
				return ref.Guid
			}
		}
	}
	return ""
}

// SyncMasterProducts 全量拉主站商品目录并落库
func (s *CatalogService) SyncMasterProducts(ctx context.Context) (int, error) {
	master, err := s.shopRepo.GetMaster(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrMasterShopNotConfigured
		}
		return 0, err
	}
	if master.ApiBaseURL == "" {
		s.logger.Warnw("主站未配置 API 地址，跳过商品目录同步")
		return 0, nil
	}

	client := s.shopService.ApiClient(master)
	total := 0
	for page := 1; ; page++ {
		pp, err := client.FetchProducts(ctx, page, catalogPageSize)
		if err != nil {
			return total, err
		}
		if len(pp.Items) == 0 {
			break
		}

		batch := make([]model.Product, 0, len(pp.Items))
		for _, raw := range pp.Items {
			var item map[string]interface{}
			if err := json.Unmarshal(raw, &item); err != nil {
				continue
			}
			guid, ok := stringField(item, guidKeys)
			if !ok {
				continue
			}
			p := model.Product{
				MasterShopID:        master.ID,
				Guid:                guid,
				DefaultCategoryGuid: extractDefaultGuid(item),
			}
			p.Title, _ = stringField(item, productTitleKeys)
			p.Sku, _ = stringField(item, productSkuKeys)

			var guids pq.StringArray
			for _, ref := range CollectCategoryRefs(item) {
				if ref.Guid != "" {
					guids = append(guids, ref.Guid)
				}
			}
			p.CategoryGuids = guids
			batch = append(batch, p)
		}

		if err := s.productRepo.BatchUpsert(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)

		if pp.TotalPages > 0 && page >= pp.TotalPages {
			break
		}
	}

	s.logger.Infow("主站商品目录同步完成", "products", total)
	return total, nil
}

// SyncShopOverlays 拉单个分站的商品快照并落 overlay
// 分站上不存在于主站目录的商品直接略过
func (s *CatalogService) SyncShopOverlays(ctx context.Context, shopID int64) (int, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrShopNotFound
		}
		return 0, err
	}
	if shop.ApiBaseURL == "" {
		s.logger.Warnw("店铺未配置 API 地址，跳过快照同步", "shop_id", shopID)
		return 0, nil
	}

	client := s.shopService.ApiClient(shop)
	total, skipped := 0, 0
	for page := 1; ; page++ {
		pp, err := client.FetchProducts(ctx, page, catalogPageSize)
		if err != nil {
			return total, err
		}
		if len(pp.Items) == 0 {
			break
		}

		for _, raw := range pp.Items {
			var item map[string]interface{}
			if err := json.Unmarshal(raw, &item); err != nil {
				skipped++
				continue
			}
			guid, ok := stringField(item, guidKeys)
			if !ok {
				skipped++
				continue
			}
			product, err := s.productRepo.GetByGuid(ctx, guid)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					skipped++
					continue
				}
				return total, err
			}

			overlay := &model.ShopProductOverlay{
				ProductID:         product.ID,
				ShopID:            shop.ID,
				ActualDefaultGuid: extractDefaultGuid(item),
				Payload:           datatypes.JSON(raw),
			}
			if err := s.productRepo.UpsertOverlay(ctx, overlay); err != nil {
				return total, err
			}
			total++
		}

		if pp.TotalPages > 0 && page >= pp.TotalPages {
			break
		}
	}

	now := time.Now()
	_ = s.shopRepo.UpdateFields(ctx, shop.ID, map[string]interface{}{"snapshot_synced_at": &now})

	s.logger.Infow("分站商品快照同步完成", "shop_id", shopID, "overlays", total, "skipped", skipped)
	return total, nil
}
