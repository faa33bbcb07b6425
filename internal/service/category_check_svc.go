package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/pkg/utils"
)

// ==================== 校验原因 ====================

// 按裁决顺序排列，第一个命中的原因即终态
const (
	ReasonMissingMasterDefault  = "missing_master_default"  // 主站没设默认分类
	ReasonCanonicalNotFound     = "canonical_not_found"     // 默认分类 GUID 对不上权威树
	ReasonMissingTargetSnapshot = "missing_target_snapshot" // 目标分站没有该商品的快照
	ReasonMissingMapping        = "missing_mapping"         // 默认分类没有映射
	ReasonMissingActualDefault  = "missing_actual_default"  // 分站没记录实际默认分类
	ReasonMismatch              = "mismatch"                // 映射目标和分站实际默认不一致
	ReasonDefaultNotDeepest     = "default_not_deepest"     // 载荷里藏着更深的分类没用上
)

// 校验用的流式翻页大小
const checkScanPageSize = 200

// ==================== CategoryCheckService ====================

// CategoryCheckService 商品默认分类一致性校验
// 纯读：商品按固定页大小流式扫，内存占用有界，报告永远能产出（哪怕是空的）
type CategoryCheckService struct {
	shopRepo      repository.ShopRepository
	canonicalRepo repository.CanonicalNodeRepository
	shopNodeRepo  repository.ShopNodeRepository
	productRepo   repository.ProductRepository
	mappingRepo   repository.MappingRepository
	logger        *zap.SugaredLogger
}

// NewCategoryCheckService 创建一致性校验服务
func NewCategoryCheckService(
	shopRepo repository.ShopRepository,
	canonicalRepo repository.CanonicalNodeRepository,
	shopNodeRepo repository.ShopNodeRepository,
	productRepo repository.ProductRepository,
	mappingRepo repository.MappingRepository,
	logger *zap.SugaredLogger,
) *CategoryCheckService {
	return &CategoryCheckService{
		shopRepo:      shopRepo,
		canonicalRepo: canonicalRepo,
		shopNodeRepo:  shopNodeRepo,
		productRepo:   productRepo,
		mappingRepo:   mappingRepo,
		logger:        logger,
	}
}

// checkContext 一次报告扫描的只读上下文
type checkContext struct {
	shop          *model.Shop
	canonicalByGuid map[string]*model.CanonicalCategoryNode
	resolver      *PathResolver
	shopNodeByID  map[int64]*model.ShopCategoryNode
	shopNodeByGuid map[string]*model.ShopCategoryNode
	bestMapping   map[int64]*model.CategoryMapping
}

// Report 生成分页的一致性报告
func (s *CategoryCheckService) Report(ctx context.Context, req *dto.CategoryCheckReq) (*dto.CategoryCheckResp, error) {
	shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	master, err := s.shopRepo.GetMaster(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMasterShopNotConfigured
		}
		return nil, err
	}

	cc, err := s.buildCheckContext(ctx, shop, master)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	windowStart := int64((page - 1) * pageSize)
	windowEnd := windowStart + int64(pageSize)

	resp := &dto.CategoryCheckResp{
		Page:     page,
		PageSize: pageSize,
		Counts:   make(map[string]int64),
		Rows:     make([]dto.CategoryCheckRow, 0, pageSize),
	}

	// 游标翻页流式扫全量商品；只有落在请求窗口里的行才留在内存
	var cursor int64
	for {
		products, err := s.productRepo.ListPaged(ctx, master.ID, cursor, checkScanPageSize)
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			break
		}

		ids := make([]int64, 0, len(products))
		for i := range products {
			ids = append(ids, products[i].ID)
		}
		overlays, err := s.productRepo.ListOverlays(ctx, shop.ID, ids)
		if err != nil {
			return nil, err
		}
		overlayByProduct := make(map[int64]*model.ShopProductOverlay, len(overlays))
		for i := range overlays {
			overlayByProduct[overlays[i].ProductID] = &overlays[i]
		}

		for i := range products {
			p := &products[i]
			resp.Scanned++
			row := s.evaluate(p, overlayByProduct[p.ID], cc)
			if row == nil {
				continue
			}
			resp.Counts[row.Reason]++
			if req.Reason != "" && row.Reason != req.Reason {
				continue
			}
			if resp.Total >= windowStart && resp.Total < windowEnd {
				resp.Rows = append(resp.Rows, *row)
			}
			resp.Total++
		}
		cursor = products[len(products)-1].ID
	}

	return resp, nil
}

func (s *CategoryCheckService) buildCheckContext(ctx context.Context, shop, master *model.Shop) (*checkContext, error) {
	canonical, err := s.canonicalRepo.ListAll(ctx, master.ID)
	if err != nil {
		return nil, err
	}
	cc := &checkContext{
		shop:            shop,
		canonicalByGuid: make(map[string]*model.CanonicalCategoryNode, len(canonical)),
		resolver:        NewPathResolver(CanonicalNodeViews(canonical)),
		shopNodeByID:    make(map[int64]*model.ShopCategoryNode),
		shopNodeByGuid:  make(map[string]*model.ShopCategoryNode),
		bestMapping:     make(map[int64]*model.CategoryMapping),
	}
	for i := range canonical {
		cc.canonicalByGuid[canonical[i].Guid] = &canonical[i]
	}

	shopNodes, err := s.shopNodeRepo.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	for i := range shopNodes {
		cc.shopNodeByID[shopNodes[i].ID] = &shopNodes[i]
		cc.shopNodeByGuid[shopNodes[i].RemoteGuid] = &shopNodes[i]
	}

	mappings, err := s.mappingRepo.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	byNode := make(map[int64][]model.CategoryMapping)
	for _, m := range mappings {
		byNode[m.CategoryNodeID] = append(byNode[m.CategoryNodeID], m)
	}
	for nodeID, rows := range byNode {
		cc.bestMapping[nodeID] = pickBestMapping(rows)
	}
	return cc, nil
}

// evaluate 单商品裁决：按固定顺序过状态机，第一个命中的原因即返回
// 返回 nil 表示商品一致，不进报告
func (s *CategoryCheckService) evaluate(p *model.Product, overlay *model.ShopProductOverlay, cc *checkContext) *dto.CategoryCheckRow {
	row := &dto.CategoryCheckRow{
		Product: dto.ProductBrief{ID: p.ID, Guid: p.Guid, Title: p.Title, Sku: p.Sku},
	}

	// 1. 主站没设默认分类
	if p.DefaultCategoryGuid == "" {
		row.Reason = ReasonMissingMasterDefault
		return row
	}
	row.MasterCategory = &dto.CategoryBrief{Guid: p.DefaultCategoryGuid}

	// 2. GUID 对不上权威树
	canonical, ok := cc.canonicalByGuid[p.DefaultCategoryGuid]
	if !ok {
		row.Reason = ReasonCanonicalNotFound
		return row
	}
	row.MasterCategory.Name = canonical.Name
	row.MasterCategory.Path = cc.resolver.Path(canonical.Guid)

	// 3. 分站没有该商品快照
	if overlay == nil {
		row.Reason = ReasonMissingTargetSnapshot
		return row
	}

	// 4. 没有映射（目标店铺就是主站时默认分类原生存在，视作恒等映射）
	var expected *model.ShopCategoryNode
	var expectedGuid, expectedPath string
	if cc.shop.ID == canonical.MasterShopID {
		expectedGuid = canonical.Guid
		expectedPath = row.MasterCategory.Path
		row.ExpectedCategory = row.MasterCategory
	} else {
		m := cc.bestMapping[canonical.ID]
		if m == nil || m.ShopCategoryNodeID == nil {
			row.Reason = ReasonMissingMapping
			return row
		}
		expected = cc.shopNodeByID[*m.ShopCategoryNodeID]
		if expected == nil {
			row.Reason = ReasonMissingMapping
			return row
		}
		expectedGuid = expected.RemoteGuid
		expectedPath = expected.Path
		row.ExpectedCategory = &dto.CategoryBrief{
			Guid: expected.RemoteGuid,
			Name: expected.Name,
			Slug: expected.Slug,
			Path: expected.Path,
		}
	}

	// 5. 分站没记录实际默认分类
	if overlay.ActualDefaultGuid == "" {
		row.Reason = ReasonMissingActualDefault
		return row
	}
	if actual, ok := cc.shopNodeByGuid[overlay.ActualDefaultGuid]; ok {
		row.ActualCategory = &dto.CategoryBrief{
			Guid: actual.RemoteGuid,
			Name: actual.Name,
			Slug: actual.Slug,
			Path: actual.Path,
		}
	} else {
		row.ActualCategory = &dto.CategoryBrief{Guid: overlay.ActualDefaultGuid}
	}

	// 6. 映射目标和实际默认不一致
	if expectedGuid != overlay.ActualDefaultGuid {
		row.Reason = ReasonMismatch
		return row
	}

	// 7. 两边一致——再看载荷里有没有更深、更具体的分类该用而没用
	if actual, ok := cc.shopNodeByGuid[overlay.ActualDefaultGuid]; ok && actual.Path != "" {
		expectedPath = actual.Path
	}
	if recommended := s.findDeeperCandidate(overlay, expectedGuid, expectedPath, cc); recommended != nil {
		row.Reason = ReasonDefaultNotDeepest
		row.RecommendedCategory = recommended
		return row
	}
	return nil
}

// findDeeperCandidate 在分站载荷里找比当前默认分类更深的严格前缀延伸
// 载荷形状不可控：裸 GUID、裸路径、各种对象键名全都归一化后再比
func (s *CategoryCheckService) findDeeperCandidate(overlay *model.ShopProductOverlay, currentGuid, currentPath string, cc *checkContext) *dto.CategoryBrief {
	if currentPath == "" {
		return nil
	}
	currentSegs := utils.SplitPathSegments(currentPath)
	if len(currentSegs) == 0 {
		return nil
	}

	var payload interface{}
	if len(overlay.Payload) > 0 {
		if err := json.Unmarshal(overlay.Payload, &payload); err != nil {
			return nil
		}
	}
	refs := CollectCategoryRefs(payload)

	var bestRef *CategoryRef
	var bestSegs []string
	for i := range refs {
		ref := refs[i]
		// 当前默认分类自己不算候选
		if ref.Guid != "" && ref.Guid == currentGuid {
			continue
		}
		path := ref.Path
		if path == "" && ref.Guid != "" {
			if node, ok := cc.shopNodeByGuid[ref.Guid]; ok {
				path = node.Path
			}
		}
		if path == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(path), strings.TrimSpace(currentPath)) {
			continue
		}
		segs := utils.SplitPathSegments(path)
		// 只认严格段前缀延伸：同支且更深
		if len(segs) <= len(currentSegs) || !utils.IsPathPrefix(currentSegs, segs) {
			continue
		}
		if bestRef == nil ||
			len(segs) > len(bestSegs) ||
			(len(segs) == len(bestSegs) && strings.Join(segs, " > ") < strings.Join(bestSegs, " > ")) {
			bestRef = &refs[i]
			bestSegs = segs
		}
	}

	if bestRef == nil {
		return nil
	}
	out := &dto.CategoryBrief{
		Guid: bestRef.Guid,
		Name: bestRef.Name,
		Path: strings.Join(bestSegs, PathSeparator),
	}
	// 路径型引用尽量补上 GUID 和名称
	if out.Guid == "" {
		for _, node := range cc.shopNodeByGuid {
			if strings.EqualFold(node.Path, bestRef.Path) {
				out.Guid = node.RemoteGuid
				out.Name = node.Name
				break
			}
		}
	}
	if out.Name == "" && len(bestSegs) > 0 {
		out.Name = bestSegs[len(bestSegs)-1]
	}
	return out
}
