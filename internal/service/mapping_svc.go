package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
)

// ==================== 提案 ====================

// MappingProposal 一条待写入的映射提案（来自自动匹配、人工或 AI）
type MappingProposal struct {
	CategoryNodeID     int64
	ShopID             int64
	ShopCategoryNodeID *int64
	Status             model.MappingStatus
	Confidence         float64
	Source             model.MappingSource
}

// ==================== MappingService ====================

// MappingService 映射表的唯一写入口，负责优先级与不可降级规则
type MappingService struct {
	mappingRepo   repository.MappingRepository
	canonicalRepo repository.CanonicalNodeRepository
	shopNodeRepo  repository.ShopNodeRepository
	shopRepo      repository.ShopRepository
	logger        *zap.SugaredLogger
}

// NewMappingService 创建映射服务
func NewMappingService(
	mappingRepo repository.MappingRepository,
	canonicalRepo repository.CanonicalNodeRepository,
	shopNodeRepo repository.ShopNodeRepository,
	shopRepo repository.ShopRepository,
	logger *zap.SugaredLogger,
) *MappingService {
	return &MappingService{
		mappingRepo:   mappingRepo,
		canonicalRepo: canonicalRepo,
		shopNodeRepo:  shopNodeRepo,
		shopRepo:      shopRepo,
		logger:        logger,
	}
}

// ==================== 写入（优先级裁决） ====================

// Apply 按优先级规则落一条提案
// 返回 applied=false 表示提案被既有行挡下（预期内的正常结果，不是错误）：
//   - 既有行 source=manual 且提案非 confirmed → 拒
//   - 既有行 status=confirmed 且提案非 confirmed → 拒（confirmed 不静默降级）
//
// 接受时：confirmed 强制 confidence=1.0；manual 来源一旦写上就粘住不被覆盖
func (s *MappingService) Apply(ctx context.Context, p MappingProposal) (bool, error) {
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	if p.Status == model.MappingStatusConfirmed {
		p.Confidence = 1.0
	}

	rows, err := s.mappingRepo.ListByNodeAndShop(ctx, p.CategoryNodeID, p.ShopID)
	if err != nil {
		return false, err
	}

	if len(rows) == 0 {
		m := &model.CategoryMapping{
			CategoryNodeID:     p.CategoryNodeID,
			ShopID:             p.ShopID,
			ShopCategoryNodeID: p.ShopCategoryNodeID,
			Status:             p.Status,
			Confidence:         p.Confidence,
			Source:             p.Source,
		}
		if err := s.mappingRepo.Create(ctx, m); err != nil {
			return false, err
		}
		return true, nil
	}

	existing := pickBestMapping(rows)

	if existing.Source == model.MappingSourceManual && p.Status != model.MappingStatusConfirmed {
		return false, nil
	}
	if existing.Status == model.MappingStatusConfirmed && p.Status != model.MappingStatusConfirmed {
		return false, nil
	}

	existing.ShopCategoryNodeID = p.ShopCategoryNodeID
	existing.Status = p.Status
	existing.Confidence = p.Confidence
	if existing.Source != model.MappingSourceManual {
		existing.Source = p.Source
	}
	if err := s.mappingRepo.Update(ctx, existing); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateManual 人工调整某映射行（走同一套优先级规则，source 固定为 manual）
func (s *MappingService) UpdateManual(ctx context.Context, mappingID int64, req *dto.MappingUpdateReq) (*dto.MappingUpdateResp, error) {
	row, err := s.mappingRepo.GetByID(ctx, mappingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMappingNotFound
		}
		return nil, err
	}

	status := model.MappingStatus(req.Status)
	confidence := row.Confidence
	if status == model.MappingStatusConfirmed {
		confidence = 1.0
	}
	target := req.ShopCategoryNodeID
	if target == nil {
		target = row.ShopCategoryNodeID
	}

	applied, err := s.Apply(ctx, MappingProposal{
		CategoryNodeID:     row.CategoryNodeID,
		ShopID:             row.ShopID,
		ShopCategoryNodeID: target,
		Status:             status,
		Confidence:         confidence,
		Source:             model.MappingSourceManual,
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.mappingRepo.GetByID(ctx, mappingID)
	if err != nil {
		return nil, err
	}
	resp := &dto.MappingUpdateResp{Applied: applied}
	resp.Mapping = s.mappingResp(ctx, fresh)
	return resp, nil
}

// pickBestMapping 同一 (节点, 店铺) 意外存在多行时的兜底取舍：
// 状态优先级小者胜，再比高置信度，最后按 ID 稳定排序
func pickBestMapping(rows []model.CategoryMapping) *model.CategoryMapping {
	best := 0
	for i := 1; i < len(rows); i++ {
		a, b := &rows[i], &rows[best]
		ra, rb := model.StatusRank(a.Status), model.StatusRank(b.Status)
		switch {
		case ra < rb:
			best = i
		case ra == rb && a.Confidence > b.Confidence:
			best = i
		case ra == rb && a.Confidence == b.Confidence && a.ID < b.ID:
			best = i
		}
	}
	return &rows[best]
}

// ==================== 读取（解析契约） ====================

// Resolve 给定权威 GUID 列表和目标店铺，逐个返回解析结果
// 目标店铺就是节点属主（主站）时返回合成的 canonical 伪映射，
// 让下游把「分类原生就在这个店」与「分类被映射进这个店」当同一种东西消费
func (s *MappingService) Resolve(ctx context.Context, guids []string, shopID int64) ([]dto.ResolveItemResp, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}

	nodes, err := s.canonicalRepo.GetByGuids(ctx, guids)
	if err != nil {
		return nil, err
	}
	nodeByGuid := make(map[string]*model.CanonicalCategoryNode, len(nodes))
	nodeIDs := make([]int64, 0, len(nodes))
	var masterShopID int64
	for i := range nodes {
		nodeByGuid[nodes[i].Guid] = &nodes[i]
		nodeIDs = append(nodeIDs, nodes[i].ID)
		masterShopID = nodes[i].MasterShopID
	}

	// 路径用整棵权威树算，零散节点算不出完整面包屑
	var resolver *PathResolver
	if masterShopID != 0 {
		all, err := s.canonicalRepo.ListAll(ctx, masterShopID)
		if err != nil {
			return nil, err
		}
		resolver = NewPathResolver(CanonicalNodeViews(all))
	}

	mappings, err := s.mappingRepo.ListByNodeIDs(ctx, shop.ID, nodeIDs)
	if err != nil {
		return nil, err
	}
	byNode := make(map[int64][]model.CategoryMapping)
	for _, m := range mappings {
		byNode[m.CategoryNodeID] = append(byNode[m.CategoryNodeID], m)
	}

	out := make([]dto.ResolveItemResp, 0, len(guids))
	for _, guid := range guids {
		item := dto.ResolveItemResp{Guid: guid}
		node, known := nodeByGuid[guid]
		if !known {
			// 未知 GUID：原样回传，mapping 置空
			out = append(out, item)
			continue
		}
		item.Name = node.Name
		if resolver != nil {
			item.Path = resolver.Path(node.Guid)
		}

		if shop.ID == node.MasterShopID {
			item.Mapping = &dto.MappingResp{
				Status:     string(model.MappingStatusCanonical),
				Confidence: 1.0,
			}
			out = append(out, item)
			continue
		}

		if rows := byNode[node.ID]; len(rows) > 0 {
			item.Mapping = s.mappingResp(ctx, pickBestMapping(rows))
		}
		out = append(out, item)
	}
	return out, nil
}

// mappingResp 映射行 → 响应（带分站分类摘要）
func (s *MappingService) mappingResp(ctx context.Context, m *model.CategoryMapping) *dto.MappingResp {
	resp := &dto.MappingResp{
		ID:         m.ID,
		Status:     string(m.Status),
		Confidence: m.Confidence,
		Source:     string(m.Source),
	}
	if m.ShopCategoryNodeID != nil {
		if node, err := s.shopNodeRepo.GetByID(ctx, *m.ShopCategoryNodeID); err == nil {
			resp.Target = &dto.CategoryBrief{
				Guid: node.RemoteGuid,
				Name: node.Name,
				Slug: node.Slug,
				Path: node.Path,
			}
		}
	}
	return resp
}

// ==================== 树视图 ====================

// BuildTree shop_id 指向主站时返回权威树，否则返回分站树
func (s *MappingService) BuildTree(ctx context.Context, shopID int64) ([]*dto.TreeNodeResp, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	if shop.IsMaster {
		return s.BuildCanonicalTree(ctx, shopID)
	}
	return s.BuildShopTree(ctx, shopID)
}

// BuildShopTree 分站侧嵌套树，每个节点标注当前映射状态
func (s *MappingService) BuildShopTree(ctx context.Context, shopID int64) ([]*dto.TreeNodeResp, error) {
	if _, err := s.shopRepo.GetByID(ctx, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}

	nodes, err := s.shopNodeRepo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappingRepo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	// 分站节点 ID -> 最优映射
	byTarget := make(map[int64][]model.CategoryMapping)
	for _, m := range mappings {
		if m.ShopCategoryNodeID != nil {
			byTarget[*m.ShopCategoryNodeID] = append(byTarget[*m.ShopCategoryNodeID], m)
		}
	}

	resp := make([]*dto.TreeNodeResp, 0, len(nodes))
	index := make(map[string]*dto.TreeNodeResp, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		tn := &dto.TreeNodeResp{
			ID:            n.ID,
			Guid:          n.RemoteGuid,
			Name:          n.Name,
			Slug:          n.Slug,
			Path:          n.Path,
			Position:      n.Position,
			Visible:       n.Visible,
			MappingStatus: "unmapped",
		}
		if rows := byTarget[n.ID]; len(rows) > 0 {
			best := pickBestMapping(rows)
			tn.MappingStatus = string(best.Status)
			tn.Confidence = best.Confidence
		}
		index[n.RemoteGuid] = tn
	}

	cyclic := cyclicGuids(ShopNodeViews(nodes))
	for i := range nodes {
		n := &nodes[i]
		tn := index[n.RemoteGuid]
		parent, hasParent := index[n.ParentGuid]
		// 悬空父引用和成环节点顶到根上，树永远建得出来
		_, inCycle := cyclic[n.RemoteGuid]
		if !hasParent || n.ParentGuid == "" || parent == tn || inCycle {
			resp = append(resp, tn)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}

	sortTree(resp)
	return resp, nil
}

// BuildCanonicalTree 权威侧嵌套树，节点标注「在目标分站的」映射状态
// shopID = 主站自身时全部标 canonical
func (s *MappingService) BuildCanonicalTree(ctx context.Context, shopID int64) ([]*dto.TreeNodeResp, error) {
	master, err := s.shopRepo.GetMaster(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMasterShopNotConfigured
		}
		return nil, err
	}

	nodes, err := s.canonicalRepo.ListAll(ctx, master.ID)
	if err != nil {
		return nil, err
	}
	resolver := NewPathResolver(CanonicalNodeViews(nodes))

	byNode := make(map[int64][]model.CategoryMapping)
	if shopID != 0 && shopID != master.ID {
		mappings, err := s.mappingRepo.ListByShop(ctx, shopID)
		if err != nil {
			return nil, err
		}
		for _, m := range mappings {
			byNode[m.CategoryNodeID] = append(byNode[m.CategoryNodeID], m)
		}
	}

	resp := make([]*dto.TreeNodeResp, 0, len(nodes))
	index := make(map[string]*dto.TreeNodeResp, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		tn := &dto.TreeNodeResp{
			ID:       n.ID,
			Guid:     n.Guid,
			Name:     n.Name,
			Slug:     n.Slug,
			Path:     resolver.Path(n.Guid),
			Position: n.Position,
			Visible:  true,
		}
		switch {
		case shopID == 0:
			// 不带分站视角，不标注
		case shopID == master.ID:
			tn.MappingStatus = string(model.MappingStatusCanonical)
			tn.Confidence = 1.0
		default:
			tn.MappingStatus = "unmapped"
			if rows := byNode[n.ID]; len(rows) > 0 {
				best := pickBestMapping(rows)
				tn.MappingStatus = string(best.Status)
				tn.Confidence = best.Confidence
			}
		}
		index[n.Guid] = tn
	}

	cyclic := cyclicGuids(CanonicalNodeViews(nodes))
	for i := range nodes {
		n := &nodes[i]
		tn := index[n.Guid]
		parent, hasParent := index[n.ParentGuid]
		_, inCycle := cyclic[n.Guid]
		if !hasParent || n.ParentGuid == "" || parent == tn || inCycle {
			resp = append(resp, tn)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}

	sortTree(resp)
	return resp, nil
}

// cyclicGuids 检出父链绕回自身的节点
// 这些节点挂不进任何子树（会互相吞掉），建树时一律顶为根
func cyclicGuids(views []TreeNodeView) map[string]struct{} {
	byGuid := make(map[string]TreeNodeView, len(views))
	for _, v := range views {
		byGuid[v.Guid] = v
	}
	out := make(map[string]struct{})
	for _, v := range views {
		cur := v
		for hop := 0; hop < model.MaxTreeHops; hop++ {
			parent, ok := byGuid[cur.ParentGuid]
			if !ok || cur.ParentGuid == "" {
				break
			}
			if parent.Guid == v.Guid {
				out[v.Guid] = struct{}{}
				break
			}
			cur = parent
		}
	}
	return out
}

// sortTree 兄弟节点按 position、ID 排序，输出稳定
func sortTree(nodes []*dto.TreeNodeResp) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Position != nodes[j].Position {
			return nodes[i].Position < nodes[j].Position
		}
		return nodes[i].ID < nodes[j].ID
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortTree(n.Children)
		}
	}
}
