package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
)

// ==================== TreeSyncService 分类树同步 ====================

// TreeSyncService 快照 → 分类树的同步器
// 载荷顺序无保证，所以分两趟：先建/改节点，再回填父指针，最后重算路径
// 同一分站的同步由调用方串行化（定时任务一站一趟），不同分站可并行
type TreeSyncService struct {
	shopRepo      repository.ShopRepository
	canonicalRepo repository.CanonicalNodeRepository
	shopNodeRepo  repository.ShopNodeRepository
	mappingSvc    *MappingService
	matcher       *MatchingEngine
	logger        *zap.SugaredLogger
}

// NewTreeSyncService 创建分类树同步服务
func NewTreeSyncService(
	shopRepo repository.ShopRepository,
	canonicalRepo repository.CanonicalNodeRepository,
	shopNodeRepo repository.ShopNodeRepository,
	mappingSvc *MappingService,
	matcher *MatchingEngine,
	logger *zap.SugaredLogger,
) *TreeSyncService {
	return &TreeSyncService{
		shopRepo:      shopRepo,
		canonicalRepo: canonicalRepo,
		shopNodeRepo:  shopNodeRepo,
		mappingSvc:    mappingSvc,
		matcher:       matcher,
		logger:        logger,
	}
}

// ==================== 入口 ====================

// Sync 同步入口：主站载荷进权威树，分站载荷进分站树并顺带跑自动匹配
func (s *TreeSyncService) Sync(ctx context.Context, shopID int64, payload interface{}) (*dto.SyncResp, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	if shop.IsMaster {
		return s.SyncMaster(ctx, payload)
	}
	return s.syncShopTree(ctx, shop, payload)
}

// SyncMaster 主站快照 → 权威分类树
func (s *TreeSyncService) SyncMaster(ctx context.Context, payload interface{}) (*dto.SyncResp, error) {
	master, err := s.shopRepo.GetMaster(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMasterShopNotConfigured
		}
		return nil, err
	}

	records := FlattenCategoryPayload(payload)
	resp := &dto.SyncResp{Categories: len(records)}
	if len(records) == 0 {
		return resp, nil
	}

	existing, err := s.canonicalRepo.ListAll(ctx, master.ID)
	if err != nil {
		return nil, err
	}
	byGuid := make(map[string]*model.CanonicalCategoryNode, len(existing))
	for i := range existing {
		byGuid[existing[i].Guid] = &existing[i]
	}

	// 第一趟：按 GUID 建/改节点，原始载荷做增量深合并留给下游
	touched := make([]*model.CanonicalCategoryNode, 0, len(records))
	for _, raw := range records {
		guid, ok := stringField(raw, guidKeys)
		if !ok {
			continue // 单条坏记录不拖垮整批
		}
		name, _ := stringField(raw, nameKeys)
		slug, _ := stringField(raw, slugKeys)
		parentGuid, _ := stringField(raw, parentGuidKeys)
		position, _ := intField(raw, positionKeys)

		node, exists := byGuid[guid]
		if !exists {
			node = &model.CanonicalCategoryNode{Guid: guid, MasterShopID: master.ID}
			byGuid[guid] = node
		}
		node.Name = name
		node.Slug = slug
		node.ParentGuid = parentGuid
		node.Position = position
		node.RawPayload = mergeJSONColumn(node.RawPayload, raw)

		if !exists {
			if err := s.canonicalRepo.Upsert(ctx, node); err != nil {
				s.logger.Warnw("权威节点写入失败，跳过", "guid", guid, "err", err)
				continue
			}
		}
		touched = append(touched, node)
	}

	// 第二趟：回填父指针（父节点此刻必然已在索引里，没同步到的父走库里兜底查）
	for _, node := range touched {
		var parentID *int64
		if node.ParentGuid != "" {
			if parent, ok := byGuid[node.ParentGuid]; ok && parent.ID != 0 {
				parentID = &parent.ID
			} else if parent, err := s.canonicalRepo.GetByGuid(ctx, node.ParentGuid); err == nil {
				parentID = &parent.ID
			}
		}
		node.ParentID = parentID
		fields := map[string]interface{}{
			"parent_id":   node.ParentID,
			"parent_guid": node.ParentGuid,
			"name":        node.Name,
			"slug":        node.Slug,
			"position":    node.Position,
			"raw_payload": node.RawPayload,
		}
		if err := s.canonicalRepo.UpdateFields(ctx, node.ID, fields); err != nil {
			s.logger.Warnw("权威节点父指针回填失败", "guid", node.Guid, "err", err)
		}
	}

	now := time.Now()
	_ = s.shopRepo.UpdateFields(ctx, master.ID, map[string]interface{}{"category_synced_at": &now})

	resp.CanonicalNodes = len(touched)
	s.logger.Infow("主站分类树同步完成", "records", len(records), "touched", len(touched))
	return resp, nil
}

// ==================== 分站树 ====================

func (s *TreeSyncService) syncShopTree(ctx context.Context, shop *model.Shop, payload interface{}) (*dto.SyncResp, error) {
	records := FlattenCategoryPayload(payload)
	resp := &dto.SyncResp{Categories: len(records)}

	nodes, err := s.shopNodeRepo.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	byGuid := make(map[string]*model.ShopCategoryNode, len(nodes))
	for i := range nodes {
		byGuid[nodes[i].RemoteGuid] = &nodes[i]
	}

	// 第一趟：按 (shop_id, remote_guid) 建/改，展示元数据增量深合并
	touchedGuids := make(map[string]struct{}, len(records))
	for _, raw := range records {
		guid, ok := stringField(raw, guidKeys)
		if !ok {
			continue
		}
		name, _ := stringField(raw, nameKeys)
		slug, _ := stringField(raw, slugKeys)
		parentGuid, _ := stringField(raw, parentGuidKeys)
		position, _ := intField(raw, positionKeys)
		visible := boolField(raw, visibleKeys, true)

		node, exists := byGuid[guid]
		if !exists {
			node = &model.ShopCategoryNode{ShopID: shop.ID, RemoteGuid: guid}
			byGuid[guid] = node
		}
		node.Name = name
		node.Slug = slug
		node.ParentGuid = parentGuid
		node.Position = position
		node.Visible = visible
		node.Metadata = mergeJSONColumn(node.Metadata, PresentationFields(raw))

		if !exists {
			if err := s.shopNodeRepo.Create(ctx, node); err != nil {
				s.logger.Warnw("分站节点创建失败，跳过", "shop", shop.Code, "guid", guid, "err", err)
				continue
			}
		}
		touchedGuids[guid] = struct{}{}
	}

	// 第二趟：回填父指针。载荷顺序无保证，父可能晚于子出现，也可能因未变更根本不在本批里
	for guid := range touchedGuids {
		node := byGuid[guid]
		var parentID *int64
		if node.ParentGuid != "" {
			if parent, ok := byGuid[node.ParentGuid]; ok && parent.ID != 0 {
				parentID = &parent.ID
			} else if parent, err := s.shopNodeRepo.GetByRemoteGuid(ctx, shop.ID, node.ParentGuid); err == nil {
				parentID = &parent.ID
			}
		}
		node.ParentID = parentID
	}

	// 第三趟：触达节点 + 全部子孙重算路径缓存（上游改名会废掉整条子树的路径）
	views := make([]TreeNodeView, 0, len(byGuid))
	for _, n := range byGuid {
		views = append(views, TreeNodeView{ID: n.ID, Guid: n.RemoteGuid, ParentGuid: n.ParentGuid, Name: n.Name})
	}
	resolver := NewPathResolver(views)
	affected := expandWithDescendants(touchedGuids, views)
	for guid := range affected {
		node, ok := byGuid[guid]
		if !ok {
			continue
		}
		node.Path = resolver.Path(guid)
		if err := s.shopNodeRepo.Update(ctx, node); err != nil {
			s.logger.Warnw("分站节点保存失败", "shop", shop.Code, "guid", guid, "err", err)
		}
	}

	resp.ShopNodes = len(affected)

	// 自动匹配：给每个分站节点找权威对应，写入交给映射层按优先级裁决
	s.autoMatch(ctx, shop, byGuid, resolver)

	now := time.Now()
	_ = s.shopRepo.UpdateFields(ctx, shop.ID, map[string]interface{}{"category_synced_at": &now})

	s.logger.Infow("分站分类树同步完成", "shop", shop.Code, "records", len(records), "touched", len(affected))
	return resp, nil
}

// autoMatch 对整棵分站树跑匹配级联
// 主站未配置时跳过（树照常入库，等主站就绪后下一轮补匹配）
func (s *TreeSyncService) autoMatch(ctx context.Context, shop *model.Shop, byGuid map[string]*model.ShopCategoryNode, resolver *PathResolver) {
	master, err := s.shopRepo.GetMaster(ctx)
	if err != nil {
		s.logger.Warnw("主站未配置，本轮跳过自动匹配", "shop", shop.Code)
		return
	}
	canonical, err := s.canonicalRepo.ListAll(ctx, master.ID)
	if err != nil || len(canonical) == 0 {
		return
	}
	idx := NewCanonicalIndex(canonical)

	// 按 ID 定序遍历：两个分站节点撞上同一个权威节点时，结果不随 map 迭代顺序漂移
	ordered := make([]*model.ShopCategoryNode, 0, len(byGuid))
	for _, node := range byGuid {
		if node.ID != 0 {
			ordered = append(ordered, node)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	matched := 0
	for _, node := range ordered {
		result := s.matcher.Match(node, resolver.Path(node.RemoteGuid), idx)
		if result == nil {
			continue
		}
		nodeID := node.ID
		applied, err := s.mappingSvc.Apply(ctx, MappingProposal{
			CategoryNodeID:     result.Node.ID,
			ShopID:             shop.ID,
			ShopCategoryNodeID: &nodeID,
			Status:             result.Status,
			Confidence:         result.Confidence,
			Source:             model.MappingSourceAuto,
		})
		if err != nil {
			s.logger.Warnw("映射写入失败", "shop", shop.Code, "guid", node.RemoteGuid, "err", err)
			continue
		}
		if applied {
			matched++
		}
	}
	s.logger.Infow("自动匹配完成", "shop", shop.Code, "applied", matched)
}

// DeleteShopSubtree 管理员显式删除分站分类：按 ID 级联删除整棵子树
func (s *TreeSyncService) DeleteShopSubtree(ctx context.Context, shopID, nodeID int64) (int64, error) {
	if _, err := s.shopRepo.GetByID(ctx, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrShopNotFound
		}
		return 0, err
	}
	return s.shopNodeRepo.DeleteSubtree(ctx, shopID, nodeID)
}

// ==================== 辅助 ====================

// expandWithDescendants 触达集合向下展开到全部子孙，带跳数上限
func expandWithDescendants(touched map[string]struct{}, views []TreeNodeView) map[string]struct{} {
	children := make(map[string][]string)
	for _, v := range views {
		if v.ParentGuid != "" {
			children[v.ParentGuid] = append(children[v.ParentGuid], v.Guid)
		}
	}

	out := make(map[string]struct{}, len(touched))
	frontier := make([]string, 0, len(touched))
	for guid := range touched {
		out[guid] = struct{}{}
		frontier = append(frontier, guid)
	}
	for hop := 0; hop < model.MaxTreeHops && len(frontier) > 0; hop++ {
		var next []string
		for _, guid := range frontier {
			for _, child := range children[guid] {
				if _, seen := out[child]; seen {
					continue
				}
				out[child] = struct{}{}
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out
}

// mergeJSONColumn 旧 JSON 列与新 map 的增量深合并
func mergeJSONColumn(old datatypes.JSON, incoming map[string]interface{}) datatypes.JSON {
	var oldMap map[string]interface{}
	if len(old) > 0 {
		_ = json.Unmarshal(old, &oldMap)
	}
	merged := DeepMergeMetadata(oldMap, incoming)
	buf, err := json.Marshal(merged)
	if err != nil {
		return old
	}
	return buf
}
