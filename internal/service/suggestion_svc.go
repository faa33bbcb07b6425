package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/pkg/utils"
)

// ==================== 候选打分常量 ====================

// 打分权重与阈值沿用线上观测值（可调参数，不要自行重推）
const (
	candidateNameWeight    = 0.55
	candidatePathWeight    = 0.35
	candidateKeywordWeight = 0.20

	candidateMaxDepthDiff = 2    // 深度差超过 2 的候选直接出局
	candidateDepthPenalty = 0.15 // 深度差为 2 时的扣分系数
	candidateMinScore     = 0.15 // 低于此分的候选丢弃
	candidateMaxCount     = 6    // 每个权威节点最多送审的候选数

	keywordMinTokenLen = 3
)

// ==================== 候选集 ====================

// MappingCandidate 为某权威节点预计算出的一个分站候选
type MappingCandidate struct {
	TargetID int64   `json:"target_id"` // 分站节点 ID
	Guid     string  `json:"guid"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Score    float64 `json:"score"`
}

// CandidateSet 单个权威节点的候选集（送给 AI 协作方的载荷单元）
type CandidateSet struct {
	CanonicalID int64              `json:"canonical_id"`
	Guid        string             `json:"guid"`
	Name        string             `json:"name"`
	Path        string             `json:"path"`
	Candidates  []MappingCandidate `json:"candidates"`
}

// ==================== AI 协作方边界 ====================

// AISuggestion AI 返回的一条候选映射。外部输入，一个字段都不能直接信
type AISuggestion struct {
	CanonicalID int64   `json:"canonical_id"`
	TargetID    *int64  `json:"target_id"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// AISuggestionResponse AI 协作方的完整响应
type AISuggestionResponse struct {
	Mappings []AISuggestion `json:"mappings"`
}

// AICallStats 一次 AI 调用的统计
type AICallStats struct {
	ModelName    string
	InputTokens  int
	OutputTokens int
	DurationMs   int64
}

// AISuggester AI 协作方接口（提示词构造与 HTTP 细节在实现侧）
type AISuggester interface {
	SuggestMappings(ctx context.Context, sets []CandidateSet) (*AISuggestionResponse, *AICallStats, error)
}

// ==================== SuggestionService ====================

// SuggestionService AI 辅助回填未映射权威节点
// 候选集本地预计算，AI 的返回逐条对着候选集校验，不在集合里的一律丢弃
type SuggestionService struct {
	shopRepo      repository.ShopRepository
	canonicalRepo repository.CanonicalNodeRepository
	shopNodeRepo  repository.ShopNodeRepository
	mappingRepo   repository.MappingRepository
	mappingSvc    *MappingService
	suggester     AISuggester
	aiLogRepo     repository.AICallLogRepository
	logger        *zap.SugaredLogger
}

// NewSuggestionService 创建建议服务
func NewSuggestionService(
	shopRepo repository.ShopRepository,
	canonicalRepo repository.CanonicalNodeRepository,
	shopNodeRepo repository.ShopNodeRepository,
	mappingRepo repository.MappingRepository,
	mappingSvc *MappingService,
	suggester AISuggester,
	aiLogRepo repository.AICallLogRepository,
	logger *zap.SugaredLogger,
) *SuggestionService {
	return &SuggestionService{
		shopRepo:      shopRepo,
		canonicalRepo: canonicalRepo,
		shopNodeRepo:  shopNodeRepo,
		mappingRepo:   mappingRepo,
		mappingSvc:    mappingSvc,
		suggester:     suggester,
		aiLogRepo:     aiLogRepo,
		logger:        logger,
	}
}

// ==================== 候选预计算 ====================

// ComputeCandidateSets 为目标分站上每个缺 confirmed 映射的权威节点算候选集
// includeMapped = true 时已 confirmed 的节点也重新送审
func (s *SuggestionService) ComputeCandidateSets(ctx context.Context, shopID int64, includeMapped bool) ([]CandidateSet, error) {
	master, err := s.shopRepo.GetMaster(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMasterShopNotConfigured
		}
		return nil, err
	}

	canonical, err := s.canonicalRepo.ListAll(ctx, master.ID)
	if err != nil {
		return nil, err
	}
	shopNodes, err := s.shopNodeRepo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	confirmed := make(map[int64]struct{})
	if !includeMapped {
		ids, err := s.mappingRepo.ListConfirmedNodeIDs(ctx, shopID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			confirmed[id] = struct{}{}
		}
	}

	canonicalResolver := NewPathResolver(CanonicalNodeViews(canonical))
	shopResolver := NewPathResolver(ShopNodeViews(shopNodes))

	// 分站侧的归一化串和词集提前算一遍，双重循环里不重复做
	type shopEntry struct {
		node     *model.ShopCategoryNode
		path     string
		depth    int
		normName string
		normPath string
		tokens   []string
	}
	entries := make([]shopEntry, 0, len(shopNodes))
	for i := range shopNodes {
		n := &shopNodes[i]
		path := shopResolver.Path(n.RemoteGuid)
		entries = append(entries, shopEntry{
			node:     n,
			path:     path,
			depth:    shopResolver.Depth(n.RemoteGuid),
			normName: utils.NormalizeForMatch(n.Name),
			normPath: utils.NormalizeForMatch(path),
			tokens:   utils.Tokenize(n.Name+" "+path, keywordMinTokenLen),
		})
	}

	sets := make([]CandidateSet, 0, len(canonical))
	for i := range canonical {
		cn := &canonical[i]
		if _, has := confirmed[cn.ID]; has {
			continue
		}
		cnPath := canonicalResolver.Path(cn.Guid)
		cnDepth := canonicalResolver.Depth(cn.Guid)
		cnNormName := utils.NormalizeForMatch(cn.Name)
		cnNormPath := utils.NormalizeForMatch(cnPath)
		cnTokens := utils.Tokenize(cn.Name+" "+cnPath, keywordMinTokenLen)

		var candidates []MappingCandidate
		for _, e := range entries {
			depthDiff := cnDepth - e.depth
			if depthDiff < 0 {
				depthDiff = -depthDiff
			}
			if depthDiff > candidateMaxDepthDiff {
				continue
			}

			score := candidateNameWeight*utils.Similarity(cnNormName, e.normName) +
				candidatePathWeight*utils.Similarity(cnNormPath, e.normPath) +
				candidateKeywordWeight*utils.JaccardOverlap(cnTokens, e.tokens)
			if depthDiff == candidateMaxDepthDiff {
				score -= candidateDepthPenalty * float64(depthDiff-1)
			}
			if score < candidateMinScore {
				continue
			}
			candidates = append(candidates, MappingCandidate{
				TargetID: e.node.ID,
				Guid:     e.node.RemoteGuid,
				Name:     e.node.Name,
				Path:     e.path,
				Score:    score,
			})
		}

		sort.SliceStable(candidates, func(a, b int) bool {
			if candidates[a].Score != candidates[b].Score {
				return candidates[a].Score > candidates[b].Score
			}
			return candidates[a].TargetID < candidates[b].TargetID
		})
		if len(candidates) > candidateMaxCount {
			candidates = candidates[:candidateMaxCount]
		}
		if len(candidates) == 0 {
			continue
		}

		sets = append(sets, CandidateSet{
			CanonicalID: cn.ID,
			Guid:        cn.Guid,
			Name:        cn.Name,
			Path:        cnPath,
			Candidates:  candidates,
		})
	}
	return sets, nil
}

// ==================== 建议批次 ====================

// RunSuggestions 跑一个 AI 建议批次：预计算候选 → 调协作方 → 校验合并
// 协作方超时或响应不可解析时返回类型化失败，本批一条都不落库
func (s *SuggestionService) RunSuggestions(ctx context.Context, shopID int64, includeMapped bool) (*dto.SuggestionRunResp, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}

	runID := uuid.NewString()
	resp := &dto.SuggestionRunResp{RunID: runID}

	sets, err := s.ComputeCandidateSets(ctx, shop.ID, includeMapped)
	if err != nil {
		return nil, err
	}
	resp.CandidateNodes = len(sets)
	if len(sets) == 0 {
		return resp, nil
	}

	aiResp, stats, err := s.suggester.SuggestMappings(ctx, sets)
	if err != nil {
		s.writeCallLog(ctx, shop.ID, runID, stats, len(sets), 0, 0, err)
		return nil, fmt.Errorf("%w: %v", ErrAISuggestFailed, err)
	}

	// 先全量校验再统一落库，半截响应不会写进一半
	setByID := make(map[int64]*CandidateSet, len(sets))
	for i := range sets {
		setByID[sets[i].CanonicalID] = &sets[i]
	}

	accepted := make([]AISuggestion, 0, len(aiResp.Mappings))
	dropped := 0
	for _, sug := range aiResp.Mappings {
		set, known := setByID[sug.CanonicalID]
		if !known {
			// 未知权威节点（或未经允许对已映射节点重出建议）：丢
			dropped++
			continue
		}
		if sug.TargetID != nil && !candidateContains(set.Candidates, *sug.TargetID) {
			// 目标不在本地算出的候选集里：外部输入不可信，丢
			dropped++
			continue
		}
		accepted = append(accepted, sug)
	}

	applied := 0
	for _, sug := range accepted {
		ok, err := s.mappingSvc.Apply(ctx, MappingProposal{
			CategoryNodeID:     sug.CanonicalID,
			ShopID:             shop.ID,
			ShopCategoryNodeID: sug.TargetID,
			Status:             model.MappingStatusSuggested,
			Confidence:         sug.Confidence, // Apply 内部夹到 [0,1]
			Source:             model.MappingSourceAI,
		})
		if err != nil {
			s.logger.Warnw("AI 建议落库失败", "run", runID, "canonical", sug.CanonicalID, "err", err)
			dropped++
			continue
		}
		if ok {
			applied++
		}
	}

	resp.Accepted = applied
	resp.Dropped = dropped
	s.writeCallLog(ctx, shop.ID, runID, stats, len(sets), applied, dropped, nil)
	s.logger.Infow("AI 建议批次完成", "shop", shop.Code, "run", runID, "candidates", len(sets), "accepted", applied, "dropped", dropped)
	return resp, nil
}

func candidateContains(candidates []MappingCandidate, targetID int64) bool {
	for _, c := range candidates {
		if c.TargetID == targetID {
			return true
		}
	}
	return false
}

func (s *SuggestionService) writeCallLog(ctx context.Context, shopID int64, runID string, stats *AICallStats, candidateNodes, accepted, dropped int, callErr error) {
	entry := &model.AICallLog{
		ShopID:         shopID,
		RunID:          runID,
		CallType:       model.AICallTypeMapping,
		CandidateNodes: candidateNodes,
		Accepted:       accepted,
		Dropped:        dropped,
		Status:         model.AICallStatusSuccess,
	}
	if stats != nil {
		entry.ModelName = stats.ModelName
		entry.InputTokens = stats.InputTokens
		entry.OutputTokens = stats.OutputTokens
		entry.DurationMs = stats.DurationMs
	}
	if callErr != nil {
		entry.Status = model.AICallStatusFailed
		if errors.Is(callErr, context.DeadlineExceeded) {
			entry.Status = model.AICallStatusTimeout
		}
		entry.ErrorMsg = callErr.Error()
	}
	if err := s.aiLogRepo.Create(ctx, entry); err != nil {
		s.logger.Warnw("AI 调用日志写入失败", "run", runID, "err", err)
	}
}
