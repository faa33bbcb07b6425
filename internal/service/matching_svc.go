package service

import (
	"strings"

	"shophub_v1_202608/internal/model"
)

// ==================== 匹配常量 ====================

// 级联各档置信度。数值沿用线上观测值，属于可调参数，不要自行重推
const (
	ConfidenceGuidMatch = 1.0
	ConfidenceSlugMatch = 0.70
	ConfidencePathMatch = 0.60
	ConfidenceNameMatch = 0.40
)

// ==================== 权威树索引 ====================

// CanonicalIndex 权威节点的查询索引，一次同步构建一份
type CanonicalIndex struct {
	nodes  []model.CanonicalCategoryNode
	byGuid map[string]int
	bySlug map[string][]int // 小写 slug -> 节点下标
	byPath map[string][]int // 小写路径 -> 节点下标
	byName map[string][]int // 小写名称 -> 节点下标

	resolver *PathResolver
}

// NewCanonicalIndex 建立权威树索引
func NewCanonicalIndex(nodes []model.CanonicalCategoryNode) *CanonicalIndex {
	idx := &CanonicalIndex{
		nodes:    nodes,
		byGuid:   make(map[string]int, len(nodes)),
		bySlug:   make(map[string][]int),
		byPath:   make(map[string][]int),
		byName:   make(map[string][]int),
		resolver: NewPathResolver(CanonicalNodeViews(nodes)),
	}
	for i, n := range nodes {
		idx.byGuid[n.Guid] = i
		if n.Slug != "" {
			key := strings.ToLower(n.Slug)
			idx.bySlug[key] = append(idx.bySlug[key], i)
		}
		if n.Name != "" {
			key := strings.ToLower(n.Name)
			idx.byName[key] = append(idx.byName[key], i)
		}
	}
	for i, n := range nodes {
		if path := idx.resolver.Path(n.Guid); path != "" {
			key := strings.ToLower(path)
			idx.byPath[key] = append(idx.byPath[key], i)
		}
	}
	return idx
}

// NodeByGuid 按 GUID 取权威节点
func (idx *CanonicalIndex) NodeByGuid(guid string) *model.CanonicalCategoryNode {
	if i, ok := idx.byGuid[guid]; ok {
		return &idx.nodes[i]
	}
	return nil
}

// Path 权威节点的面包屑路径
func (idx *CanonicalIndex) Path(guid string) string {
	return idx.resolver.Path(guid)
}

// Depth 权威节点深度
func (idx *CanonicalIndex) Depth(guid string) int {
	return idx.resolver.Depth(guid)
}

// Nodes 全部权威节点
func (idx *CanonicalIndex) Nodes() []model.CanonicalCategoryNode {
	return idx.nodes
}

// ==================== 匹配引擎 ====================

// MatchResult 级联命中的结果
type MatchResult struct {
	Node       *model.CanonicalCategoryNode
	Confidence float64
	Status     model.MappingStatus
}

// MatchingEngine 为单个分站节点寻找最佳权威对应
// 纯函数：同样输入必得同样输出，不产生副作用（幂等重同步依赖这一点）
type MatchingEngine struct{}

// NewMatchingEngine 创建匹配引擎
func NewMatchingEngine() *MatchingEngine {
	return &MatchingEngine{}
}

// Match 按严格顺序跑级联，第一个无歧义命中的策略胜出
// 策略内多候选并列时用 parent_guid 消歧：恰剩一个则取之，否则整档作废下落
// 四档全失败返回 nil（保持未映射，不是错误）
func (e *MatchingEngine) Match(shopNode *model.ShopCategoryNode, shopPath string, idx *CanonicalIndex) *MatchResult {
	// 1. GUID 全等：远端直接镜像权威分类的情况，名称不一致也算实锤
	if i, ok := idx.byGuid[shopNode.RemoteGuid]; ok {
		return &MatchResult{
			Node:       &idx.nodes[i],
			Confidence: ConfidenceGuidMatch,
			Status:     model.MappingStatusConfirmed,
		}
	}

	// 2. slug 全等（大小写不敏感）
	if shopNode.Slug != "" {
		if result := e.pickCandidates(idx, idx.bySlug[strings.ToLower(shopNode.Slug)], shopNode, ConfidenceSlugMatch); result != nil {
			return result
		}
	}

	// 3. 完整路径全等（大小写不敏感）
	if shopPath != "" {
		if result := e.pickCandidates(idx, idx.byPath[strings.ToLower(shopPath)], shopNode, ConfidencePathMatch); result != nil {
			return result
		}
	}

	// 4. 裸名称全等（大小写不敏感）
	if shopNode.Name != "" {
		if result := e.pickCandidates(idx, idx.byName[strings.ToLower(shopNode.Name)], shopNode, ConfidenceNameMatch); result != nil {
			return result
		}
	}

	return nil
}

// pickCandidates 单策略的取舍：唯一候选直取；并列走 parent_guid 消歧
func (e *MatchingEngine) pickCandidates(idx *CanonicalIndex, candidates []int, shopNode *model.ShopCategoryNode, confidence float64) *MatchResult {
	if len(candidates) == 0 {
		return nil
	}

	picked := -1
	if len(candidates) == 1 {
		picked = candidates[0]
	} else {
		// 并列消歧：比较候选的 parent_guid 和分站节点的 parent_guid
		// 空 parent_guid 视为信息缺失而不是相等：两侧都是根节点时不做"空等于空"的命中
		survivors := make([]int, 0, len(candidates))
		for _, i := range candidates {
			if idx.nodes[i].ParentGuid != "" && idx.nodes[i].ParentGuid == shopNode.ParentGuid {
				survivors = append(survivors, i)
			}
		}
		if len(survivors) != 1 {
			// 消歧失败，整档按未命中处理，级联继续下落
			return nil
		}
		picked = survivors[0]
	}

	return &MatchResult{
		Node:       &idx.nodes[picked],
		Confidence: confidence,
		Status:     model.MappingStatusSuggested,
	}
}
