package service

import (
	"strings"

	"shophub_v1_202608/internal/model"
)

// PathSeparator 面包屑路径分隔符
const PathSeparator = " > "

// TreeNodeView 路径计算所需的最小节点视图
// 权威树和分站树都降维成这个形状，算法本身不关心来源
type TreeNodeView struct {
	ID         int64
	Guid       string
	ParentGuid string
	Name       string
}

// PathResolver 面包屑路径计算器
// 实例随一次同步调用创建、用完即弃，缓存不跨调用复用
// 父链遍历带 MaxTreeHops 上限：远端环/坏父引用只会得到截断路径，绝不挂死
type PathResolver struct {
	byGuid map[string]TreeNodeView
	cache  map[string]string
}

// NewPathResolver 从节点集合建立索引
func NewPathResolver(nodes []TreeNodeView) *PathResolver {
	byGuid := make(map[string]TreeNodeView, len(nodes))
	for _, n := range nodes {
		byGuid[n.Guid] = n
	}
	return &PathResolver{
		byGuid: byGuid,
		cache:  make(map[string]string, len(nodes)),
	}
}

// Path 计算某 GUID 节点的面包屑路径 "A > B > C"
// 未知 GUID 返回空串；环和断链在跳数上限处截断
func (r *PathResolver) Path(guid string) string {
	if cached, ok := r.cache[guid]; ok {
		return cached
	}

	node, ok := r.byGuid[guid]
	if !ok {
		return ""
	}

	segments := []string{node.Name}
	visited := map[string]struct{}{guid: {}}

	cur := node
	for hop := 0; hop < model.MaxTreeHops; hop++ {
		if cur.ParentGuid == "" {
			break
		}
		// 父链成环：到此为止
		if _, looped := visited[cur.ParentGuid]; looped {
			break
		}
		parent, found := r.byGuid[cur.ParentGuid]
		if !found {
			break
		}
		// 父路径已缓存则直接拼接
		if parentPath, hit := r.cache[parent.Guid]; hit {
			reverse(segments)
			full := parentPath + PathSeparator + strings.Join(segments, PathSeparator)
			r.cache[guid] = full
			return full
		}
		visited[parent.Guid] = struct{}{}
		segments = append(segments, parent.Name)
		cur = parent
	}

	reverse(segments)
	full := strings.Join(segments, PathSeparator)
	r.cache[guid] = full
	return full
}

// Depth 节点深度（根 = 1），未知 GUID 返回 0
func (r *PathResolver) Depth(guid string) int {
	node, ok := r.byGuid[guid]
	if !ok {
		return 0
	}

	depth := 1
	visited := map[string]struct{}{guid: {}}
	cur := node
	for hop := 0; hop < model.MaxTreeHops; hop++ {
		if cur.ParentGuid == "" {
			break
		}
		if _, looped := visited[cur.ParentGuid]; looped {
			break
		}
		parent, found := r.byGuid[cur.ParentGuid]
		if !found {
			break
		}
		visited[parent.Guid] = struct{}{}
		depth++
		cur = parent
	}
	return depth
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// ==================== 视图构造 ====================

// CanonicalNodeViews 权威节点集合 → 路径视图
func CanonicalNodeViews(nodes []model.CanonicalCategoryNode) []TreeNodeView {
	views := make([]TreeNodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, TreeNodeView{ID: n.ID, Guid: n.Guid, ParentGuid: n.ParentGuid, Name: n.Name})
	}
	return views
}

// ShopNodeViews 分站节点集合 → 路径视图
func ShopNodeViews(nodes []model.ShopCategoryNode) []TreeNodeView {
	views := make([]TreeNodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, TreeNodeView{ID: n.ID, Guid: n.RemoteGuid, ParentGuid: n.ParentGuid, Name: n.Name})
	}
	return views
}
