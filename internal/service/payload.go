package service

import (
	"strings"

	"shophub_v1_202608/pkg/utils"
)

// 远端载荷是弱类型 map，同一概念在不同分站版本里键名不一
// 同义键列表集中放在这里当数据维护，取值函数按优先级逐个尝试

// RawCategory 快照里的一条分类记录
type RawCategory = map[string]interface{}

// ==================== 同义键表 ====================

var (
	guidKeys       = []string{"guid", "categoryGuid", "category_guid", "uuid"}
	parentGuidKeys = []string{"parentGuid", "parent_guid", "parentCategoryGuid"}
	nameKeys       = []string{"name", "categoryName", "title"}
	slugKeys       = []string{"friendlyUrl", "friendly_url", "url", "slug"}
	pathKeys       = []string{"path", "categoryPath", "breadcrumb"}
	positionKeys   = []string{"position", "sortOrder", "priority"}
	visibleKeys    = []string{"visible", "isVisible", "active"}

	// 载荷里可能承载分类集合的外层键
	categoryCollectionKeys = []string{"categories", "allCategories", "defaultCategory", "category", "children", "subCategories"}

	// 结构字段，合并展示元数据时剔除
	structuralKeys = map[string]struct{}{}
)

func init() {
	for _, ks := range [][]string{guidKeys, parentGuidKeys, nameKeys, slugKeys, pathKeys, positionKeys, visibleKeys} {
		for _, k := range ks {
			structuralKeys[k] = struct{}{}
		}
	}
}

// ==================== 取值函数 ====================

// stringField 按同义键优先级取字符串字段
func stringField(raw map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			switch s := v.(type) {
			case string:
				if strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s), true
				}
			}
		}
	}
	return "", false
}

// intField 按同义键优先级取整数字段（JSON 数字解出来是 float64）
func intField(raw map[string]interface{}, keys []string) (int, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			switch n := v.(type) {
			case float64:
				return int(n), true
			case int:
				return n, true
			case int64:
				return int(n), true
			}
		}
	}
	return 0, false
}

// boolField 按同义键优先级取布尔字段
func boolField(raw map[string]interface{}, keys []string, def bool) bool {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
	}
	return def
}

// ==================== 快照拍平 ====================

// FlattenCategoryPayload 把任意形状的快照载荷拍平成按 GUID 去重的记录序列
// 接受：记录数组；或一个信封对象，分类藏在若干同义集合键下；记录自身
// 还可能嵌套 children。首次出现的记录保留，后续同 GUID 的丢弃，顺序稳定
func FlattenCategoryPayload(payload interface{}) []RawCategory {
	var out []RawCategory
	seen := make(map[string]struct{})

	var walk func(v interface{}, depth int)
	walk = func(v interface{}, depth int) {
		if depth > 50 {
			return
		}
		switch tv := v.(type) {
		case []interface{}:
			for _, item := range tv {
				walk(item, depth+1)
			}
		case []RawCategory:
			for _, item := range tv {
				walk(item, depth+1)
			}
		case RawCategory:
			guid, ok := stringField(tv, guidKeys)
			if ok {
				if _, dup := seen[guid]; !dup {
					seen[guid] = struct{}{}
					out = append(out, tv)
				}
				// 记录内部可能还挂着子分类
				for _, key := range categoryCollectionKeys {
					if sub, has := tv[key]; has {
						walk(sub, depth+1)
					}
				}
				return
			}
			// 没有 GUID 的对象当信封处理
			for _, key := range categoryCollectionKeys {
				if sub, has := tv[key]; has {
					walk(sub, depth+1)
				}
			}
		}
	}

	walk(payload, 0)
	return out
}

// ==================== 元数据合并 ====================

// PresentationFields 记录里除结构字段外的展示字段
func PresentationFields(raw RawCategory) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range raw {
		if _, structural := structuralKeys[k]; structural {
			continue
		}
		isCollection := false
		for _, ck := range categoryCollectionKeys {
			if k == ck {
				isCollection = true
				break
			}
		}
		if isCollection {
			continue
		}
		out[k] = v
	}
	return out
}

// DeepMergeMetadata 增量深合并：新载荷赢重叠键，旧键在新载荷缺席时保留
func DeepMergeMetadata(old, incoming map[string]interface{}) map[string]interface{} {
	if old == nil {
		old = make(map[string]interface{})
	}
	merged := make(map[string]interface{}, len(old)+len(incoming))
	for k, v := range old {
		merged[k] = v
	}
	for k, nv := range incoming {
		ov, exists := merged[k]
		if !exists {
			merged[k] = nv
			continue
		}
		oldMap, oldIsMap := ov.(map[string]interface{})
		newMap, newIsMap := nv.(map[string]interface{})
		if oldIsMap && newIsMap {
			merged[k] = DeepMergeMetadata(oldMap, newMap)
		} else {
			merged[k] = nv
		}
	}
	return merged
}

// ==================== 分类引用归一化（一致性校验用） ====================

// CategoryRef 从分站载荷里扫出的一条分类引用
type CategoryRef struct {
	Guid string
	Name string
	Path string
}

// 引用归一化按封闭的形状集处理：
// 裸 GUID 字符串 / 裸路径字符串 / 带 GUID 的对象 / 带路径的对象

// refFromString 裸字符串：含路径分隔符的按路径读，否则按 GUID 读
func refFromString(s string) (CategoryRef, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryRef{}, false
	}
	if strings.Contains(s, ">") || strings.Contains(s, "/") {
		return CategoryRef{Path: s}, true
	}
	return CategoryRef{Guid: s}, true
}

// refFromObject 对象形状：按同义键抽 GUID / 路径 / 名称
func refFromObject(obj map[string]interface{}) (CategoryRef, bool) {
	ref := CategoryRef{}
	if guid, ok := stringField(obj, guidKeys); ok {
		ref.Guid = guid
	}
	if path, ok := stringField(obj, pathKeys); ok {
		ref.Path = path
	}
	if name, ok := stringField(obj, nameKeys); ok {
		ref.Name = name
	}
	if ref.Guid == "" && ref.Path == "" {
		return CategoryRef{}, false
	}
	return ref, true
}

// 载荷里可能承载分类引用的键（对象集合键之外再加单值引用键）
var categoryRefKeys = append([]string{"categoryGuid", "category_guid", "categoryPath", "breadcrumb", "defaultCategoryGuid"}, categoryCollectionKeys...)

// CollectCategoryRefs 深扫载荷，归一化出全部分类引用并按 (guid, path) 去重
func CollectCategoryRefs(payload interface{}) []CategoryRef {
	var out []CategoryRef
	seen := make(map[string]struct{})

	add := func(ref CategoryRef) {
		key := ref.Guid + "|" + strings.ToLower(ref.Path)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}

	var interpret func(v interface{}, depth int)
	var walk func(v interface{}, depth int)

	// interpret 把引用键下的值解成引用
	interpret = func(v interface{}, depth int) {
		if depth > 50 {
			return
		}
		switch tv := v.(type) {
		case string:
			if ref, ok := refFromString(tv); ok {
				add(ref)
			}
		case map[string]interface{}:
			if ref, ok := refFromObject(tv); ok {
				add(ref)
			}
			walk(tv, depth+1)
		case []interface{}:
			for _, item := range tv {
				interpret(item, depth+1)
			}
		}
	}

	// walk 继续在载荷其余部分找引用键
	walk = func(v interface{}, depth int) {
		if depth > 50 {
			return
		}
		switch tv := v.(type) {
		case map[string]interface{}:
			for k, sub := range tv {
				isRefKey := false
				for _, rk := range categoryRefKeys {
					if strings.EqualFold(k, rk) {
						isRefKey = true
						break
					}
				}
				if isRefKey {
					interpret(sub, depth+1)
				} else {
					walk(sub, depth+1)
				}
			}
		case []interface{}:
			for _, item := range tv {
				walk(item, depth+1)
			}
		}
	}

	walk(payload, 0)
	return out
}

// RefPathSegments 引用路径的段表示
func RefPathSegments(ref CategoryRef) []string {
	return utils.SplitPathSegments(ref.Path)
}
