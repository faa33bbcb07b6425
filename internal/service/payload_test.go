package service

import (
	"encoding/json"
	"testing"
)

func TestFlattenCategoryPayload_Array(t *testing.T) {
	payload := []interface{}{
		RawCategory{"guid": "g1", "name": "Home"},
		RawCategory{"guid": "g2", "name": "Decor", "parentGuid": "g1"},
	}
	records := FlattenCategoryPayload(payload)
	if len(records) != 2 {
		t.Fatalf("记录数 = %d, want 2", len(records))
	}
	if guid, _ := stringField(records[0], guidKeys); guid != "g1" {
		t.Errorf("首条 GUID = %q, want g1", guid)
	}
}

func TestFlattenCategoryPayload_Envelope(t *testing.T) {
	// 信封对象：分类藏在同义集合键下，记录内还嵌 children
	payload := RawCategory{
		"meta": "ignored",
		"categories": []interface{}{
			RawCategory{
				"guid": "g1", "name": "Home",
				"children": []interface{}{
					RawCategory{"guid": "g2", "name": "Decor", "parentGuid": "g1"},
				},
			},
		},
	}
	records := FlattenCategoryPayload(payload)
	if len(records) != 2 {
		t.Fatalf("记录数 = %d, want 2", len(records))
	}
}

func TestFlattenCategoryPayload_DedupeKeepsFirst(t *testing.T) {
	payload := []interface{}{
		RawCategory{"guid": "g1", "name": "First"},
		RawCategory{"guid": "g1", "name": "Second"},
	}
	records := FlattenCategoryPayload(payload)
	if len(records) != 1 {
		t.Fatalf("去重后记录数 = %d, want 1", len(records))
	}
	if name, _ := stringField(records[0], nameKeys); name != "First" {
		t.Errorf("同 GUID 应保留首条, got %q", name)
	}
}

func TestFlattenCategoryPayload_FromJSON(t *testing.T) {
	// 真实路径：载荷从 JSON 解出来全是 map[string]interface{}
	raw := `{"allCategories":[{"guid":"a","name":"A"},{"guid":"b","name":"B","noise":1}]}`
	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("解析测试载荷失败: %v", err)
	}
	records := FlattenCategoryPayload(payload)
	if len(records) != 2 {
		t.Fatalf("记录数 = %d, want 2", len(records))
	}
}

func TestPresentationFields(t *testing.T) {
	raw := RawCategory{
		"guid":       "g1",
		"name":       "Home",
		"parentGuid": "",
		"children":   []interface{}{},
		"imageUrl":   "https://img.example/1.jpg",
		"seo":        map[string]interface{}{"title": "Home"},
	}
	out := PresentationFields(raw)
	if _, has := out["guid"]; has {
		t.Error("结构字段 guid 不应进展示元数据")
	}
	if _, has := out["children"]; has {
		t.Error("集合键 children 不应进展示元数据")
	}
	if out["imageUrl"] != "https://img.example/1.jpg" {
		t.Errorf("展示字段丢失: %v", out)
	}
}

func TestDeepMergeMetadata(t *testing.T) {
	old := map[string]interface{}{
		"imageUrl": "old.jpg",
		"seo": map[string]interface{}{
			"title":       "Old",
			"description": "keep me",
		},
	}
	incoming := map[string]interface{}{
		"imageUrl": "new.jpg",
		"seo": map[string]interface{}{
			"title": "New",
		},
	}
	merged := DeepMergeMetadata(old, incoming)
	if merged["imageUrl"] != "new.jpg" {
		t.Errorf("重叠标量应新值赢, got %v", merged["imageUrl"])
	}
	seo := merged["seo"].(map[string]interface{})
	if seo["title"] != "New" {
		t.Errorf("嵌套重叠键应新值赢, got %v", seo["title"])
	}
	if seo["description"] != "keep me" {
		t.Errorf("新载荷缺席的旧键应保留, got %v", seo["description"])
	}

	if got := DeepMergeMetadata(nil, map[string]interface{}{"a": 1}); got["a"] != 1 {
		t.Errorf("nil 旧值合并失败: %v", got)
	}
}

func TestCollectCategoryRefs(t *testing.T) {
	raw := `{
		"defaultCategoryGuid": "g-default",
		"categoryPath": "Home > Decor",
		"categories": [
			{"guid": "g-obj", "name": "Vases", "path": "Home > Decor > Vases"},
			"bare-guid",
			"Gifts > For Her"
		]
	}`
	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("解析测试载荷失败: %v", err)
	}

	refs := CollectCategoryRefs(payload)
	byKey := make(map[string]CategoryRef)
	for _, r := range refs {
		byKey[r.Guid+"|"+r.Path] = r
	}

	if _, ok := byKey["g-default|"]; !ok {
		t.Error("裸 GUID 引用键未被收集")
	}
	if _, ok := byKey["|Home > Decor"]; !ok {
		t.Error("裸路径引用键未被收集")
	}
	if r, ok := byKey["g-obj|Home > Decor > Vases"]; !ok || r.Name != "Vases" {
		t.Errorf("对象形引用收集不完整: %+v", r)
	}
	if _, ok := byKey["bare-guid|"]; !ok {
		t.Error("集合里的裸 GUID 字符串未被收集")
	}
	if _, ok := byKey["|Gifts > For Her"]; !ok {
		t.Error("集合里的裸路径字符串未被收集")
	}
}

func TestCollectCategoryRefs_Dedupe(t *testing.T) {
	payload := RawCategory{
		"categoryGuid":        "g1",
		"defaultCategoryGuid": "g1",
	}
	refs := CollectCategoryRefs(payload)
	if len(refs) != 1 {
		t.Errorf("同 (guid, path) 应去重, got %d 条", len(refs))
	}
}

func TestRefFromString(t *testing.T) {
	if ref, ok := refFromString("Home > Decor"); !ok || ref.Path != "Home > Decor" || ref.Guid != "" {
		t.Errorf("路径串解析错误: %+v", ref)
	}
	if ref, ok := refFromString("abc-123"); !ok || ref.Guid != "abc-123" {
		t.Errorf("GUID 串解析错误: %+v", ref)
	}
	if _, ok := refFromString("   "); ok {
		t.Error("空白串不应得到引用")
	}
}
