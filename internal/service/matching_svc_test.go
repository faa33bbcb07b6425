package service

import (
	"testing"

	"shophub_v1_202608/internal/model"
)

func testCanonicalIndex() *CanonicalIndex {
	nodes := []model.CanonicalCategoryNode{
		{BaseModel: model.BaseModel{ID: 1}, Guid: "c-root", Name: "Parfémy", Slug: "parfemy"},
		{BaseModel: model.BaseModel{ID: 2}, Guid: "c-men", ParentGuid: "c-root", Name: "Pánské", Slug: "panske-parfemy"},
		{BaseModel: model.BaseModel{ID: 3}, Guid: "c-gifts", Name: "Dárky", Slug: "darky"},
		// 两个同名节点挂在不同父下，裸名称撞车
		{BaseModel: model.BaseModel{ID: 4}, Guid: "c-gift-her", ParentGuid: "c-gifts", Name: "Sety", Slug: "sety-pro-ni"},
		{BaseModel: model.BaseModel{ID: 5}, Guid: "c-gift-him", ParentGuid: "c-men", Name: "Sety", Slug: "sety-pro-nej"},
	}
	return NewCanonicalIndex(nodes)
}

func TestMatchingEngine_GuidMatch(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	// GUID 全等：名称完全不同也算实锤
	node := &model.ShopCategoryNode{RemoteGuid: "c-men", Name: "Perfumes for Men"}
	result := engine.Match(node, "Perfumes > For Men", idx)
	if result == nil {
		t.Fatal("GUID 全等应命中")
	}
	if result.Node.ID != 2 {
		t.Errorf("命中节点 ID = %d, want 2", result.Node.ID)
	}
	if result.Confidence != ConfidenceGuidMatch {
		t.Errorf("置信度 = %v, want %v", result.Confidence, ConfidenceGuidMatch)
	}
	if result.Status != model.MappingStatusConfirmed {
		t.Errorf("状态 = %v, want confirmed", result.Status)
	}
}

func TestMatchingEngine_SlugMatch(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	node := &model.ShopCategoryNode{RemoteGuid: "r-1", Name: "Perfumes", Slug: "PARFEMY"}
	result := engine.Match(node, "Perfumes", idx)
	if result == nil {
		t.Fatal("slug 全等（大小写不敏感）应命中")
	}
	if result.Node.Guid != "c-root" {
		t.Errorf("命中 GUID = %q, want c-root", result.Node.Guid)
	}
	if result.Confidence != ConfidenceSlugMatch {
		t.Errorf("置信度 = %v, want %v", result.Confidence, ConfidenceSlugMatch)
	}
	if result.Status != model.MappingStatusSuggested {
		t.Errorf("状态 = %v, want suggested", result.Status)
	}
}

func TestMatchingEngine_PathMatch(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	// 无 GUID 无 slug 命中，完整路径撞上权威路径 "Parfémy > Pánské"
	node := &model.ShopCategoryNode{RemoteGuid: "r-2", Name: "Whatever", Slug: "no-such-slug"}
	result := engine.Match(node, "parfémy > pánské", idx)
	if result == nil {
		t.Fatal("路径全等应命中")
	}
	if result.Node.Guid != "c-men" {
		t.Errorf("命中 GUID = %q, want c-men", result.Node.Guid)
	}
	if result.Confidence != ConfidencePathMatch {
		t.Errorf("置信度 = %v, want %v", result.Confidence, ConfidencePathMatch)
	}
}

func TestMatchingEngine_NameMatch(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	node := &model.ShopCategoryNode{RemoteGuid: "r-3", Name: "dárky"}
	result := engine.Match(node, "Gifts", idx)
	if result == nil {
		t.Fatal("裸名称全等应命中")
	}
	if result.Node.Guid != "c-gifts" {
		t.Errorf("命中 GUID = %q, want c-gifts", result.Node.Guid)
	}
	if result.Confidence != ConfidenceNameMatch {
		t.Errorf("置信度 = %v, want %v", result.Confidence, ConfidenceNameMatch)
	}
}

func TestMatchingEngine_ParentDisambiguation(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	// 两个 "Sety" 并列，分站节点的 parent_guid 指向其中一个的父
	node := &model.ShopCategoryNode{RemoteGuid: "r-4", Name: "Sety", ParentGuid: "c-men"}
	result := engine.Match(node, "Sets", idx)
	if result == nil {
		t.Fatal("parent_guid 消歧应命中")
	}
	if result.Node.Guid != "c-gift-him" {
		t.Errorf("消歧命中 GUID = %q, want c-gift-him", result.Node.Guid)
	}
}

func TestMatchingEngine_AmbiguousFallsThrough(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	// 名称撞两个候选且 parent_guid 谁也对不上：整档作废，级联无后续 → nil
	node := &model.ShopCategoryNode{RemoteGuid: "r-5", Name: "Sety", ParentGuid: "unrelated"}
	if result := engine.Match(node, "Sets", idx); result != nil {
		t.Errorf("消歧失败应返回 nil, got %+v", result)
	}
}

func TestMatchingEngine_RootTieNotDisambiguated(t *testing.T) {
	engine := NewMatchingEngine()
	nodes := []model.CanonicalCategoryNode{
		// 同名撞车：一个根节点、一个挂在父下
		{BaseModel: model.BaseModel{ID: 1}, Guid: "c-outlet-root", Name: "Outlet", Slug: "outlet"},
		{BaseModel: model.BaseModel{ID: 2}, Guid: "c-parent", Name: "Akce", Slug: "akce"},
		{BaseModel: model.BaseModel{ID: 3}, Guid: "c-outlet-sub", ParentGuid: "c-parent", Name: "Outlet", Slug: "akce-outlet"},
	}
	idx := NewCanonicalIndex(nodes)

	// 分站节点也是根：空 parent_guid 不参与消歧，"空等于空"不算命中
	// 路径传空，避免路径档先于名称档命中根节点（见 REVIEW_FINDINGS F4）
	node := &model.ShopCategoryNode{RemoteGuid: "r-7", Name: "Outlet"}
	if result := engine.Match(node, "", idx); result != nil {
		t.Errorf("根节点并列不应靠空 parent_guid 消歧, got %+v", result)
	}
}

func TestMatchingEngine_NoMatch(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	node := &model.ShopCategoryNode{RemoteGuid: "r-6", Name: "Keramika", Slug: "keramika"}
	if result := engine.Match(node, "Keramika", idx); result != nil {
		t.Errorf("四档全失败应返回 nil（保持未映射）, got %+v", result)
	}
}

func TestMatchingEngine_Deterministic(t *testing.T) {
	engine := NewMatchingEngine()
	idx := testCanonicalIndex()

	node := &model.ShopCategoryNode{RemoteGuid: "r-7", Name: "Dárky"}
	first := engine.Match(node, "Gifts", idx)
	for i := 0; i < 10; i++ {
		again := engine.Match(node, "Gifts", idx)
		if again == nil || first == nil || again.Node.ID != first.Node.ID || again.Confidence != first.Confidence {
			t.Fatal("同样输入必须得到同样输出")
		}
	}
}
