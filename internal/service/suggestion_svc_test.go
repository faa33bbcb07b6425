package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
	"shophub_v1_202608/pkg/logger"
)

// fakeSuggester 可编程的 AI 协作方替身
type fakeSuggester struct {
	resp *AISuggestionResponse
	err  error
	// 记录收到的候选集，供断言
	gotSets []CandidateSet
}

func (f *fakeSuggester) SuggestMappings(_ context.Context, sets []CandidateSet) (*AISuggestionResponse, *AICallStats, error) {
	f.gotSets = sets
	stats := &AICallStats{ModelName: "test-model", InputTokens: 10, OutputTokens: 5, DurationMs: 3}
	if f.err != nil {
		return nil, stats, f.err
	}
	return f.resp, stats, nil
}

func newTestSuggestionService(db *gorm.DB, suggester AISuggester) *SuggestionService {
	return NewSuggestionService(
		repository.NewShopRepository(db),
		repository.NewCanonicalNodeRepository(db),
		repository.NewShopNodeRepository(db),
		repository.NewMappingRepository(db),
		newTestMappingService(db),
		suggester,
		repository.NewAICallLogRepository(db),
		logger.NewNop(),
	)
}

// seedSuggestionFixture 主站两节点 + 分站两节点，名称可区分相似度
func seedSuggestionFixture(t *testing.T, db *gorm.DB) (master, shop model.Shop, canon []model.CanonicalCategoryNode, shopNodes []model.ShopCategoryNode) {
	t.Helper()
	master = model.Shop{Name: "CZ Main", Code: "cz-main", IsMaster: true}
	mustCreate(t, db, &master)
	shop = model.Shop{Name: "SK Shop", Code: "sk-shop"}
	mustCreate(t, db, &shop)

	canon = []model.CanonicalCategoryNode{
		{Guid: "c-parfemy", Name: "Parfémy", MasterShopID: master.ID},
		{Guid: "c-keramika", Name: "Keramika", MasterShopID: master.ID},
	}
	for i := range canon {
		mustCreate(t, db, &canon[i])
	}

	shopNodes = []model.ShopCategoryNode{
		{ShopID: shop.ID, RemoteGuid: "s-parfumy", Name: "Parfumy"},
		{ShopID: shop.ID, RemoteGuid: "s-keramika", Name: "Keramika a sklo"},
	}
	for i := range shopNodes {
		mustCreate(t, db, &shopNodes[i])
	}
	return
}

// ==================== 候选预计算 ====================

func TestSuggestionService_ComputeCandidateSets(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSuggestionService(db, &fakeSuggester{})
	ctx := context.Background()

	_, shop, canon, shopNodes := seedSuggestionFixture(t, db)

	sets, err := svc.ComputeCandidateSets(ctx, shop.ID, false)
	if err != nil {
		t.Fatalf("ComputeCandidateSets 失败: %v", err)
	}
	if len(sets) == 0 {
		t.Fatal("应至少产出一个候选集")
	}

	var parfemySet *CandidateSet
	for i := range sets {
		if sets[i].CanonicalID == canon[0].ID {
			parfemySet = &sets[i]
		}
	}
	if parfemySet == nil {
		t.Fatal("Parfémy 节点缺候选集")
	}
	// 近似名应排在前面
	if parfemySet.Candidates[0].TargetID != shopNodes[0].ID {
		t.Errorf("最佳候选 = %d, want %d", parfemySet.Candidates[0].TargetID, shopNodes[0].ID)
	}
	for _, c := range parfemySet.Candidates {
		if c.Score < candidateMinScore {
			t.Errorf("低于 MinScore 的候选不应出现: %+v", c)
		}
	}
}

func TestSuggestionService_ComputeCandidateSets_SkipsConfirmed(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSuggestionService(db, &fakeSuggester{})
	ctx := context.Background()

	_, shop, canon, shopNodes := seedSuggestionFixture(t, db)
	mustCreate(t, db, &model.CategoryMapping{
		CategoryNodeID: canon[0].ID, ShopID: shop.ID, ShopCategoryNodeID: &shopNodes[0].ID,
		Status: model.MappingStatusConfirmed, Confidence: 1.0, Source: model.MappingSourceManual,
	})

	sets, err := svc.ComputeCandidateSets(ctx, shop.ID, false)
	if err != nil {
		t.Fatalf("ComputeCandidateSets 失败: %v", err)
	}
	for _, set := range sets {
		if set.CanonicalID == canon[0].ID {
			t.Error("已 confirmed 的节点不应再送审")
		}
	}

	// includeMapped = true 时重新送审
	sets, err = svc.ComputeCandidateSets(ctx, shop.ID, true)
	if err != nil {
		t.Fatalf("ComputeCandidateSets 失败: %v", err)
	}
	found := false
	for _, set := range sets {
		if set.CanonicalID == canon[0].ID {
			found = true
		}
	}
	if !found {
		t.Error("includeMapped=true 应包含已 confirmed 的节点")
	}
}

func TestSuggestionService_ComputeCandidateSets_DepthFilter(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSuggestionService(db, &fakeSuggester{})
	ctx := context.Background()

	master := model.Shop{Name: "CZ Main", Code: "cz-main", IsMaster: true}
	mustCreate(t, db, &master)
	shop := model.Shop{Name: "SK Shop", Code: "sk-shop"}
	mustCreate(t, db, &shop)

	// 权威节点在深度 1，同名分站节点埋在深度 4：深度差 3 > 2，直接出局
	canon := model.CanonicalCategoryNode{Guid: "c-vazy", Name: "Vázy", MasterShopID: master.ID}
	mustCreate(t, db, &canon)

	chain := []model.ShopCategoryNode{
		{ShopID: shop.ID, RemoteGuid: "d1", Name: "A"},
		{ShopID: shop.ID, RemoteGuid: "d2", ParentGuid: "d1", Name: "B"},
		{ShopID: shop.ID, RemoteGuid: "d3", ParentGuid: "d2", Name: "C"},
		{ShopID: shop.ID, RemoteGuid: "d4", ParentGuid: "d3", Name: "Vázy"},
	}
	for i := range chain {
		mustCreate(t, db, &chain[i])
	}

	sets, err := svc.ComputeCandidateSets(ctx, shop.ID, false)
	if err != nil {
		t.Fatalf("ComputeCandidateSets 失败: %v", err)
	}
	for _, set := range sets {
		if set.CanonicalID != canon.ID {
			continue
		}
		for _, c := range set.Candidates {
			if c.TargetID == chain[3].ID {
				t.Error("深度差超限的候选不应出现")
			}
		}
	}
}

// ==================== 建议批次 ====================

func TestSuggestionService_RunSuggestions_AppliesValidated(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()

	_, shop, canon, shopNodes := seedSuggestionFixture(t, db)

	fake := &fakeSuggester{resp: &AISuggestionResponse{Mappings: []AISuggestion{
		// 合法：canonical 在送审集里，目标在候选集里，置信度超界会被夹住
		{CanonicalID: canon[0].ID, TargetID: &shopNodes[0].ID, Confidence: 1.4, Reason: "match"},
		// 非法：未送审的权威节点
		{CanonicalID: 99999, TargetID: &shopNodes[0].ID, Confidence: 0.9},
	}}}
	svc := newTestSuggestionService(db, fake)

	resp, err := svc.RunSuggestions(ctx, shop.ID, false)
	if err != nil {
		t.Fatalf("RunSuggestions 失败: %v", err)
	}
	if resp.RunID == "" {
		t.Error("批次应有 RunID")
	}
	if resp.Accepted != 1 || resp.Dropped != 1 {
		t.Errorf("accepted/dropped = %d/%d, want 1/1", resp.Accepted, resp.Dropped)
	}

	var row model.CategoryMapping
	if err := db.First(&row, "category_node_id = ? AND shop_id = ?", canon[0].ID, shop.ID).Error; err != nil {
		t.Fatalf("建议未落库: %v", err)
	}
	if row.Status != model.MappingStatusSuggested || row.Source != model.MappingSourceAI {
		t.Errorf("映射行 = %v/%v, want suggested/ai", row.Status, row.Source)
	}
	if row.Confidence != 1.0 {
		t.Errorf("置信度应夹到 1.0, got %v", row.Confidence)
	}

	var logRow model.AICallLog
	if err := db.First(&logRow, "run_id = ?", resp.RunID).Error; err != nil {
		t.Fatalf("调用日志未写入: %v", err)
	}
	if logRow.Status != model.AICallStatusSuccess || logRow.Accepted != 1 || logRow.Dropped != 1 {
		t.Errorf("调用日志 = %+v", logRow)
	}
}

func TestSuggestionService_RunSuggestions_DropsTargetOutsideSet(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()

	_, shop, canon, _ := seedSuggestionFixture(t, db)

	outsider := int64(424242)
	fake := &fakeSuggester{resp: &AISuggestionResponse{Mappings: []AISuggestion{
		{CanonicalID: canon[0].ID, TargetID: &outsider, Confidence: 0.9},
	}}}
	svc := newTestSuggestionService(db, fake)

	resp, err := svc.RunSuggestions(ctx, shop.ID, false)
	if err != nil {
		t.Fatalf("RunSuggestions 失败: %v", err)
	}
	if resp.Accepted != 0 || resp.Dropped != 1 {
		t.Errorf("accepted/dropped = %d/%d, want 0/1", resp.Accepted, resp.Dropped)
	}
	var count int64
	db.Model(&model.CategoryMapping{}).Count(&count)
	if count != 0 {
		t.Errorf("候选集外的目标不应落库, count = %d", count)
	}
}

func TestSuggestionService_RunSuggestions_FailureWritesNothing(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()

	_, shop, _, _ := seedSuggestionFixture(t, db)

	fake := &fakeSuggester{err: errors.New("upstream boom")}
	svc := newTestSuggestionService(db, fake)

	_, err := svc.RunSuggestions(ctx, shop.ID, false)
	if !errors.Is(err, ErrAISuggestFailed) {
		t.Fatalf("err = %v, want ErrAISuggestFailed", err)
	}

	var count int64
	db.Model(&model.CategoryMapping{}).Count(&count)
	if count != 0 {
		t.Errorf("调用失败不应落任何映射, count = %d", count)
	}

	var logRow model.AICallLog
	if err := db.First(&logRow).Error; err != nil {
		t.Fatalf("失败也要写调用日志: %v", err)
	}
	if logRow.Status != model.AICallStatusFailed || logRow.ErrorMsg == "" {
		t.Errorf("失败日志 = %+v", logRow)
	}
}

func TestSuggestionService_RunSuggestions_ShopNotFound(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSuggestionService(db, &fakeSuggester{})

	if _, err := svc.RunSuggestions(context.Background(), 12345, false); err != ErrShopNotFound {
		t.Errorf("err = %v, want ErrShopNotFound", err)
	}
}

func TestSuggestionService_RunSuggestions_NoCandidates(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()

	master := model.Shop{Name: "CZ Main", Code: "cz-main", IsMaster: true}
	mustCreate(t, db, &master)
	shop := model.Shop{Name: "SK Shop", Code: "sk-shop"}
	mustCreate(t, db, &shop)

	// 没有任何分站节点：候选集为空，协作方不应被调用
	fake := &fakeSuggester{}
	svc := newTestSuggestionService(db, fake)

	resp, err := svc.RunSuggestions(ctx, shop.ID, false)
	if err != nil {
		t.Fatalf("RunSuggestions 失败: %v", err)
	}
	if resp.CandidateNodes != 0 || resp.Accepted != 0 {
		t.Errorf("resp = %+v", resp)
	}
	if fake.gotSets != nil {
		t.Error("空候选集不应触发 AI 调用")
	}
}
