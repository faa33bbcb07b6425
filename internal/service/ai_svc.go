package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ==================== 配置 ====================

// AIConfig AI 服务配置
type AIConfig struct {
	ApiKey  string
	Model   string
	Timeout time.Duration
}

// ==================== AIService ====================

// AIService Gemini 实现的映射建议协作方
type AIService struct {
	Config *AIConfig
	logger *zap.SugaredLogger
}

var _ AISuggester = (*AIService)(nil)

// NewAIService 创建 AI 服务
func NewAIService(cfg *AIConfig, logger *zap.SugaredLogger) *AIService {
	// 固定模型配置
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &AIService{Config: cfg, logger: logger}
}

// ==================== 映射建议 ====================

// SuggestMappings 把候选集载荷交给 Gemini，要回严格 JSON 的候选映射
// 响应在这里只做解析，不做业务校验——合法性裁决在 SuggestionService
func (s *AIService) SuggestMappings(ctx context.Context, sets []CandidateSet) (*AISuggestionResponse, *AICallStats, error) {
	if s.Config.ApiKey == "" {
		return nil, nil, fmt.Errorf("Gemini API Key 未配置")
	}

	ctx, cancel := context.WithTimeout(ctx, s.Config.Timeout)
	defer cancel()

	payload, err := json.Marshal(sets)
	if err != nil {
		return nil, nil, fmt.Errorf("候选集序列化失败: %v", err)
	}

	prompt := fmt.Sprintf(`You are a product taxonomy specialist for a multi-storefront commerce platform.
For each canonical category below, pick the best matching storefront category from its
pre-computed candidate list, or null if none of the candidates is a real match.

Rules:
1. target_id MUST be one of the candidate target_id values for that canonical_id, or null.
2. confidence is your own certainty in [0,1]; do not copy the candidate score.
3. Prefer candidates whose full path means the same thing, even across languages (cs/sk/en).
4. Output strict JSON only, no markdown.

Input:
%s

Output Format:
{
  "mappings": [
    {"canonical_id": 1, "target_id": 42, "confidence": 0.9, "reason": "same path, translated"},
    {"canonical_id": 2, "target_id": null, "confidence": 0.0, "reason": "no viable candidate"}
  ]
}`, string(payload))

	start := time.Now()

	client, err := genai.NewClient(ctx, option.WithAPIKey(s.Config.ApiKey))
	if err != nil {
		return nil, nil, fmt.Errorf("Gemini 客户端创建失败: %v", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(s.Config.Model)
	gm.ResponseMIMEType = "application/json"

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	stats := &AICallStats{
		ModelName:  s.Config.Model,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		return nil, stats, fmt.Errorf("Gemini 请求失败: %w", err)
	}
	if resp.UsageMetadata != nil {
		stats.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		stats.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	jsonText := extractText(resp)
	if jsonText == "" {
		return nil, stats, fmt.Errorf("无生成结果")
	}

	var out AISuggestionResponse
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return nil, stats, fmt.Errorf("解析生成结果失败: %v, raw: %s", err, truncate(jsonText, 512))
	}
	return &out, stats, nil
}

// extractText 从响应里抠出第一段文本
func extractText(resp *genai.GenerateContentResponse) string {
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok && text != "" {
				return string(text)
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
