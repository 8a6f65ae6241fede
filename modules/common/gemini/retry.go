package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"portrait-studio-server/modules/common/logger"
)

// MaxRetriesPerKey - 키당 429 재시도 횟수
const MaxRetriesPerKey = 3

// retryDelay - 429 후 같은 키로 다시 시도하기 전 대기
var retryDelay = 2 * time.Second

// generateFunc - 단일 키로 GenerateContent 호출
type generateFunc func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

func callGemini(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client.Models.GenerateContent(ctx, model, contents, config)
}

// GenerateContentWithRetry - 429 에러 시 여러 API 키로 재시도
// 각 키당 최대 3번, 429가 아닌 에러는 즉시 반환
func GenerateContentWithRetry(
	ctx context.Context,
	apiKeys []string,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	return generateWithKeys(ctx, callGemini, apiKeys, model, contents, config)
}

func generateWithKeys(
	ctx context.Context,
	generate generateFunc,
	apiKeys []string,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("no API keys provided")
	}

	var lastErr error

	for keyIndex, apiKey := range apiKeys {
		logger.L().Debugf("🔑 [Gemini Retry] Trying API key #%d/%d", keyIndex+1, len(apiKeys))

		for attempt := 1; attempt <= MaxRetriesPerKey; attempt++ {
			result, err := generate(ctx, apiKey, model, contents, config)
			if err == nil {
				logger.L().Infof("✅ [Gemini Retry] Success with API key #%d (attempt %d/%d)", keyIndex+1, attempt, MaxRetriesPerKey)
				return result, nil
			}

			lastErr = err

			if !is429Error(err) {
				logger.L().Errorf("❌ [Gemini Retry] Key #%d failed with non-429 error: %v", keyIndex+1, err)
				return nil, err
			}

			logger.L().Warnf("⚠️  [Gemini Retry] Key #%d hit rate limit (429) on attempt %d/%d", keyIndex+1, attempt, MaxRetriesPerKey)

			if attempt < MaxRetriesPerKey {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryDelay):
				}
			}
		}

		logger.L().Warnf("⚠️  [Gemini Retry] Key #%d exhausted all %d attempts, trying next key...", keyIndex+1, MaxRetriesPerKey)
	}

	return nil, fmt.Errorf("all %d API keys exhausted (%d attempts each), last error: %w", len(apiKeys), MaxRetriesPerKey, lastErr)
}

// is429Error - 429 Rate Limit 에러인지 확인
func is429Error(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "resource_exhausted")
}
