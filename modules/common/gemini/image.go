package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"portrait-studio-server/modules/common/logger"
)

// ErrNoImage - 응답에 이미지 파트가 없음
var ErrNoImage = errors.New("no image data in response")

// Client - 참조 사진 + 프롬프트로 이미지 생성
type Client struct {
	apiKeys     []string
	model       string
	temperature float32
	generate    generateFunc
}

// NewClient - 키 목록과 모델로 클라이언트 생성
func NewClient(apiKeys []string, model string) *Client {
	return &Client{
		apiKeys:     apiKeys,
		model:       model,
		temperature: 0.4,
		generate:    callGemini,
	}
}

// GenerateImage - 원본 사진(inline)과 프롬프트를 보내 생성된 이미지 바이트 반환
func (c *Client) GenerateImage(ctx context.Context, source []byte, mimeType, prompt, aspectRatio string) ([]byte, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: source}},
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{{Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature: &c.temperature,
	}
	if aspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}

	logger.L().Infof("📤 [Gemini] Calling %s (prompt: %d chars, source: %d bytes)", c.model, len(prompt), len(source))

	result, err := generateWithKeys(ctx, c.generate, c.apiKeys, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	return extractImage(result)
}

// extractImage - 첫 번째 inline 이미지 파트
func extractImage(result *genai.GenerateContentResponse) ([]byte, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response: %w", ErrNoImage)
	}

	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, ErrNoImage
}
