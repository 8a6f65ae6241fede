package portrait

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"portrait-studio-server/modules/prompt"
	"portrait-studio-server/modules/quality"
)

// ErrInvalidRequest - 요청 검증 실패
var ErrInvalidRequest = errors.New("invalid request")

// MaxSpecializationLength - 전문 분야 최대 길이 (프롬프트 길이 상한 보호)
const MaxSpecializationLength = 120

// 지원 비율 ("" = 모델 기본값)
var supportedAspectRatios = map[string]bool{
	"":     true,
	"1:1":  true,
	"3:4":  true,
	"4:3":  true,
	"9:16": true,
	"16:9": true,
}

// GenerateRequest - POST /api/portrait/generate, /api/jobs/enqueue
type GenerateRequest struct {
	UserID         string `json:"userId"`
	ImageBase64    string `json:"imageBase64"`
	Specialization string `json:"specialization"`
	Setting        string `json:"setting"`
	Style          string `json:"style"`
	Gender         string `json:"gender"`
	SpecKey        string `json:"specKey,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	Variations     bool   `json:"variations"`
}

// GeneratedPortrait - 저장된 결과 1장
type GeneratedPortrait struct {
	PortraitID   int64  `json:"portraitId"`
	AttachID     int    `json:"attachId"`
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Prompt       string `json:"prompt"`
	PromptScore  int    `json:"promptScore"`
	Variation    int    `json:"variation"`
}

// GenerateResponse - 동기 생성 응답
type GenerateResponse struct {
	Success          bool                `json:"success"`
	RequestID        string              `json:"requestId,omitempty"`
	Portraits        []GeneratedPortrait `json:"portraits,omitempty"`
	FailedCount      int                 `json:"failedCount"`
	CreditsUsed      int                 `json:"creditsUsed"`
	CreditsRemaining int                 `json:"creditsRemaining"`
	ErrorMessage     string              `json:"errorMessage,omitempty"`
	ErrorCode        string              `json:"errorCode,omitempty"`
}

// PromptRequest - POST /api/portrait/prompt (미리보기, 크레딧 차감 없음)
type PromptRequest struct {
	Specialization string `json:"specialization"`
	Setting        string `json:"setting"`
	Style          string `json:"style"`
	Gender         string `json:"gender"`
	SpecKey        string `json:"specKey,omitempty"`
	Variations     bool   `json:"variations"`
}

// PromptPreview - 프롬프트 1개와 검증 결과
type PromptPreview struct {
	Prompt     string                     `json:"prompt"`
	Length     int                        `json:"length"`
	Validation prompt.ValidationResult    `json:"validation"`
	Metrics    quality.ConsistencyMetrics `json:"metrics"`
}

// PromptResponse - 프롬프트 미리보기 응답
type PromptResponse struct {
	Success bool            `json:"success"`
	SpecKey string          `json:"specKey"`
	Prompts []PromptPreview `json:"prompts"`
}

// ValidateRequest - POST /api/portrait/validate
type ValidateRequest struct {
	Prompt string `json:"prompt"`
}

// ValidateResponse - 임의 프롬프트 평가 결과
type ValidateResponse struct {
	Success    bool                     `json:"success"`
	Validation prompt.ValidationResult  `json:"validation"`
	Result     quality.PromptTestResult `json:"result"`
}

// OptionsResponse - GET /api/portrait/options
type OptionsResponse struct {
	Success       bool                             `json:"success"`
	Settings      []prompt.Setting                 `json:"settings"`
	Styles        []prompt.Style                   `json:"styles"`
	Genders       []prompt.Gender                  `json:"genders"`
	SpecKeys      []string                         `json:"specKeys"`
	Specs         map[string]prompt.TechnicalSpecs `json:"specs"`
	AspectRatios  []string                         `json:"aspectRatios"`
	PricePerImage int                              `json:"pricePerImage"`
}

// selection - 검증을 통과한 프롬프트 선택값
type selection struct {
	Specialization string
	Setting        prompt.Setting
	Style          prompt.Style
	Gender         prompt.Gender
	SpecKey        string
	Variations     bool
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// parseSelection - 프롬프트 관련 필드 검증 (setting/style/specKey/specialization)
func parseSelection(specialization, setting, style, gender, specKey string, variations bool) (selection, error) {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return selection{}, invalid("specialization is required")
	}
	if utf8.RuneCountInString(specialization) > MaxSpecializationLength {
		return selection{}, invalid("specialization must be at most %d characters", MaxSpecializationLength)
	}

	st, err := prompt.ParseSetting(setting)
	if err != nil {
		return selection{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	sy, err := prompt.ParseStyle(style)
	if err != nil {
		return selection{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	specKey = strings.TrimSpace(specKey)
	if specKey == "" {
		if specKey, err = prompt.SpecsForSetting(st); err != nil {
			return selection{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	} else if _, ok := prompt.Specs(specKey); !ok {
		return selection{}, invalid("unknown specKey %q", specKey)
	}

	return selection{
		Specialization: specialization,
		Setting:        st,
		Style:          sy,
		Gender:         prompt.ParseGender(gender),
		SpecKey:        specKey,
		Variations:     variations,
	}, nil
}

// ValidateGenerateRequest - 생성 요청 검증
func ValidateGenerateRequest(req GenerateRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return invalid("userId is required")
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		return invalid("imageBase64 is required")
	}
	if !supportedAspectRatios[req.AspectRatio] {
		return invalid("unsupported aspectRatio %q", req.AspectRatio)
	}
	_, err := parseSelection(req.Specialization, req.Setting, req.Style, req.Gender, req.SpecKey, req.Variations)
	return err
}

// AspectRatios - 지원 비율 목록
func AspectRatios() []string {
	return []string{"1:1", "3:4", "4:3", "9:16", "16:9"}
}
