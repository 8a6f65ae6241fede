package portrait

import (
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"

	"portrait-studio-server/modules/common/api"
	"portrait-studio-server/modules/common/credit"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/prompt"
	"portrait-studio-server/modules/quality"
)

const (
	// 원본 사진 base64 포함
	maxGenerateBody = 20 << 20
	maxPromptBody   = 64 << 10

	qualityCacheKey = "quality"
)

// Handler - /api/portrait 엔드포인트
type Handler struct {
	service *Service
	reports *cache.Cache
}

// NewHandler - Handler 생성
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		reports: cache.New(10*time.Minute, 30*time.Minute),
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/portrait/generate", h.HandleGenerate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/portrait/prompt", h.HandlePrompt).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/portrait/validate", h.HandleValidate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/portrait/quality-report", h.HandleQualityReport).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/portrait/options", h.HandleOptions).Methods("GET", "OPTIONS")
}

// writeServiceError - 서비스 에러 → HTTP 상태/코드
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, prompt.ErrInvalidArgument):
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, credit.ErrInsufficientCredits):
		api.Error(w, http.StatusPaymentRequired, api.ErrCodeInsufficientCredits, err.Error())
	case errors.Is(err, credit.ErrUserNotFound):
		api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, err.Error())
	default:
		logger.L().Errorf("❌ [Portrait] Request failed: %v", err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, err.Error())
	}
}

// HandleGenerate - POST /api/portrait/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := api.DecodeJSON(w, r, maxGenerateBody, &req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid request body")
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, resp)
}

// HandlePrompt - POST /api/portrait/prompt (미리보기)
func (h *Handler) HandlePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := api.DecodeJSON(w, r, maxPromptBody, &req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid request body")
		return
	}

	sel, err := parseSelection(req.Specialization, req.Setting, req.Style, req.Gender, req.SpecKey, req.Variations)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	prompts, err := buildPrompts(sel)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := PromptResponse{Success: true, SpecKey: sel.SpecKey}
	for _, p := range prompts {
		resp.Prompts = append(resp.Prompts, PromptPreview{
			Prompt:     p,
			Length:     utf8.RuneCountInString(p),
			Validation: prompt.ValidatePrompt(p),
			Metrics:    quality.CalculateConsistencyMetrics(p),
		})
	}
	api.JSON(w, http.StatusOK, resp)
}

// HandleValidate - POST /api/portrait/validate
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := api.DecodeJSON(w, r, maxPromptBody, &req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "prompt is required")
		return
	}

	api.JSON(w, http.StatusOK, ValidateResponse{
		Success:    true,
		Validation: prompt.ValidatePrompt(req.Prompt),
		Result:     quality.TestSinglePrompt(req.Prompt, nil),
	})
}

// qualitySummary - 카탈로그 테스트 결과 (캐시)
func (h *Handler) qualitySummary() (quality.TestSummary, error) {
	if cached, ok := h.reports.Get(qualityCacheKey); ok {
		return cached.(quality.TestSummary), nil
	}

	summary, err := quality.RunPromptQualityTest()
	if err != nil {
		return quality.TestSummary{}, err
	}
	h.reports.SetDefault(qualityCacheKey, summary)
	logger.L().Infof("📊 [Portrait] Quality report refreshed: %d/%d passed", summary.PassedTemplates, summary.TotalTemplates)
	return summary, nil
}

// HandleQualityReport - GET /api/portrait/quality-report[?format=text]
func (h *Handler) HandleQualityReport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.qualitySummary()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(quality.GenerateQualityReport(summary)))
		return
	}
	api.JSON(w, http.StatusOK, summary)
}

// HandleOptions - GET /api/portrait/options
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	keys := prompt.SpecKeys()
	specs := make(map[string]prompt.TechnicalSpecs, len(keys))
	for _, k := range keys {
		specs[k] = prompt.MustSpecs(k)
	}

	api.JSON(w, http.StatusOK, OptionsResponse{
		Success:       true,
		Settings:      prompt.AllSettings(),
		Styles:        prompt.AllStyles(),
		Genders:       prompt.AllGenders(),
		SpecKeys:      keys,
		Specs:         specs,
		AspectRatios:  AspectRatios(),
		PricePerImage: h.service.PricePerImage(),
	})
}
