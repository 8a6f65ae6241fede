package gallery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"portrait-studio-server/modules/common/api"
	"portrait-studio-server/modules/common/database"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Repository - portraits 테이블 조회/삭제
type Repository interface {
	ListPortraits(ctx context.Context, userID string, limit, offset int) ([]model.Portrait, int64, error)
	DeletePortrait(ctx context.Context, userID string, portraitID int64) error
}

// Item - 갤러리 항목
type Item struct {
	PortraitID     int64     `json:"portraitId"`
	ImageURL       string    `json:"imageUrl"`
	ThumbnailURL   string    `json:"thumbnailUrl,omitempty"`
	Prompt         string    `json:"prompt"`
	PromptScore    int       `json:"promptScore"`
	Specialization string    `json:"specialization"`
	Setting        string    `json:"setting"`
	Style          string    `json:"style"`
	AspectRatio    string    `json:"aspectRatio"`
	JobID          string    `json:"jobId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListResponse - GET /api/gallery/{userId}
type ListResponse struct {
	Success bool   `json:"success"`
	Items   []Item `json:"items"`
	Total   int64  `json:"total"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

type Handler struct {
	repo      Repository
	publicURL func(filePath string) string
}

// NewHandler - publicURL은 Storage 경로 → 공개 URL
func NewHandler(repo Repository, publicURL func(filePath string) string) *Handler {
	return &Handler{repo: repo, publicURL: publicURL}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/gallery/{userId}", h.HandleList).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/gallery/{userId}/{portraitId}", h.HandleDelete).Methods("DELETE", "OPTIONS")
}

// queryInt - 쿼리 정수 파라미터 (없으면 fallback)
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return v, nil
}

func (h *Handler) toItem(p model.Portrait) Item {
	item := Item{
		PortraitID:     p.PortraitID,
		ImageURL:       h.publicURL(p.FilePath),
		Prompt:         p.Prompt,
		PromptScore:    p.PromptScore,
		Specialization: p.Specialization,
		Setting:        p.Setting,
		Style:          p.Style,
		AspectRatio:    p.AspectRatio,
		CreatedAt:      p.CreatedAt,
	}
	if p.ThumbnailPath != nil && *p.ThumbnailPath != "" {
		item.ThumbnailURL = h.publicURL(*p.ThumbnailPath)
	}
	if p.JobID != nil {
		item.JobID = *p.JobID
	}
	return item
}

// HandleList - 사용자 갤러리 (최신순)
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	limit, err := queryInt(r, "limit", DefaultLimit)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, err.Error())
		return
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	portraits, total, err := h.repo.ListPortraits(r.Context(), userID, limit, offset)
	if err != nil {
		logger.L().Errorf("❌ [Gallery] Failed to list portraits for %s: %v", userID, err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to list portraits")
		return
	}

	items := make([]Item, 0, len(portraits))
	for _, p := range portraits {
		items = append(items, h.toItem(p))
	}
	api.JSON(w, http.StatusOK, ListResponse{Success: true, Items: items, Total: total, Limit: limit, Offset: offset})
}

// HandleDelete - 본인 소유 portrait 삭제
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]
	portraitID, err := strconv.ParseInt(vars["portraitId"], 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid portraitId")
		return
	}

	if err := h.repo.DeletePortrait(r.Context(), userID, portraitID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "portrait not found")
			return
		}
		logger.L().Errorf("❌ [Gallery] Failed to delete portrait %d: %v", portraitID, err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to delete portrait")
		return
	}

	logger.L().Infof("🗑️  [Gallery] Portrait %d deleted by %s", portraitID, userID)
	api.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "portraitId": portraitID})
}
