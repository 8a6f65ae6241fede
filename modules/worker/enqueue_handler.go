package worker

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"portrait-studio-server/modules/common/api"
	"portrait-studio-server/modules/common/database"
	"portrait-studio-server/modules/common/fallback"
	"portrait-studio-server/modules/common/hub"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
	redisClient "portrait-studio-server/modules/common/redis"
	"portrait-studio-server/modules/common/storage"
	"portrait-studio-server/modules/common/utils"
	"portrait-studio-server/modules/portrait"
	"portrait-studio-server/modules/prompt"
)

const (
	maxEnqueueBody = 20 << 20
	uploadFolder   = "uploads"
)

// JobQueue - Redis Job 큐
type JobQueue interface {
	Push(ctx context.Context, jobID string) (int64, error)
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Cancel(ctx context.Context, jobID string) error
}

// JobStore - Job/attach 레코드
type JobStore interface {
	CreateJob(ctx context.Context, job *model.PortraitJob) error
	FetchJob(ctx context.Context, jobID string) (*model.PortraitJob, error)
	CreateAttachRecord(ctx context.Context, filePath string, fileSize int64, fileType string) (int, error)
}

// Uploader - 원본 사진 업로드
type Uploader interface {
	Upload(ctx context.Context, filePath string, data []byte, contentType string) error
}

// Publisher - 진행 상황 알림
type Publisher interface {
	Publish(userID string, msg hub.Message)
}

// EnqueueHandler - 비동기 생성 Job 등록
type EnqueueHandler struct {
	queue         JobQueue
	store         JobStore
	uploader      Uploader
	publisher     Publisher
	pricePerImage int
}

// EnqueueResponse - Enqueue 응답
type EnqueueResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	JobID            string `json:"jobId,omitempty"`
	Queue            string `json:"queue,omitempty"`
	QueuePosition    int64  `json:"queuePosition,omitempty"`
	TotalImages      int    `json:"totalImages"`
	EstimatedCredits int    `json:"estimatedCredits"`
}

// NewEnqueueHandler - EnqueueHandler 생성
func NewEnqueueHandler(queue JobQueue, store JobStore, uploader Uploader, publisher Publisher, pricePerImage int) *EnqueueHandler {
	return &EnqueueHandler{
		queue:         queue,
		store:         store,
		uploader:      uploader,
		publisher:     publisher,
		pricePerImage: pricePerImage,
	}
}

// RegisterRoutes - 라우트 등록
func (h *EnqueueHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/jobs/enqueue", h.HandleEnqueue).Methods("POST", "OPTIONS")
}

// mimeExt - 업로드 확장자
func mimeExt(mimeType string) string {
	return strings.TrimPrefix(mimeType, "image/")
}

// HandleEnqueue - POST /api/jobs/enqueue
// 원본 업로드 → attach → Job 레코드 (pending) → LPUSH
func (h *EnqueueHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req portrait.GenerateRequest
	if err := api.DecodeJSON(w, r, maxEnqueueBody, &req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if err := portrait.ValidateGenerateRequest(req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, err.Error())
		return
	}

	source, err := utils.DecodeBase64Image(req.ImageBase64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, err.Error())
		return
	}
	mimeType := utils.DetectMIME(source)
	if !utils.IsSupportedImage(mimeType) {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "unsupported image type "+mimeType)
		return
	}

	ctx := r.Context()
	sourcePath := storage.NewFilePath(uploadFolder, req.UserID, "source", mimeExt(mimeType))
	if err := h.uploader.Upload(ctx, sourcePath, source, mimeType); err != nil {
		logger.L().Errorf("❌ [Enqueue] Source upload failed: %v", err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to upload source image")
		return
	}
	attachID, err := h.store.CreateAttachRecord(ctx, sourcePath, int64(len(source)), mimeType)
	if err != nil {
		logger.L().Errorf("❌ [Enqueue] Source attach failed: %v", err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to record source image")
		return
	}

	total := 1
	if req.Variations {
		total = prompt.VariationCount
	}

	job := &model.PortraitJob{
		JobID:       uuid.NewString(),
		UserID:      req.UserID,
		JobStatus:   model.StatusPending,
		TotalImages: total,
		JobInputData: fallback.ToJobInputMap(model.JobInputData{
			UserID:         req.UserID,
			SourceAttachID: attachID,
			Specialization: req.Specialization,
			Setting:        req.Setting,
			Style:          req.Style,
			Gender:         req.Gender,
			SpecKey:        req.SpecKey,
			AspectRatio:    req.AspectRatio,
			Variations:     req.Variations,
		}),
		EstimatedCredits: total * h.pricePerImage,
	}
	if err := h.store.CreateJob(ctx, job); err != nil {
		logger.L().Errorf("❌ [Enqueue] Failed to create job: %v", err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to create job")
		return
	}

	position, err := h.queue.Push(ctx, job.JobID)
	if err != nil {
		logger.L().Errorf("❌ [Enqueue] Redis LPUSH failed: %v", err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to enqueue job")
		return
	}

	h.publisher.Publish(req.UserID, hub.Message{Type: hub.TypeJobQueued, JobID: job.JobID, Status: model.StatusPending, Total: total})
	logger.L().Infof("✅ [Enqueue] Job %s enqueued (position: %d, images: %d)", job.JobID, position, total)

	api.JSON(w, http.StatusAccepted, EnqueueResponse{
		Success:          true,
		Message:          "Job enqueued successfully",
		JobID:            job.JobID,
		Queue:            redisClient.PortraitQueue,
		QueuePosition:    position,
		TotalImages:      total,
		EstimatedCredits: job.EstimatedCredits,
	})
}

// isNotFound - 조회 실패가 "없음"인지
func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
