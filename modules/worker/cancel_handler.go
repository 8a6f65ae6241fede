package worker

import (
	"net/http"

	"github.com/gorilla/mux"

	"portrait-studio-server/modules/common/api"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
)

// CancelHandler - Job 취소/조회 API
type CancelHandler struct {
	queue JobQueue
	store JobStore
}

// CancelResponse - 취소 요청 결과
type CancelResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	JobID           string `json:"jobId"`
	JobStatus       string `json:"jobStatus"`
	CompletedImages int    `json:"completedImages"`
	TotalImages     int    `json:"totalImages"`
}

// JobStatusResponse - GET /api/jobs/{jobId}
type JobStatusResponse struct {
	Success bool               `json:"success"`
	Job     *model.PortraitJob `json:"job"`
}

// NewCancelHandler - 핸들러 생성
func NewCancelHandler(queue JobQueue, store JobStore) *CancelHandler {
	return &CancelHandler{queue: queue, store: store}
}

// RegisterRoutes - 라우트 등록
func (h *CancelHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/jobs/{jobId}/cancel", h.CancelJob).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/jobs/{jobId}", h.GetJob).Methods("GET", "OPTIONS")
}

// CancelJob - 취소 플래그 설정. 진행 중인 이미지가 끝난 뒤 멈춘다
func (h *CancelHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	ctx := r.Context()

	logger.L().Infof("🛑 [Cancel] Cancel requested for job: %s", jobID)

	job, err := h.store.FetchJob(ctx, jobID)
	if err != nil {
		if isNotFound(err) {
			api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "job not found")
			return
		}
		logger.L().Errorf("❌ [Cancel] Failed to fetch job %s: %v", jobID, err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to fetch job")
		return
	}

	// 이미 끝난 Job은 취소 불가
	if model.IsFinalStatus(job.JobStatus) {
		logger.L().Warnf("⚠️  [Cancel] Job already %s: %s", job.JobStatus, jobID)
		api.JSON(w, http.StatusConflict, CancelResponse{
			Success:         false,
			Message:         "Job already " + job.JobStatus,
			JobID:           jobID,
			JobStatus:       job.JobStatus,
			CompletedImages: job.CompletedImages,
			TotalImages:     job.TotalImages,
		})
		return
	}

	if err := h.queue.Cancel(ctx, jobID); err != nil {
		logger.L().Errorf("❌ [Cancel] Failed to set cancel flag: %v", err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to set cancel flag")
		return
	}

	api.JSON(w, http.StatusOK, CancelResponse{
		Success:         true,
		Message:         "Cancel request sent. Job will stop after current image.",
		JobID:           jobID,
		JobStatus:       job.JobStatus,
		CompletedImages: job.CompletedImages,
		TotalImages:     job.TotalImages,
	})
}

// GetJob - Job 상태 조회
func (h *CancelHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.store.FetchJob(r.Context(), jobID)
	if err != nil {
		if isNotFound(err) {
			api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "job not found")
			return
		}
		logger.L().Errorf("❌ [Cancel] Failed to fetch job %s: %v", jobID, err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to fetch job")
		return
	}

	api.JSON(w, http.StatusOK, JobStatusResponse{Success: true, Job: job})
}
