package model

import "time"

// PortraitJob - portrait_jobs 테이블 구조
type PortraitJob struct {
	JobID              string                 `json:"job_id"`
	UserID             string                 `json:"user_id"`
	JobStatus          string                 `json:"job_status"`
	TotalImages        int                    `json:"total_images"`
	CompletedImages    int                    `json:"completed_images"`
	FailedImages       int                    `json:"failed_images"`
	JobInputData       map[string]interface{} `json:"job_input_data"`
	GeneratedAttachIDs []int                  `json:"generated_attach_ids"`
	ErrorMessage       *string                `json:"error_message"`
	EstimatedCredits   int                    `json:"estimated_credits"`
	CreatedAt          time.Time              `json:"created_at"`
	StartedAt          *time.Time             `json:"started_at"`
	CompletedAt        *time.Time             `json:"completed_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// JobInputData - job_input_data JSONB 구조
type JobInputData struct {
	UserID         string `json:"userId"`
	SourceAttachID int    `json:"sourceAttachId"` // 업로드된 원본 사진
	Specialization string `json:"specialization"`
	Setting        string `json:"setting"`
	Style          string `json:"style"`
	Gender         string `json:"gender"`
	SpecKey        string `json:"specKey"`
	AspectRatio    string `json:"aspectRatio"`
	Variations     bool   `json:"variations"`
}

// Attach - portrait_attach 테이블 구조
type Attach struct {
	AttachID           int64     `json:"attach_id"`
	CreatedAt          time.Time `json:"created_at"`
	AttachOriginalName *string   `json:"attach_original_name"`
	AttachFileName     *string   `json:"attach_file_name"`
	AttachFilePath     *string   `json:"attach_file_path"`
	AttachFileSize     *int64    `json:"attach_file_size"`
	AttachFileType     *string   `json:"attach_file_type"`
	AttachDirectory    *string   `json:"attach_directory"`
	AttachStorageType  *string   `json:"attach_storage_type"`
}

// Portrait - portraits 테이블 구조 (갤러리)
type Portrait struct {
	PortraitID        int64     `json:"portrait_id,omitempty"`
	UserID            string    `json:"user_id"`
	JobID             *string   `json:"job_id"`
	AttachID          int       `json:"attach_id"`
	ThumbnailAttachID *int      `json:"thumbnail_attach_id"`
	FilePath          string    `json:"file_path"`
	ThumbnailPath     *string   `json:"thumbnail_path"`
	Prompt            string    `json:"prompt"`
	PromptScore       int       `json:"prompt_score"`
	Specialization    string    `json:"specialization"`
	Setting           string    `json:"setting"`
	Style             string    `json:"style"`
	Gender            string    `json:"gender"`
	SpecKey           string    `json:"spec_key"`
	AspectRatio       string    `json:"aspect_ratio"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
}

// CreditTransaction - portrait_credits 원장 테이블 구조
type CreditTransaction struct {
	UserID          string `json:"user_id"`
	TransactionType string `json:"transaction_type"`
	Amount          int    `json:"amount"`
	BalanceAfter    int    `json:"balance_after"`
	Description     string `json:"description"`
	Reference       string `json:"reference"`
}

const (
	StatusPending       = "pending"
	StatusProcessing    = "processing"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
	StatusUserCancelled = "user_cancelled"
)

const (
	TransactionDeduct = "DEDUCT"
	TransactionGrant  = "GRANT"
)

// IsFinalStatus - 더 이상 처리하지 않는 상태인지
func IsFinalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusUserCancelled:
		return true
	}
	return false
}
