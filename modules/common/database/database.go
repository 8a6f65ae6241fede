package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"portrait-studio-server/modules/common/config"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
)

// 테이블 이름
const (
	TableJobs      = "portrait_jobs"
	TableAttach    = "portrait_attach"
	TablePortraits = "portraits"
)

// ErrNotFound - 조회 결과 없음
var ErrNotFound = errors.New("not found")

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		logger.L().Errorf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// Supabase - 다른 모듈(credit 등)과 커넥션 공유용
func (c *Client) Supabase() *supabase.Client {
	return c.supabase
}

// CreateJob - Job 레코드 생성
func (c *Client) CreateJob(ctx context.Context, job *model.PortraitJob) error {
	logger.L().Infof("💾 Creating job record: %s (user: %s, images: %d)", job.JobID, job.UserID, job.TotalImages)

	insertData := map[string]interface{}{
		"job_id":            job.JobID,
		"user_id":           job.UserID,
		"job_status":        model.StatusPending,
		"total_images":      job.TotalImages,
		"completed_images":  0,
		"failed_images":     0,
		"job_input_data":    job.JobInputData,
		"estimated_credits": job.EstimatedCredits,
	}

	_, _, err := c.supabase.From(TableJobs).
		Insert(insertData, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// FetchJob - Job 데이터 조회
func (c *Client) FetchJob(ctx context.Context, jobID string) (*model.PortraitJob, error) {
	logger.L().Debugf("🔍 Fetching job: %s", jobID)

	var jobs []model.PortraitJob

	data, _, err := c.supabase.From(TableJobs).
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query Supabase: %w", err)
	}

	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}

	job := &jobs[0]
	logger.L().Infof("✅ Job fetched: %s (status: %s, total_images: %d)", job.JobID, job.JobStatus, job.TotalImages)
	return job, nil
}

// UpdateJobStatus - Job 상태 업데이트
func (c *Client) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	logger.L().Infof("📝 Updating job %s status to: %s", jobID, status)

	updateData := map[string]interface{}{
		"job_status": status,
		"updated_at": "now()",
	}

	if status == model.StatusProcessing {
		updateData["started_at"] = "now()"
	} else if model.IsFinalStatus(status) {
		updateData["completed_at"] = "now()"
	}

	_, _, err := c.supabase.From(TableJobs).
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	return nil
}

// FailJob - 실패 상태 + 에러 메시지 기록
func (c *Client) FailJob(ctx context.Context, jobID string, message string) error {
	logger.L().Warnf("📝 Marking job %s failed: %s", jobID, message)

	updateData := map[string]interface{}{
		"job_status":    model.StatusFailed,
		"error_message": message,
		"updated_at":    "now()",
		"completed_at":  "now()",
	}

	_, _, err := c.supabase.From(TableJobs).
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// UpdateJobProgress - Job 진행 상황 업데이트
func (c *Client) UpdateJobProgress(ctx context.Context, jobID string, completedImages, failedImages int, generatedAttachIDs []int) error {
	logger.L().Infof("📊 Updating job progress: %s (%d completed, %d failed)", jobID, completedImages, failedImages)

	updateData := map[string]interface{}{
		"completed_images":     completedImages,
		"failed_images":        failedImages,
		"generated_attach_ids": generatedAttachIDs,
		"updated_at":           "now()",
	}

	_, _, err := c.supabase.From(TableJobs).
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// FetchAttachInfo - attach 테이블에서 파일 정보 조회
func (c *Client) FetchAttachInfo(ctx context.Context, attachID int) (*model.Attach, error) {
	logger.L().Debugf("🔍 Fetching attach info: %d", attachID)

	var attaches []model.Attach

	data, _, err := c.supabase.From(TableAttach).
		Select("*", "exact", false).
		Eq("attach_id", strconv.Itoa(attachID)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", TableAttach, err)
	}

	if err := json.Unmarshal(data, &attaches); err != nil {
		return nil, fmt.Errorf("failed to parse attach response: %w", err)
	}

	if len(attaches) == 0 {
		return nil, fmt.Errorf("attach %d: %w", attachID, ErrNotFound)
	}

	return &attaches[0], nil
}

// CreateAttachRecord - attach 테이블에 레코드 생성
func (c *Client) CreateAttachRecord(ctx context.Context, filePath string, fileSize int64, fileType string) (int, error) {
	logger.L().Infof("💾 Creating attach record for: %s", filePath)

	fileName := path.Base(filePath)

	insertData := map[string]interface{}{
		"attach_original_name": fileName,
		"attach_file_name":     fileName,
		"attach_file_path":     filePath,
		"attach_file_size":     fileSize,
		"attach_file_type":     fileType,
		"attach_directory":     path.Dir(filePath),
		"attach_storage_type":  "supabase",
	}

	data, _, err := c.supabase.From(TableAttach).
		Insert(insertData, false, "", "representation", "").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to insert attach record: %w", err)
	}

	var attaches []model.Attach
	if err := json.Unmarshal(data, &attaches); err != nil {
		return 0, fmt.Errorf("failed to parse attach response: %w", err)
	}

	if len(attaches) == 0 {
		return 0, fmt.Errorf("no attach record returned")
	}

	attachID := int(attaches[0].AttachID)
	logger.L().Infof("✅ Attach record created: ID=%d", attachID)
	return attachID, nil
}

// CreatePortrait - 갤러리 레코드 생성
func (c *Client) CreatePortrait(ctx context.Context, portrait *model.Portrait) (int64, error) {
	data, _, err := c.supabase.From(TablePortraits).
		Insert(portrait, false, "", "representation", "").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to insert portrait: %w", err)
	}

	var rows []model.Portrait
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("failed to parse portrait response: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no portrait record returned")
	}

	logger.L().Infof("✅ Portrait record created: ID=%d (user: %s)", rows[0].PortraitID, portrait.UserID)
	return rows[0].PortraitID, nil
}

// ListPortraits - 사용자 갤러리 조회 (최신순)
func (c *Client) ListPortraits(ctx context.Context, userID string, limit, offset int) ([]model.Portrait, int64, error) {
	var rows []model.Portrait

	data, total, err := c.supabase.From(TablePortraits).
		Select("*", "exact", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list portraits: %w", err)
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to parse portraits: %w", err)
	}

	return rows, total, nil
}

// DeletePortrait - 본인 소유 레코드만 삭제
func (c *Client) DeletePortrait(ctx context.Context, userID string, portraitID int64) error {
	data, _, err := c.supabase.From(TablePortraits).
		Delete("representation", "").
		Eq("portrait_id", strconv.FormatInt(portraitID, 10)).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete portrait: %w", err)
	}

	var rows []model.Portrait
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to parse delete response: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("portrait %d: %w", portraitID, ErrNotFound)
	}

	logger.L().Infof("🗑️  Portrait deleted: ID=%d (user: %s)", portraitID, userID)
	return nil
}
