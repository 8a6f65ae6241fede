package portrait

import (
	"context"
	"fmt"

	"portrait-studio-server/modules/common/cancel"
	"portrait-studio-server/modules/common/fallback"
	"portrait-studio-server/modules/common/hub"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
	"portrait-studio-server/modules/common/utils"
)

// IsJobCancelled - cancel.StatusUpdater 구현
func (s *Service) IsJobCancelled(ctx context.Context, jobID string) bool {
	if s.deps.Cancels == nil {
		return false
	}
	return s.deps.Cancels.IsJobCancelled(ctx, jobID)
}

// UpdateJobStatus - cancel.StatusUpdater 구현
func (s *Service) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	return s.deps.Repo.UpdateJobStatus(ctx, jobID, status)
}

func (s *Service) publish(userID string, msg hub.Message) {
	if s.deps.Publisher != nil {
		s.deps.Publisher.Publish(userID, msg)
	}
}

// failJob - Job 실패 처리 + 알림
func (s *Service) failJob(ctx context.Context, job *model.PortraitJob, userID string, cause error) error {
	logger.L().Errorf("❌ [Portrait] Job %s failed: %v", job.JobID, cause)
	if err := s.deps.Repo.FailJob(ctx, job.JobID, cause.Error()); err != nil {
		logger.L().Errorf("❌ [Portrait] Failed to mark job %s failed: %v", job.JobID, err)
	}
	s.publish(userID, hub.Message{Type: hub.TypeJobFailed, JobID: job.JobID, Status: model.StatusFailed, Error: cause.Error()})
	return cause
}

// ProcessJob - 큐 Job 처리: 원본 다운로드 → 프롬프트 → 순차 생성 (이미지마다 취소 체크) → 차감
func (s *Service) ProcessJob(ctx context.Context, job *model.PortraitJob) error {
	if model.IsFinalStatus(job.JobStatus) {
		logger.L().Infof("⏭️  [Portrait] Job %s already %s, skipping", job.JobID, job.JobStatus)
		return nil
	}

	input := fallback.ParseJobInput(job.JobInputData)
	userID := input.UserID
	if userID == "" {
		userID = job.UserID
	}
	// 상태 기록, 저장, 차감은 종료 신호와 무관하게 마무리
	bg := context.WithoutCancel(ctx)

	// 대기 중 취소된 Job
	if cancel.CheckBeforeGeneration(ctx, s, job, 0) {
		s.publish(userID, hub.Message{Type: hub.TypeJobCancelled, JobID: job.JobID, Status: model.StatusUserCancelled, Total: job.TotalImages})
		return nil
	}

	sel, err := parseSelection(input.Specialization, input.Setting, input.Style, input.Gender, input.SpecKey, input.Variations)
	if err != nil {
		return s.failJob(bg, job, userID, err)
	}
	prompts, err := buildPrompts(sel)
	if err != nil {
		return s.failJob(bg, job, userID, err)
	}
	job.TotalImages = len(prompts)

	if err := s.UpdateJobStatus(bg, job.JobID, model.StatusProcessing); err != nil {
		logger.L().Warnf("⚠️  [Portrait] Failed to set job %s processing: %v", job.JobID, err)
	}
	s.publish(userID, hub.Message{Type: hub.TypeJobStarted, JobID: job.JobID, Status: model.StatusProcessing, Total: job.TotalImages})

	source, err := s.deps.Images.DownloadImage(ctx, input.SourceAttachID)
	if err != nil {
		return s.failJob(bg, job, userID, fmt.Errorf("failed to download source image: %w", err))
	}
	mimeType := utils.DetectMIME(source)
	if !utils.IsSupportedImage(mimeType) {
		return s.failJob(bg, job, userID, fmt.Errorf("unsupported source image type %s", mimeType))
	}

	if _, err := s.ensureCredits(ctx, userID, len(prompts)); err != nil {
		return s.failJob(bg, job, userID, err)
	}

	j := &generation{
		id:          job.JobID,
		userID:      userID,
		source:      source,
		mimeType:    mimeType,
		aspectRatio: input.AspectRatio,
		sel:         sel,
	}
	logger.L().Infof("🚀 [Portrait] Processing job %s: %d image(s) for user %s", job.JobID, len(prompts), userID)

	var savedIDs []int
	failed := 0
	cancelled := false
	interrupted := false
	for i, p := range prompts {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		if cancel.CheckBeforeGeneration(ctx, s, job, i) {
			cancelled = true
			break
		}

		raw, err := s.generate(ctx, j, p)
		if err != nil {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			logger.L().Warnf("⚠️  [Portrait] Job %s image %d failed: %v", job.JobID, i+1, err)
			failed++
		} else {
			if cancel.CheckAfterGeneration(bg, s, job, i) {
				cancelled = true
				break
			}
			result, err := s.save(bg, j, p, i, raw)
			if err != nil {
				logger.L().Warnf("⚠️  [Portrait] Job %s image %d save failed: %v", job.JobID, i+1, err)
				failed++
			} else {
				savedIDs = append(savedIDs, result.AttachID)
				s.publish(userID, hub.Message{
					Type:      hub.TypeJobProgress,
					JobID:     job.JobID,
					Status:    model.StatusProcessing,
					Completed: len(savedIDs),
					Total:     job.TotalImages,
					ImageURL:  result.ImageURL,
				})
			}
		}

		if err := s.deps.Repo.UpdateJobProgress(bg, job.JobID, len(savedIDs), failed, savedIDs); err != nil {
			logger.L().Warnf("⚠️  [Portrait] Failed to update progress for job %s: %v", job.JobID, err)
		}
	}

	// 취소/중단 전에 저장된 이미지는 사용자에게 남으므로 차감
	s.charge(bg, userID, len(savedIDs), job.JobID)

	if interrupted {
		return s.failJob(bg, job, userID, fmt.Errorf("job interrupted after %d of %d image(s): %w", len(savedIDs), len(prompts), ctx.Err()))
	}

	if cancelled || cancel.HandleFinalStatus(bg, s, job, savedIDs) {
		s.publish(userID, hub.Message{Type: hub.TypeJobCancelled, JobID: job.JobID, Status: model.StatusUserCancelled, Completed: len(savedIDs), Total: job.TotalImages})
		return nil
	}

	if len(savedIDs) == 0 {
		return s.failJob(bg, job, userID, fmt.Errorf("all %d generations failed", len(prompts)))
	}

	if err := s.UpdateJobStatus(bg, job.JobID, model.StatusCompleted); err != nil {
		logger.L().Errorf("❌ [Portrait] Failed to set job %s completed: %v", job.JobID, err)
	}
	s.publish(userID, hub.Message{Type: hub.TypeJobCompleted, JobID: job.JobID, Status: model.StatusCompleted, Completed: len(savedIDs), Total: job.TotalImages})
	logger.L().Infof("✅ [Portrait] Job %s completed: %d saved, %d failed", job.JobID, len(savedIDs), failed)
	return nil
}
