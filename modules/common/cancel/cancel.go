package cancel

import (
	"context"

	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
)

// StatusUpdater - 취소 확인 + Job 상태 업데이트
type StatusUpdater interface {
	IsJobCancelled(ctx context.Context, jobID string) bool
	UpdateJobStatus(ctx context.Context, jobID string, status string) error
}

func markCancelled(ctx context.Context, service StatusUpdater, jobID string) {
	if err := service.UpdateJobStatus(ctx, jobID, model.StatusUserCancelled); err != nil {
		logger.L().Warnf("⚠️  Failed to mark job %s cancelled: %v", jobID, err)
	}
}

// CheckBeforeGeneration - 이미지 생성 전 취소 체크
// 취소됐으면 상태를 user_cancelled로 바꾸고 true 반환
func CheckBeforeGeneration(ctx context.Context, service StatusUpdater, job *model.PortraitJob, imageIndex int) bool {
	if !service.IsJobCancelled(ctx, job.JobID) {
		return false
	}

	logger.L().Infof("🛑 Job %s cancelled before image %d/%d", job.JobID, imageIndex+1, job.TotalImages)
	markCancelled(ctx, service, job.JobID)
	return true
}

// CheckAfterGeneration - 이미지 생성 후 취소 체크 (저장/차감 전)
// 취소됐으면 방금 생성한 이미지는 버린다
func CheckAfterGeneration(ctx context.Context, service StatusUpdater, job *model.PortraitJob, imageIndex int) bool {
	if !service.IsJobCancelled(ctx, job.JobID) {
		return false
	}

	logger.L().Infof("🛑 Job %s cancelled after generation, discarding image %d", job.JobID, imageIndex+1)
	markCancelled(ctx, service, job.JobID)
	return true
}

// HandleFinalStatus - 최종 상태 처리
// 취소된 Job이면 completed로 덮어쓰지 않고 true 반환
func HandleFinalStatus(ctx context.Context, service StatusUpdater, job *model.PortraitJob, savedAttachIDs []int) bool {
	if !service.IsJobCancelled(ctx, job.JobID) {
		return false
	}

	logger.L().Infof("🛑 Job %s was cancelled, keeping user_cancelled status (%d images saved)", job.JobID, len(savedAttachIDs))
	return true
}
