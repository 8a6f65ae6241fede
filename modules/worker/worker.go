package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
	redisClient "portrait-studio-server/modules/common/redis"
)

const (
	// BRPOP 타임아웃 (종료 신호 확인 주기)
	popTimeout         = 5 * time.Second
	DefaultConcurrency = 4
)

var (
	// popRetryDelay - Redis 오류 후 재시도 대기
	popRetryDelay = 5 * time.Second
	// drainTimeout - 종료 신호 후 진행 중인 Job을 기다리는 최대 시간
	drainTimeout = 2 * time.Minute
)

// Processor - Job 1건 처리
type Processor interface {
	ProcessJob(ctx context.Context, job *model.PortraitJob) error
}

// Worker - Redis Queue Worker
type Worker struct {
	queue       JobQueue
	store       JobStore
	processor   Processor
	concurrency int
}

// NewWorker - concurrency가 0 이하면 DefaultConcurrency
func NewWorker(queue JobQueue, store JobStore, processor Processor, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Worker{queue: queue, store: store, processor: processor, concurrency: concurrency}
}

// StartWorker - ctx가 끝날 때까지 큐 감시. 진행 중인 Job은 drainTimeout까지 기다린 뒤 취소
func (w *Worker) StartWorker(ctx context.Context) error {
	logger.L().Infof("🔄 [Worker] Watching queue: %s (concurrency: %d)", redisClient.PortraitQueue, w.concurrency)

	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	var eg errgroup.Group
	eg.SetLimit(w.concurrency)

	for ctx.Err() == nil {
		jobID, err := w.queue.Pop(ctx, popTimeout)
		if errors.Is(err, redisClient.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.L().Errorf("❌ [Worker] Redis BRPOP error: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(popRetryDelay):
			}
			continue
		}

		logger.L().Infof("🎯 [Worker] Received new job: %s", jobID)
		eg.Go(func() error {
			w.processJob(jobCtx, jobID)
			return nil
		})
	}

	logger.L().Infof("🛑 [Worker] Stopping, waiting up to %s for running jobs...", drainTimeout)
	timer := time.AfterFunc(drainTimeout, cancelJobs)
	defer timer.Stop()
	return eg.Wait()
}

// processJob - Job 조회 후 처리. 실패는 로그만 남긴다 (상태는 Processor가 기록)
func (w *Worker) processJob(ctx context.Context, jobID string) {
	job, err := w.store.FetchJob(ctx, jobID)
	if err != nil {
		logger.L().Errorf("❌ [Worker] Failed to fetch job %s: %v", jobID, err)
		return
	}

	start := time.Now()
	if err := w.processor.ProcessJob(ctx, job); err != nil {
		logger.L().Errorf("❌ [Worker] Job %s failed after %s: %v", jobID, time.Since(start).Round(time.Millisecond), err)
		return
	}
	logger.L().Infof("✅ [Worker] Job %s finished in %s", jobID, time.Since(start).Round(time.Millisecond))
}
