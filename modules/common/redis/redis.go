package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"portrait-studio-server/modules/common/config"
	"portrait-studio-server/modules/common/logger"
)

// PortraitQueue - 초상화 생성 Job 큐
const PortraitQueue = "portrait:jobs"

// CancelTTL - 취소 플래그 유지 시간
const CancelTTL = 24 * time.Hour

// ErrQueueEmpty - BRPOP 타임아웃 (큐가 비어 있음)
var ErrQueueEmpty = errors.New("queue empty")

// Connect - Redis 연결 생성
func Connect(cfg *config.Config) *redis.Client {
	logger.L().Infof("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // 관리형 Redis 인증서
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.L().Infof("🔍 Testing Redis connection...")
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.L().Errorf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// CancelKey - Job 취소 플래그 키
func CancelKey(jobID string) string {
	return "portrait:cancel:" + jobID
}

// PushJob - 큐에 Job 추가 후 현재 큐 길이 반환
func PushJob(ctx context.Context, rdb redis.Cmdable, jobID string) (int64, error) {
	if err := rdb.LPush(ctx, PortraitQueue, jobID).Err(); err != nil {
		return 0, fmt.Errorf("failed to push job %s: %w", jobID, err)
	}

	queueLen, err := rdb.LLen(ctx, PortraitQueue).Result()
	if err != nil {
		logger.L().Warnf("⚠️  Failed to read queue length: %v", err)
		return 0, nil
	}
	return queueLen, nil
}

// PopJob - 큐에서 Job 하나 꺼내기 (timeout 동안 블로킹)
// 타임아웃이면 ErrQueueEmpty
func PopJob(ctx context.Context, rdb redis.Cmdable, timeout time.Duration) (string, error) {
	result, err := rdb.BRPop(ctx, timeout, PortraitQueue).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrQueueEmpty
	}
	if err != nil {
		return "", err
	}

	// result[0]은 큐 이름, result[1]이 job_id
	if len(result) < 2 {
		return "", fmt.Errorf("unexpected BRPOP reply: %v", result)
	}
	return result[1], nil
}

// SetJobCancelled - 취소 플래그 설정 (24시간 유지)
func SetJobCancelled(ctx context.Context, rdb redis.Cmdable, jobID string) error {
	if err := rdb.Set(ctx, CancelKey(jobID), "1", CancelTTL).Err(); err != nil {
		return fmt.Errorf("failed to set cancel flag: %w", err)
	}
	logger.L().Infof("🛑 Cancel flag set for job: %s", jobID)
	return nil
}

// IsJobCancelled - 취소 플래그 확인. 조회 실패 시 취소되지 않은 것으로 간주
func IsJobCancelled(ctx context.Context, rdb redis.Cmdable, jobID string) bool {
	n, err := rdb.Exists(ctx, CancelKey(jobID)).Result()
	if err != nil {
		logger.L().Warnf("⚠️  Failed to check cancel flag for %s: %v", jobID, err)
		return false
	}
	return n > 0
}

// Queue - Job 큐 + 취소 플래그
type Queue struct {
	rdb redis.Cmdable
}

// NewQueue - Redis 클라이언트로 Queue 생성
func NewQueue(rdb redis.Cmdable) *Queue {
	return &Queue{rdb: rdb}
}

// Push - Job 추가
func (q *Queue) Push(ctx context.Context, jobID string) (int64, error) {
	return PushJob(ctx, q.rdb, jobID)
}

// Pop - Job 꺼내기
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	return PopJob(ctx, q.rdb, timeout)
}

// Cancel - 취소 플래그 설정
func (q *Queue) Cancel(ctx context.Context, jobID string) error {
	return SetJobCancelled(ctx, q.rdb, jobID)
}

// IsJobCancelled - 취소 플래그 확인
func (q *Queue) IsJobCancelled(ctx context.Context, jobID string) bool {
	return IsJobCancelled(ctx, q.rdb, jobID)
}
