package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"portrait-studio-server/modules/common/model"
)

func TestWorker_ProcessesQueuedJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue, store, proc := newFakeQueue(), newFakeStore(), &fakeProcessor{}
	for _, id := range []string{"a", "b", "bad"} {
		require.NoError(t, store.CreateJob(context.Background(), &model.PortraitJob{JobID: id}))
		_, err := queue.Push(context.Background(), id)
		require.NoError(t, err)
	}
	// 레코드 없는 Job은 건너뜀
	_, err := queue.Push(context.Background(), "missing")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(queue, store, proc, 2).StartWorker(ctx) }()

	assert.Eventually(t, func() bool { return proc.count() == 3 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_StopsWhileJobsRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	old := drainTimeout
	drainTimeout = 20 * time.Millisecond
	defer func() { drainTimeout = old }()

	queue, store := newFakeQueue(), newFakeStore()
	proc := &fakeProcessor{block: make(chan struct{})}
	require.NoError(t, store.CreateJob(context.Background(), &model.PortraitJob{JobID: "slow"}))
	_, err := queue.Push(context.Background(), "slow")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(queue, store, proc, 1).StartWorker(ctx) }()

	assert.Eventually(t, func() bool { return len(queue.jobs) == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 0, proc.count())
}

func TestWorker_DrainsRunningJobsOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue, store := newFakeQueue(), newFakeStore()
	proc := &fakeProcessor{block: make(chan struct{})}
	require.NoError(t, store.CreateJob(context.Background(), &model.PortraitJob{JobID: "inflight"}))
	_, err := queue.Push(context.Background(), "inflight")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(queue, store, proc, 1).StartWorker(ctx) }()

	assert.Eventually(t, func() bool { return len(queue.jobs) == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	// 종료 신호 후에도 진행 중인 Job은 끝까지 처리
	select {
	case <-done:
		t.Fatal("worker returned before running job finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(proc.block)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 1, proc.count())
}

func TestWorker_RetriesAfterRedisError(t *testing.T) {
	defer goleak.VerifyNone(t)

	old := popRetryDelay
	popRetryDelay = 10 * time.Millisecond
	defer func() { popRetryDelay = old }()

	queue, store, proc := newFakeQueue(), newFakeStore(), &fakeProcessor{}
	queue.popErr = errors.New("connection refused")
	require.NoError(t, store.CreateJob(context.Background(), &model.PortraitJob{JobID: "later"}))
	_, err := queue.Push(context.Background(), "later")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(queue, store, proc, 1).StartWorker(ctx) }()

	time.Sleep(30 * time.Millisecond)
	queue.mu.Lock()
	queue.popErr = nil
	queue.mu.Unlock()

	assert.Eventually(t, func() bool { return proc.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestNewWorkerDefaults(t *testing.T) {
	w := NewWorker(newFakeQueue(), newFakeStore(), &fakeProcessor{}, 0)
	assert.Equal(t, DefaultConcurrency, w.concurrency)
}
