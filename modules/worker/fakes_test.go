package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"portrait-studio-server/modules/common/database"
	"portrait-studio-server/modules/common/hub"
	"portrait-studio-server/modules/common/model"
	redisClient "portrait-studio-server/modules/common/redis"
)

type fakeQueue struct {
	jobs      chan string
	mu        sync.Mutex
	pushed    []string
	cancelled []string
	popErr    error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{jobs: make(chan string, 16)}
}

func (q *fakeQueue) Push(ctx context.Context, jobID string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushed = append(q.pushed, jobID)
	q.jobs <- jobID
	return int64(len(q.jobs)), nil
}

func (q *fakeQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	q.mu.Lock()
	popErr := q.popErr
	q.mu.Unlock()
	if popErr != nil {
		return "", popErr
	}

	select {
	case id := <-q.jobs:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return "", redisClient.ErrQueueEmpty
	}
}

func (q *fakeQueue) Cancel(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelled = append(q.cancelled, jobID)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	jobs    map[string]*model.PortraitJob
	attachs []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[string]*model.PortraitJob{}}
}

func (s *fakeStore) CreateJob(ctx context.Context, job *model.PortraitJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.JobID] = &cp
	return nil
}

func (s *fakeStore) FetchJob(ctx context.Context, jobID string) (*model.PortraitJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, database.ErrNotFound)
	}
	cp := *job
	return &cp, nil
}

func (s *fakeStore) CreateAttachRecord(ctx context.Context, filePath string, fileSize int64, fileType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachs = append(s.attachs, filePath)
	return len(s.attachs), nil
}

type fakeUploader struct {
	paths []string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	if u.err != nil {
		return u.err
	}
	u.paths = append(u.paths, filePath)
	return nil
}

type fakePublisher struct {
	messages []hub.Message
}

func (p *fakePublisher) Publish(userID string, msg hub.Message) {
	p.messages = append(p.messages, msg)
}

type fakeProcessor struct {
	mu        sync.Mutex
	processed []string
	block     chan struct{}
}

func (p *fakeProcessor) ProcessJob(ctx context.Context, job *model.PortraitJob) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, job.JobID)
	if job.JobID == "bad" {
		return errors.New("boom")
	}
	return nil
}

func (p *fakeProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}
