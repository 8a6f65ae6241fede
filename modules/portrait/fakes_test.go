package portrait

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"portrait-studio-server/modules/common/config"
	"portrait-studio-server/modules/common/hub"
	"portrait-studio-server/modules/common/model"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	fail    func(prompt string) error
	onCall  func(n int)
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, source []byte, mimeType, prompt, aspectRatio string) ([]byte, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	n := len(f.prompts)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(n)
	}
	if f.fail != nil {
		if err := f.fail(prompt); err != nil {
			return nil, err
		}
	}
	return []byte("generated-image"), nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeCredits struct {
	mu       sync.Mutex
	balance  int
	deducted int
	refs     []string
}

func (f *fakeCredits) HasEnough(ctx context.Context, userID string, amount int) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance >= amount, f.balance, nil
}

func (f *fakeCredits) Deduct(ctx context.Context, userID string, amount int, reference string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance -= amount
	f.deducted += amount
	f.refs = append(f.refs, reference)
	return f.balance, nil
}

type fakeImages struct {
	mu      sync.Mutex
	uploads map[string]int
	source  []byte
}

func newFakeImages(source []byte) *fakeImages {
	return &fakeImages{uploads: map[string]int{}, source: source}
}

func (f *fakeImages) Upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[filePath] = len(data)
	return nil
}

func (f *fakeImages) DownloadImage(ctx context.Context, attachID int) ([]byte, error) {
	if f.source == nil {
		return nil, errors.New("not found")
	}
	return f.source, nil
}

func (f *fakeImages) PublicURL(filePath string) string {
	return "https://cdn.test/" + filePath
}

type fakeRepo struct {
	mu        sync.Mutex
	nextID    int
	portraits []model.Portrait
	statuses  []string
	progress  [][3]int
	failedMsg string
}

func (f *fakeRepo) CreateAttachRecord(ctx context.Context, filePath string, fileSize int64, fileType string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID, nil
}

func (f *fakeRepo) CreatePortrait(ctx context.Context, p *model.Portrait) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.portraits = append(f.portraits, *p)
	return int64(len(f.portraits)), nil
}

func (f *fakeRepo) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeRepo) UpdateJobProgress(ctx context.Context, jobID string, completedImages, failedImages int, generatedAttachIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, [3]int{completedImages, failedImages, len(generatedAttachIDs)})
	return nil
}

func (f *fakeRepo) FailJob(ctx context.Context, jobID string, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedMsg = message
	f.statuses = append(f.statuses, model.StatusFailed)
	return nil
}

type fakeCancels struct {
	mu        sync.Mutex
	cancelled bool
}

func (f *fakeCancels) set() {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
}

func (f *fakeCancels) IsJobCancelled(ctx context.Context, jobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []hub.Message
}

func (f *fakePublisher) Publish(userID string, msg hub.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	for i, m := range f.messages {
		out[i] = m.Type
	}
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type testEnv struct {
	svc       *Service
	gen       *fakeGenerator
	credits   *fakeCredits
	images    *fakeImages
	repo      *fakeRepo
	cancels   *fakeCancels
	publisher *fakePublisher
}

func newTestEnv(t *testing.T, balance int) *testEnv {
	t.Helper()
	env := &testEnv{
		gen:       &fakeGenerator{},
		credits:   &fakeCredits{balance: balance},
		images:    newFakeImages(pngBytes(t)),
		repo:      &fakeRepo{},
		cancels:   &fakeCancels{},
		publisher: &fakePublisher{},
	}
	cfg := &config.Config{ImagePerPrice: 5, WebPQuality: 90, ThumbnailSize: 64}
	env.svc = NewService(cfg, Dependencies{
		Generator: env.gen,
		Credits:   env.credits,
		Images:    env.images,
		Repo:      env.repo,
		Cancels:   env.cancels,
		Publisher: env.publisher,
	})
	env.svc.encode = func(raw []byte) ([]byte, []byte, error) {
		if len(raw) == 0 {
			return nil, nil, fmt.Errorf("empty")
		}
		return raw, raw[:1], nil
	}
	return env
}
