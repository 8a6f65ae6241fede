package cancel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"portrait-studio-server/modules/common/model"
)

type fakeUpdater struct {
	cancelled map[string]bool
	statuses  map[string]string
	failWrite bool
}

func newFakeUpdater(cancelled ...string) *fakeUpdater {
	f := &fakeUpdater{cancelled: map[string]bool{}, statuses: map[string]string{}}
	for _, id := range cancelled {
		f.cancelled[id] = true
	}
	return f
}

func (f *fakeUpdater) IsJobCancelled(ctx context.Context, jobID string) bool {
	return f.cancelled[jobID]
}

func (f *fakeUpdater) UpdateJobStatus(ctx context.Context, jobID, status string) error {
	if f.failWrite {
		return errors.New("db down")
	}
	f.statuses[jobID] = status
	return nil
}

func TestCheckBeforeGeneration(t *testing.T) {
	ctx := context.Background()

	f := newFakeUpdater("j1")
	assert.True(t, CheckBeforeGeneration(ctx, f, &model.PortraitJob{JobID: "j1", TotalImages: 3}, 1))
	assert.Equal(t, model.StatusUserCancelled, f.statuses["j1"])

	assert.False(t, CheckBeforeGeneration(ctx, f, &model.PortraitJob{JobID: "j2"}, 0))
	assert.NotContains(t, f.statuses, "j2")

	f.failWrite = true
	assert.True(t, CheckBeforeGeneration(ctx, f, &model.PortraitJob{JobID: "j1"}, 0))
}

func TestCheckAfterGeneration(t *testing.T) {
	ctx := context.Background()
	f := newFakeUpdater("j1")

	assert.True(t, CheckAfterGeneration(ctx, f, &model.PortraitJob{JobID: "j1"}, 0))
	assert.Equal(t, model.StatusUserCancelled, f.statuses["j1"])
	assert.False(t, CheckAfterGeneration(ctx, f, &model.PortraitJob{JobID: "other"}, 0))
}

func TestHandleFinalStatus(t *testing.T) {
	ctx := context.Background()
	f := newFakeUpdater("j1")

	assert.True(t, HandleFinalStatus(ctx, f, &model.PortraitJob{JobID: "j1"}, []int{1, 2}))
	assert.Empty(t, f.statuses)
	assert.False(t, HandleFinalStatus(ctx, f, &model.PortraitJob{JobID: "j2"}, nil))
}
