package portrait

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portrait-studio-server/modules/common/credit"
	"portrait-studio-server/modules/prompt"
)

func generateRequest(t *testing.T, variations bool) GenerateRequest {
	t.Helper()
	req := validRequest()
	req.ImageBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
	req.Variations = variations
	return req
}

func TestBuildPrompts(t *testing.T) {
	env := newTestEnv(t, 0)

	t.Run("single", func(t *testing.T) {
		prompts, err := env.svc.BuildPrompts(validRequest())
		require.NoError(t, err)
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "licensed psychologist specializing in anxiety disorders")
		assert.Contains(t, prompts[0], "this woman")
		assert.True(t, strings.HasPrefix(prompts[0], prompt.PromptPrefix))
	})

	t.Run("variations", func(t *testing.T) {
		req := validRequest()
		req.Variations = true
		prompts, err := env.svc.BuildPrompts(req)
		require.NoError(t, err)
		assert.Len(t, prompts, prompt.VariationCount)
		assert.NotEqual(t, prompts[0], prompts[1])
	})

	t.Run("explicit spec key", func(t *testing.T) {
		req := validRequest()
		req.SpecKey = prompt.SpecVideoCall
		prompts, err := env.svc.BuildPrompts(req)
		require.NoError(t, err)
		want := prompt.MustSpecs(prompt.SpecVideoCall)
		assert.Contains(t, prompts[0], want.Camera)
	})

	t.Run("invalid", func(t *testing.T) {
		req := validRequest()
		req.Setting = "moon"
		_, err := env.svc.BuildPrompts(req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestGenerate(t *testing.T) {
	t.Run("variations saved and charged", func(t *testing.T) {
		env := newTestEnv(t, 100)

		resp, err := env.svc.Generate(context.Background(), generateRequest(t, true))
		require.NoError(t, err)

		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.RequestID)
		require.Len(t, resp.Portraits, 3)
		for i, p := range resp.Portraits {
			assert.Equal(t, i, p.Variation)
			assert.True(t, strings.HasPrefix(p.ImageURL, "https://cdn.test/portraits/user-user-1/portrait_"))
			assert.NotEmpty(t, p.ThumbnailURL)
			assert.Equal(t, prompt.ValidatePrompt(p.Prompt).Score, p.PromptScore)
		}
		assert.Equal(t, 0, resp.FailedCount)
		assert.Equal(t, 15, resp.CreditsUsed)
		assert.Equal(t, 85, resp.CreditsRemaining)

		assert.Equal(t, 3, env.gen.calls())
		assert.Len(t, env.images.uploads, 6)
		require.Len(t, env.repo.portraits, 3)
		for _, p := range env.repo.portraits {
			assert.Equal(t, "user-1", p.UserID)
			assert.Equal(t, "office", p.Setting)
			assert.Equal(t, prompt.SpecOfficeEnvironment, p.SpecKey)
			require.NotNil(t, p.ThumbnailAttachID)
		}
		assert.Equal(t, []string{resp.RequestID}, env.credits.refs)
	})

	t.Run("insufficient credits", func(t *testing.T) {
		env := newTestEnv(t, 10)

		_, err := env.svc.Generate(context.Background(), generateRequest(t, true))
		assert.ErrorIs(t, err, credit.ErrInsufficientCredits)
		assert.Equal(t, 0, env.gen.calls())
		assert.Equal(t, 0, env.credits.deducted)
	})

	t.Run("partial failure charges saved only", func(t *testing.T) {
		env := newTestEnv(t, 100)
		env.gen.fail = func(p string) error {
			if strings.Contains(p, "photorealistic skin texture") {
				return errors.New("model refused")
			}
			return nil
		}

		resp, err := env.svc.Generate(context.Background(), generateRequest(t, true))
		require.NoError(t, err)
		assert.Len(t, resp.Portraits, 2)
		assert.Equal(t, 1, resp.FailedCount)
		assert.Equal(t, 10, resp.CreditsUsed)
	})

	t.Run("client gone after generation still saves and charges", func(t *testing.T) {
		env := newTestEnv(t, 100)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		env.gen.onCall = func(int) { cancel() }

		_, err := env.svc.Generate(ctx, generateRequest(t, false))
		require.ErrorIs(t, err, context.Canceled)
		assert.Len(t, env.repo.portraits, 1)
		assert.Equal(t, 5, env.credits.deducted)
		assert.Equal(t, 95, env.credits.balance)
	})

	t.Run("all failed", func(t *testing.T) {
		env := newTestEnv(t, 100)
		env.gen.fail = func(string) error { return errors.New("quota") }

		_, err := env.svc.Generate(context.Background(), generateRequest(t, false))
		assert.Error(t, err)
		assert.Equal(t, 0, env.credits.deducted)
		assert.Empty(t, env.repo.portraits)
	})

	t.Run("invalid request", func(t *testing.T) {
		env := newTestEnv(t, 100)
		req := generateRequest(t, false)
		req.UserID = ""

		_, err := env.svc.Generate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unsupported image", func(t *testing.T) {
		env := newTestEnv(t, 100)
		req := generateRequest(t, false)
		req.ImageBase64 = base64.StdEncoding.EncodeToString([]byte("plain text, not an image"))

		_, err := env.svc.Generate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, 0, env.gen.calls())
	})
}
