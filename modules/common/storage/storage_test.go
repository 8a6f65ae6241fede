package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portrait-studio-server/modules/common/config"
	"portrait-studio-server/modules/common/model"
)

type fakeAttaches map[int]*model.Attach

func (f fakeAttaches) FetchAttachInfo(ctx context.Context, attachID int) (*model.Attach, error) {
	a, ok := f[attachID]
	if !ok {
		return nil, errors.New("attach not found")
	}
	return a, nil
}

func strPtr(s string) *string { return &s }

func newTestClient(t *testing.T, h http.Handler, attaches fakeAttaches) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		SupabaseURL:            srv.URL,
		SupabaseStorageBaseURL: srv.URL + "/public/",
		SupabaseServiceKey:     "service-key",
	}
	return NewClient(cfg, attaches)
}

func TestResolvePath(t *testing.T) {
	p, err := resolvePath(&model.Attach{AttachFilePath: strPtr("a/b.webp")})
	require.NoError(t, err)
	assert.Equal(t, "a/b.webp", p)

	p, err = resolvePath(&model.Attach{AttachFilePath: strPtr(""), AttachDirectory: strPtr("dir/c.png")})
	require.NoError(t, err)
	assert.Equal(t, "dir/c.png", p)

	p, err = resolvePath(&model.Attach{AttachFilePath: strPtr("upload-123.png")})
	require.NoError(t, err)
	assert.Equal(t, "uploads/upload-123.png", p)

	_, err = resolvePath(&model.Attach{AttachID: 9})
	assert.Error(t, err)
}

func TestDownloadImage(t *testing.T) {
	var hits int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/public/uploads/me.png" {
			w.Write([]byte("image-bytes"))
			return
		}
		http.Error(w, "missing", http.StatusNotFound)
	})
	c := newTestClient(t, h, fakeAttaches{
		1: {AttachID: 1, AttachFilePath: strPtr("uploads/me.png")},
		2: {AttachID: 2, AttachFilePath: strPtr("uploads/gone.png")},
	})

	data, err := c.DownloadImage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	// 두 번째 호출은 캐시
	_, err = c.DownloadImage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = c.DownloadImage(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = c.DownloadImage(context.Background(), 3)
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if strings.Contains(r.URL.Path, "fail") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	c := newTestClient(t, h, nil)

	err := c.Upload(context.Background(), "portraits/user-1/p.webp", []byte("webp"), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/attachments/portraits/user-1/p.webp", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/webp", gotType)
	assert.Equal(t, "webp", gotBody)

	err = c.Upload(context.Background(), "fail.webp", []byte("x"), "image/webp")
	assert.Error(t, err)
}

func TestNewFilePath(t *testing.T) {
	a := NewFilePath("portraits", "u1", "portrait", "webp")
	b := NewFilePath("portraits", "u1", "portrait", "webp")
	assert.True(t, strings.HasPrefix(a, "portraits/user-u1/portrait_"))
	assert.True(t, strings.HasSuffix(a, ".webp"))
	assert.NotEqual(t, a, b)
}

func TestPublicURL(t *testing.T) {
	c := NewClient(&config.Config{SupabaseStorageBaseURL: "https://cdn/x/"}, nil)
	assert.Equal(t, "https://cdn/x/a.webp", c.PublicURL("a.webp"))
	assert.Equal(t, "", c.PublicURL(""))
}
