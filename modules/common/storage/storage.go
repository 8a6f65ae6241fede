package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"portrait-studio-server/modules/common/config"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
)

// Bucket - Supabase Storage 버킷
const Bucket = "attachments"

// AttachLookup - attach_id로 파일 경로 조회
type AttachLookup interface {
	FetchAttachInfo(ctx context.Context, attachID int) (*model.Attach, error)
}

type Client struct {
	attaches   AttachLookup
	httpClient *http.Client
	baseURL    string // Supabase 프로젝트 URL
	publicURL  string // 공개 다운로드 URL prefix
	serviceKey string
	sources    *cache.Cache // attach_id → 원본 이미지 바이트
}

// NewClient - Storage 클라이언트 생성
func NewClient(cfg *config.Config, attaches AttachLookup) *Client {
	return &Client{
		attaches:   attaches,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    cfg.SupabaseURL,
		publicURL:  cfg.SupabaseStorageBaseURL,
		serviceKey: cfg.SupabaseServiceKey,
		sources:    cache.New(30*time.Minute, time.Hour),
	}
}

// NewFilePath - 업로드 파일 경로 생성 (폴더/user-{id}/{prefix}_{uuid}.{ext})
func NewFilePath(folder, userID, prefix, ext string) string {
	return fmt.Sprintf("%s/user-%s/%s_%s.%s", folder, userID, prefix, uuid.NewString(), ext)
}

// resolvePath - attach 레코드에서 다운로드 경로 결정
func resolvePath(attach *model.Attach) (string, error) {
	var filePath string
	if attach.AttachFilePath != nil && *attach.AttachFilePath != "" {
		filePath = *attach.AttachFilePath
	} else if attach.AttachDirectory != nil && *attach.AttachDirectory != "" {
		filePath = *attach.AttachDirectory
	} else {
		return "", fmt.Errorf("no file path found for attach_id: %d", attach.AttachID)
	}

	// uploads/ 폴더가 빠진 경우 보정
	if strings.HasPrefix(filePath, "upload-") {
		filePath = "uploads/" + filePath
	}
	return filePath, nil
}

// DownloadImage - attach_id의 이미지 다운로드 (메모리 캐시 사용)
func (c *Client) DownloadImage(ctx context.Context, attachID int) ([]byte, error) {
	key := strconv.Itoa(attachID)
	if cached, ok := c.sources.Get(key); ok {
		logger.L().Debugf("♻️  Source image cache hit: %d", attachID)
		return cached.([]byte), nil
	}

	attach, err := c.attaches.FetchAttachInfo(ctx, attachID)
	if err != nil {
		return nil, err
	}

	filePath, err := resolvePath(attach)
	if err != nil {
		return nil, err
	}

	fullURL := c.publicURL + filePath
	logger.L().Infof("📥 Downloading image from: %s", fullURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download image: status %d, body: %s", resp.StatusCode, string(body))
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	c.sources.Set(key, imageData, cache.DefaultExpiration)
	logger.L().Infof("✅ Image downloaded successfully: %d bytes", len(imageData))
	return imageData, nil
}

// Upload - Supabase Storage에 파일 업로드
func (c *Client) Upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, Bucket, filePath)
	logger.L().Infof("📤 Uploading to storage: %s (%d bytes)", filePath, len(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	logger.L().Infof("✅ Uploaded: %s", filePath)
	return nil
}

// PublicURL - 저장 경로의 공개 URL
func (c *Client) PublicURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return c.publicURL + filePath
}
