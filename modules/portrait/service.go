package portrait

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"portrait-studio-server/modules/common/config"
	"portrait-studio-server/modules/common/credit"
	"portrait-studio-server/modules/common/hub"
	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
	"portrait-studio-server/modules/common/storage"
	"portrait-studio-server/modules/common/utils"
	"portrait-studio-server/modules/prompt"
)

// 저장 경로
const (
	portraitFolder  = "portraits"
	thumbnailFolder = "portrait-thumbnails"
	webpContentType = "image/webp"
)

// ImageGenerator - 참조 사진 + 프롬프트 → 이미지
type ImageGenerator interface {
	GenerateImage(ctx context.Context, source []byte, mimeType, prompt, aspectRatio string) ([]byte, error)
}

// CreditStore - 크레딧 조회/차감
type CreditStore interface {
	HasEnough(ctx context.Context, userID string, amount int) (bool, int, error)
	Deduct(ctx context.Context, userID string, amount int, reference string) (int, error)
}

// ImageStore - Storage 업로드/다운로드
type ImageStore interface {
	Upload(ctx context.Context, filePath string, data []byte, contentType string) error
	DownloadImage(ctx context.Context, attachID int) ([]byte, error)
	PublicURL(filePath string) string
}

// Repository - attach/portrait/job 레코드
type Repository interface {
	CreateAttachRecord(ctx context.Context, filePath string, fileSize int64, fileType string) (int, error)
	CreatePortrait(ctx context.Context, p *model.Portrait) (int64, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string) error
	UpdateJobProgress(ctx context.Context, jobID string, completedImages, failedImages int, generatedAttachIDs []int) error
	FailJob(ctx context.Context, jobID string, message string) error
}

// CancelChecker - Job 취소 여부
type CancelChecker interface {
	IsJobCancelled(ctx context.Context, jobID string) bool
}

// Publisher - 사용자에게 진행 상황 전송
type Publisher interface {
	Publish(userID string, msg hub.Message)
}

// encodeFunc - 생성 이미지 → (WebP 원본, WebP 썸네일)
type encodeFunc func(raw []byte) (full []byte, thumb []byte, err error)

// Dependencies - Service 구성 요소
type Dependencies struct {
	Generator ImageGenerator
	Credits   CreditStore
	Images    ImageStore
	Repo      Repository
	Cancels   CancelChecker
	Publisher Publisher
}

type Service struct {
	deps          Dependencies
	pricePerImage int
	limiter       *rate.Limiter
	encode        encodeFunc
}

// NewService - 설정과 의존성으로 Service 생성
func NewService(cfg *config.Config, deps Dependencies) *Service {
	interval := cfg.GenerationRateInterval
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	quality, thumbSize := cfg.WebPQuality, cfg.ThumbnailSize
	return &Service{
		deps:          deps,
		pricePerImage: cfg.ImagePerPrice,
		// Burst 2: 변형 생성 시 처음 2장은 바로 시작
		limiter: rate.NewLimiter(limit, 2),
		encode: func(raw []byte) ([]byte, []byte, error) {
			return encodeWebP(raw, quality, thumbSize)
		},
	}
}

// PricePerImage - 장당 크레딧
func (s *Service) PricePerImage() int {
	return s.pricePerImage
}

func encodeWebP(raw []byte, quality float32, thumbSize int) ([]byte, []byte, error) {
	img, _, err := utils.DecodeImage(raw)
	if err != nil {
		return nil, nil, err
	}

	full, err := utils.EncodeWebP(img, quality)
	if err != nil {
		return nil, nil, err
	}

	thumb, err := utils.EncodeWebP(utils.Thumbnail(img, thumbSize), quality)
	if err != nil {
		return nil, nil, fmt.Errorf("thumbnail: %w", err)
	}
	return full, thumb, nil
}

// buildPrompts - 요청 선택값으로 프롬프트 목록 생성 (variations면 3개)
func buildPrompts(sel selection) ([]string, error) {
	specs, ok := prompt.Specs(sel.SpecKey)
	if !ok {
		return nil, invalid("unknown specKey %q", sel.SpecKey)
	}

	ctx, err := prompt.CreatePsychologistContext(sel.Specialization, sel.Setting, sel.Style, sel.Gender)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if sel.Variations {
		return prompt.GenerateVariations(ctx, specs, sel.Gender), nil
	}
	return []string{prompt.BuildPrompt(ctx, specs, sel.Gender)}, nil
}

// BuildPrompts - GenerateRequest에서 프롬프트 생성
func (s *Service) BuildPrompts(req GenerateRequest) ([]string, error) {
	sel, err := parseSelection(req.Specialization, req.Setting, req.Style, req.Gender, req.SpecKey, req.Variations)
	if err != nil {
		return nil, err
	}
	return buildPrompts(sel)
}

// generation - 생성 1건 (동기 요청 또는 큐 Job)
type generation struct {
	id          string // requestID 또는 jobID
	userID      string
	source      []byte
	mimeType    string
	aspectRatio string
	sel         selection
}

// ensureCredits - 필요한 크레딧 보유 확인
func (s *Service) ensureCredits(ctx context.Context, userID string, count int) (int, error) {
	need := s.pricePerImage * count
	if need == 0 {
		return 0, nil
	}
	ok, balance, err := s.deps.Credits.HasEnough(ctx, userID, need)
	if err != nil {
		return 0, fmt.Errorf("failed to check credits: %w", err)
	}
	if !ok {
		return balance, fmt.Errorf("%w: have %d, need %d", credit.ErrInsufficientCredits, balance, need)
	}
	return balance, nil
}

// generate - rate limit 대기 후 이미지 생성
func (s *Service) generate(ctx context.Context, j *generation, p string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.deps.Generator.GenerateImage(ctx, j.source, j.mimeType, p, j.aspectRatio)
}

// save - WebP 변환 → 업로드 → attach/portrait 레코드
func (s *Service) save(ctx context.Context, j *generation, p string, variation int, raw []byte) (*GeneratedPortrait, error) {
	full, thumb, err := s.encode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	filePath := storage.NewFilePath(portraitFolder, j.userID, "portrait", "webp")
	if err := s.deps.Images.Upload(ctx, filePath, full, webpContentType); err != nil {
		return nil, err
	}
	attachID, err := s.deps.Repo.CreateAttachRecord(ctx, filePath, int64(len(full)), webpContentType)
	if err != nil {
		return nil, err
	}

	// 썸네일은 실패해도 원본은 유지
	var thumbPath *string
	var thumbAttachID *int
	tp := storage.NewFilePath(thumbnailFolder, j.userID, "thumb", "webp")
	if err := s.deps.Images.Upload(ctx, tp, thumb, webpContentType); err != nil {
		logger.L().Warnf("⚠️  [Portrait] Thumbnail upload failed: %v", err)
	} else if id, err := s.deps.Repo.CreateAttachRecord(ctx, tp, int64(len(thumb)), webpContentType); err != nil {
		logger.L().Warnf("⚠️  [Portrait] Thumbnail attach failed: %v", err)
	} else {
		thumbPath, thumbAttachID = &tp, &id
	}

	score := prompt.ValidatePrompt(p).Score
	row := &model.Portrait{
		UserID:            j.userID,
		AttachID:          attachID,
		ThumbnailAttachID: thumbAttachID,
		FilePath:          filePath,
		ThumbnailPath:     thumbPath,
		Prompt:            p,
		PromptScore:       score,
		Specialization:    j.sel.Specialization,
		Setting:           string(j.sel.Setting),
		Style:             string(j.sel.Style),
		Gender:            string(j.sel.Gender),
		SpecKey:           j.sel.SpecKey,
		AspectRatio:       j.aspectRatio,
	}
	if j.id != "" {
		id := j.id
		row.JobID = &id
	}

	portraitID, err := s.deps.Repo.CreatePortrait(ctx, row)
	if err != nil {
		return nil, err
	}

	result := &GeneratedPortrait{
		PortraitID:  portraitID,
		AttachID:    attachID,
		ImageURL:    s.deps.Images.PublicURL(filePath),
		Prompt:      p,
		PromptScore: score,
		Variation:   variation,
	}
	if thumbPath != nil {
		result.ThumbnailURL = s.deps.Images.PublicURL(*thumbPath)
	}
	logger.L().Infof("✅ [Portrait] Saved portrait %d (variation %d, %d bytes)", portraitID, variation, len(full))
	return result, nil
}

// charge - 저장된 장수만큼 크레딧 차감
func (s *Service) charge(ctx context.Context, userID string, saved int, reference string) (used, remaining int) {
	used = s.pricePerImage * saved
	if used == 0 {
		return 0, 0
	}
	remaining, err := s.deps.Credits.Deduct(ctx, userID, used, reference)
	if err != nil {
		logger.L().Errorf("❌ [Portrait] Failed to deduct %d credits from %s: %v", used, userID, err)
		return 0, remaining
	}
	return used, remaining
}

// Generate - 동기 생성: 크레딧 확인 → 프롬프트 → 병렬 생성 → 저장 → 차감
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := ValidateGenerateRequest(req); err != nil {
		return nil, err
	}
	sel, _ := parseSelection(req.Specialization, req.Setting, req.Style, req.Gender, req.SpecKey, req.Variations)

	source, err := utils.DecodeBase64Image(req.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	mimeType := utils.DetectMIME(source)
	if !utils.IsSupportedImage(mimeType) {
		return nil, invalid("unsupported image type %s", mimeType)
	}

	prompts, err := buildPrompts(sel)
	if err != nil {
		return nil, err
	}

	if _, err := s.ensureCredits(ctx, req.UserID, len(prompts)); err != nil {
		return nil, err
	}

	j := &generation{
		id:          uuid.NewString(),
		userID:      req.UserID,
		source:      source,
		mimeType:    mimeType,
		aspectRatio: req.AspectRatio,
		sel:         sel,
	}
	logger.L().Infof("🎨 [Portrait] Generating %d portrait(s): request=%s user=%s setting=%s style=%s",
		len(prompts), j.id, j.userID, sel.Setting, sel.Style)

	results := make([]*GeneratedPortrait, len(prompts))
	var mu sync.Mutex
	var failures []error

	// 생성이 끝난 이미지는 요청이 끊겨도 저장/차감까지 마무리
	bg := context.WithoutCancel(ctx)

	var eg errgroup.Group
	for i, p := range prompts {
		eg.Go(func() error {
			raw, err := s.generate(ctx, j, p)
			if err == nil {
				results[i], err = s.save(bg, j, p, i, raw)
			}
			if err != nil {
				logger.L().Warnf("⚠️  [Portrait] Variation %d failed: %v", i, err)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	resp := &GenerateResponse{Success: true, RequestID: j.id, FailedCount: len(failures)}
	for _, r := range results {
		if r != nil {
			resp.Portraits = append(resp.Portraits, *r)
		}
	}

	if ctx.Err() != nil {
		used, _ := s.charge(bg, j.userID, len(resp.Portraits), j.id)
		logger.L().Warnf("⚠️  [Portrait] Request %s interrupted: %d saved, %d credits", j.id, len(resp.Portraits), used)
		return nil, fmt.Errorf("generation interrupted after %d saved: %w", len(resp.Portraits), ctx.Err())
	}
	if len(resp.Portraits) == 0 {
		return nil, fmt.Errorf("all %d generations failed: %w", len(prompts), errors.Join(failures...))
	}

	resp.CreditsUsed, resp.CreditsRemaining = s.charge(bg, j.userID, len(resp.Portraits), j.id)
	logger.L().Infof("✅ [Portrait] Request %s done: %d saved, %d failed, %d credits", j.id, len(resp.Portraits), resp.FailedCount, resp.CreditsUsed)
	return resp, nil
}
