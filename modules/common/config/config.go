package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portrait-studio-server/modules/common/logger"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string

	// Gemini API (쉼표로 구분된 여러 키 - 429 시 순차 사용)
	GeminiAPIKeys []string
	GeminiModel   string

	// Server
	Port          string
	WebhookSecret string

	// Logging
	LogLevel  string
	LogFormat string

	// Credit
	ImagePerPrice int

	// Generation
	GenerationRateInterval time.Duration
	WebPQuality            float32
	ThumbnailSize          int
}

var globalConfig *Config

// LoadConfig - 환경변수 로드 + 필수값 검증 후 전역 설정으로 등록
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		logger.L().Infof("⚠️  .env file not found, using environment variables")
	}

	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	// 필수 환경변수 검증
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg

	logger.L().Infof("✅ Configuration loaded successfully")
	logger.L().Infof("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	logger.L().Infof("   Supabase: %s", cfg.SupabaseURL)
	logger.L().Infof("   Gemini: %s (%d keys)", cfg.GeminiModel, len(cfg.GeminiAPIKeys))
	logger.L().Infof("   Credit: %d per image", cfg.ImagePerPrice)

	return cfg, nil
}

// Load - 환경변수만 파싱 (검증/전역 등록 없음, CLI 및 테스트용)
func Load() (*Config, error) {
	// Redis UseTLS 파싱
	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		parsed, err := strconv.ParseBool(tlsStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_USE_TLS: %w", err)
		}
		useTLS = parsed
	}

	// ImagePerPrice 파싱 (기본값 5 크레딧/장)
	imagePerPrice, err := strconv.Atoi(getEnv("IMAGE_PER_PRICE", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_PER_PRICE: %w", err)
	}
	if imagePerPrice < 0 {
		return nil, fmt.Errorf("invalid IMAGE_PER_PRICE: must not be negative")
	}

	rateInterval, err := time.ParseDuration(getEnv("GENERATION_RATE_INTERVAL", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATION_RATE_INTERVAL: %w", err)
	}

	webpQuality, err := strconv.ParseFloat(getEnv("WEBP_QUALITY", "90"), 32)
	if err != nil || webpQuality <= 0 || webpQuality > 100 {
		return nil, fmt.Errorf("invalid WEBP_QUALITY: %q", os.Getenv("WEBP_QUALITY"))
	}

	thumbnailSize, err := strconv.Atoi(getEnv("THUMBNAIL_SIZE", "384"))
	if err != nil || thumbnailSize <= 0 {
		return nil, fmt.Errorf("invalid THUMBNAIL_SIZE: %q", os.Getenv("THUMBNAIL_SIZE"))
	}

	return &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Gemini API
		GeminiAPIKeys: splitKeys(getEnv("GEMINI_API_KEY", "")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),

		// Server
		Port:          getEnv("PORT", "8080"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Credit
		ImagePerPrice: imagePerPrice,

		// Generation
		GenerationRateInterval: rateInterval,
		WebPQuality:            float32(webpQuality),
		ThumbnailSize:          thumbnailSize,
	}, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		logger.L().Fatalf("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// SetConfig - 전역 설정 직접 등록 (테스트용)
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// Validate - 필수 환경변수 검증
func (c *Config) Validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// StorageURL - Storage 경로를 공개 URL로 변환
func (c *Config) StorageURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return c.SupabaseStorageBaseURL + filePath
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitKeys - "key1,key2" 형태를 키 목록으로 분리 (빈 값 제거)
func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
