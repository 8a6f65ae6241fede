package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init - 프로세스 전역 로거 초기화 (level: debug|info|warn|error, format: json|console)
func Init(level string, format string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(orDefault(level, "info"))))
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel

	base, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Set(base.Sugar())
	return nil
}

// Set - 로거 교체 (테스트에서 observer 주입용)
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	sugar = l
	mu.Unlock()
}

// L - 현재 로거 반환. Init 전에는 Nop 로거
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Sync - 버퍼 flush (종료 직전 호출)
func Sync() {
	_ = L().Sync()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
