package api

import (
	"encoding/json"
	"net/http"

	"portrait-studio-server/modules/common/logger"
)

// Error codes
const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrCodeNotFound            = "NOT_FOUND"
)

// ErrorResponse - 공통 에러 응답
type ErrorResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

// JSON - 상태코드와 함께 JSON 응답
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warnf("⚠️  Failed to write response: %v", err)
	}
}

// Error - 에러 응답
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{
		Success:      false,
		ErrorMessage: message,
		ErrorCode:    code,
	})
}

// DecodeJSON - 요청 바디 파싱 (최대 크기 제한)
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// CORS - CORS 헤더 추가 미들웨어
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Webhook-Secret")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
