package billing

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"portrait-studio-server/modules/common/api"
	"portrait-studio-server/modules/common/credit"
	"portrait-studio-server/modules/common/logger"
)

// WebhookSecretHeader - 결제 webhook 공유 비밀 헤더
const WebhookSecretHeader = "X-Webhook-Secret"

const maxWebhookBody = 16 << 10

// Ledger - 잔액 조회/지급. Grant는 reference당 한 번만 반영
type Ledger interface {
	GetBalance(ctx context.Context, userID string) (int, error)
	Grant(ctx context.Context, userID string, amount int, reference string) (int, error)
}

// BalanceResponse - GET /api/credits/{userId}
type BalanceResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
	Balance int    `json:"balance"`
}

// WebhookRequest - 결제 완료 callback 바디
type WebhookRequest struct {
	UserID    string `json:"userId"`
	Credits   int    `json:"credits"`
	Reference string `json:"reference"`
}

type Handler struct {
	ledger Ledger
	secret string
}

// NewHandler - secret이 비어 있으면 webhook은 항상 401
func NewHandler(ledger Ledger, secret string) *Handler {
	return &Handler{ledger: ledger, secret: secret}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/credits/webhook", h.HandleWebhook).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/credits/{userId}", h.HandleBalance).Methods("GET", "OPTIONS")
}

// HandleBalance - 현재 잔액
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	balance, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, credit.ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "user not found")
			return
		}
		logger.L().Errorf("❌ [Billing] Failed to fetch balance for %s: %v", userID, err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to fetch balance")
		return
	}

	api.JSON(w, http.StatusOK, BalanceResponse{Success: true, UserID: userID, Balance: balance})
}

func (h *Handler) authorized(r *http.Request) bool {
	got := r.Header.Get(WebhookSecretHeader)
	if h.secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

// HandleWebhook - 결제 완료 시 크레딧 지급
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		logger.L().Warnf("⚠️  [Billing] Rejected webhook from %s", r.RemoteAddr)
		api.Error(w, http.StatusUnauthorized, api.ErrCodeUnauthorized, "invalid webhook secret")
		return
	}

	var req WebhookRequest
	if err := api.DecodeJSON(w, r, maxWebhookBody, &req); err != nil {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || req.Credits <= 0 {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "userId and positive credits are required")
		return
	}
	// reference 없이는 재전송을 구분할 수 없음
	if strings.TrimSpace(req.Reference) == "" {
		api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "reference is required")
		return
	}

	balance, err := h.ledger.Grant(r.Context(), req.UserID, req.Credits, req.Reference)
	if err != nil {
		if errors.Is(err, credit.ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "user not found")
			return
		}
		logger.L().Errorf("❌ [Billing] Failed to grant %d credits to %s: %v", req.Credits, req.UserID, err)
		api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to grant credits")
		return
	}

	logger.L().Infof("💳 [Billing] Granted %d credits to %s (ref=%s)", req.Credits, req.UserID, req.Reference)
	api.JSON(w, http.StatusOK, BalanceResponse{Success: true, UserID: req.UserID, Balance: balance})
}
