package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portrait-studio-server/modules/common/credit"
)

type fakeLedger struct {
	balances map[string]int
	refs     []string
}

func (f *fakeLedger) GetBalance(ctx context.Context, userID string) (int, error) {
	b, ok := f.balances[userID]
	if !ok {
		return 0, credit.ErrUserNotFound
	}
	return b, nil
}

func (f *fakeLedger) Grant(ctx context.Context, userID string, amount int, reference string) (int, error) {
	if _, ok := f.balances[userID]; !ok {
		return 0, credit.ErrUserNotFound
	}
	for _, ref := range f.refs {
		if ref == reference {
			return f.balances[userID], nil
		}
	}
	f.balances[userID] += amount
	f.refs = append(f.refs, reference)
	return f.balances[userID], nil
}

func newRouter(ledger *fakeLedger, secret string) *mux.Router {
	r := mux.NewRouter()
	NewHandler(ledger, secret).RegisterRoutes(r)
	return r
}

func webhook(r http.Handler, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/credits/webhook", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(WebhookSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleBalance(t *testing.T) {
	r := newRouter(&fakeLedger{balances: map[string]int{"u1": 42}}, "s3cret")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/credits/u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.Balance)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/credits/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleWebhook(t *testing.T) {
	body := `{"userId":"u1","credits":100,"reference":"pay_123"}`

	t.Run("grants credits", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]int{"u1": 5}}
		rec := webhook(newRouter(ledger, "s3cret"), "s3cret", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp BalanceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 105, resp.Balance)
		assert.Equal(t, []string{"pay_123"}, ledger.refs)
	})

	t.Run("replayed webhook grants once", func(t *testing.T) {
		ledger := &fakeLedger{balances: map[string]int{"u1": 0}}
		r := newRouter(ledger, "s3cret")

		for i := 0; i < 2; i++ {
			rec := webhook(r, "s3cret", body)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp BalanceResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, 100, resp.Balance)
		}
		assert.Equal(t, 100, ledger.balances["u1"])
		assert.Equal(t, []string{"pay_123"}, ledger.refs)
	})

	t.Run("secret checks", func(t *testing.T) {
		tests := []struct {
			name       string
			configured string
			sent       string
		}{
			{"wrong secret", "s3cret", "guess"},
			{"missing header", "s3cret", ""},
			{"not configured", "", "anything"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ledger := &fakeLedger{balances: map[string]int{"u1": 5}}
				rec := webhook(newRouter(ledger, tt.configured), tt.sent, body)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.Equal(t, 5, ledger.balances["u1"])
			})
		}
	})

	t.Run("bad payload", func(t *testing.T) {
		r := newRouter(&fakeLedger{balances: map[string]int{"u1": 5}}, "s3cret")
		for _, b := range []string{"{", `{"userId":"u1","credits":0}`, `{"credits":10}`, `{"userId":"u1","credits":10}`} {
			assert.Equal(t, http.StatusBadRequest, webhook(r, "s3cret", b).Code, b)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		r := newRouter(&fakeLedger{balances: map[string]int{}}, "s3cret")
		assert.Equal(t, http.StatusNotFound, webhook(r, "s3cret", body).Code)
	})
}
