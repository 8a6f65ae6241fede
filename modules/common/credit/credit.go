package credit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/supabase-community/supabase-go"

	"portrait-studio-server/modules/common/logger"
	"portrait-studio-server/modules/common/model"
)

// 테이블 이름
const (
	TableMembers = "portrait_members"
	TableLedger  = "portrait_credits"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidAmount       = errors.New("credit amount must be positive")
)

// store - 잔액/원장 저장소
type store interface {
	balance(ctx context.Context, userID string) (int, error)
	setBalance(ctx context.Context, userID string, balance int) error
	record(ctx context.Context, tx model.CreditTransaction) error
	hasReference(ctx context.Context, userID, reference, txType string) (bool, error)
}

type Client struct {
	store store
	mu    sync.Mutex // 같은 프로세스 안에서 read-modify-write 직렬화
}

// NewClient - Credit 클라이언트 생성
func NewClient(sb *supabase.Client) *Client {
	return &Client{store: &supabaseStore{client: sb}}
}

// GetBalance - 현재 잔액 조회
func (c *Client) GetBalance(ctx context.Context, userID string) (int, error) {
	return c.store.balance(ctx, userID)
}

// HasEnough - amount 이상 보유 여부
func (c *Client) HasEnough(ctx context.Context, userID string, amount int) (bool, int, error) {
	balance, err := c.store.balance(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return balance >= amount, balance, nil
}

// Deduct - 크레딧 차감 및 원장 기록. 잔액 부족이면 ErrInsufficientCredits
func (c *Client) Deduct(ctx context.Context, userID string, amount int, reference string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.store.balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if current < amount {
		return current, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCredits, current, amount)
	}

	newBalance := current - amount
	logger.L().Infof("💰 Credit balance: %d → %d (-%d) user=%s", current, newBalance, amount, userID)

	if err := c.store.setBalance(ctx, userID, newBalance); err != nil {
		return current, fmt.Errorf("failed to deduct credits: %w", err)
	}

	c.recordBestEffort(ctx, model.CreditTransaction{
		UserID:          userID,
		TransactionType: model.TransactionDeduct,
		Amount:          -amount,
		BalanceAfter:    newBalance,
		Description:     "Portrait generation",
		Reference:       reference,
	})

	return newBalance, nil
}

// Grant - 크레딧 지급 (결제 webhook 등)
// 같은 reference로 이미 지급된 경우 잔액을 바꾸지 않고 현재 잔액 반환
func (c *Client) Grant(ctx context.Context, userID string, amount int, reference string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.store.balance(ctx, userID)
	if err != nil {
		return 0, err
	}

	if reference != "" {
		granted, err := c.store.hasReference(ctx, userID, reference, model.TransactionGrant)
		if err != nil {
			return current, fmt.Errorf("failed to check grant reference: %w", err)
		}
		if granted {
			logger.L().Infof("🔁 Grant %s already applied for user=%s, skipping", reference, userID)
			return current, nil
		}
	}

	newBalance := current + amount
	logger.L().Infof("💰 Credit balance: %d → %d (+%d) user=%s", current, newBalance, amount, userID)

	if err := c.store.setBalance(ctx, userID, newBalance); err != nil {
		return current, fmt.Errorf("failed to grant credits: %w", err)
	}

	c.recordBestEffort(ctx, model.CreditTransaction{
		UserID:          userID,
		TransactionType: model.TransactionGrant,
		Amount:          amount,
		BalanceAfter:    newBalance,
		Description:     "Credit purchase",
		Reference:       reference,
	})

	return newBalance, nil
}

// 원장 기록 실패는 잔액 변경을 되돌리지 않음
func (c *Client) recordBestEffort(ctx context.Context, tx model.CreditTransaction) {
	if err := c.store.record(ctx, tx); err != nil {
		logger.L().Warnf("⚠️  Failed to record %s transaction for %s: %v", tx.TransactionType, tx.UserID, err)
	}
}

// supabaseStore - portrait_members / portrait_credits 테이블
type supabaseStore struct {
	client *supabase.Client
}

func (s *supabaseStore) balance(ctx context.Context, userID string) (int, error) {
	var members []struct {
		Credit int `json:"member_credit"`
	}

	data, _, err := s.client.From(TableMembers).
		Select("member_credit", "", false).
		Eq("member_id", userID).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch user credits: %w", err)
	}

	if err := json.Unmarshal(data, &members); err != nil {
		return 0, fmt.Errorf("failed to parse member data: %w", err)
	}

	if len(members) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return members[0].Credit, nil
}

func (s *supabaseStore) setBalance(ctx context.Context, userID string, balance int) error {
	_, _, err := s.client.From(TableMembers).
		Update(map[string]interface{}{
			"member_credit": balance,
		}, "", "").
		Eq("member_id", userID).
		Execute()
	return err
}

func (s *supabaseStore) record(ctx context.Context, tx model.CreditTransaction) error {
	_, _, err := s.client.From(TableLedger).
		Insert(tx, false, "", "", "").
		Execute()
	return err
}

func (s *supabaseStore) hasReference(ctx context.Context, userID, reference, txType string) (bool, error) {
	_, count, err := s.client.From(TableLedger).
		Select("reference", "exact", true).
		Eq("user_id", userID).
		Eq("reference", reference).
		Eq("transaction_type", txType).
		Execute()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
