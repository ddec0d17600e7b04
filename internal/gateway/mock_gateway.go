package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxAmount is the largest single charge the mock accepts
const DefaultMaxAmount = 10000

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrMissingTransaction  = errors.New("transaction ID is required")
)

var defaultFailureReasons = []string{
	"insufficient_funds",
	"card_declined",
	"expired_card",
	"processing_error",
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// SuccessRate is the probability of a successful charge, clamped to [0, 1]
	SuccessRate float64
	// DelayMs is the simulated processing delay in milliseconds
	DelayMs   int
	MaxAmount float64
	// FailureReasons are picked at random as the decline message
	FailureReasons []string
	// Seed makes outcomes reproducible; 0 seeds from the clock
	Seed int64
}

// MockGateway is a stochastic stand-in for a real payment provider.
// It keeps every successful charge in memory so refunds and lookups work.
type MockGateway struct {
	delay     time.Duration
	maxAmount float64
	reasons   []string

	mu           sync.Mutex
	successRate  float64
	rng          *rand.Rand
	transactions map[string]*TransactionInfo
}

func NewMockGateway(cfg *MockGatewayConfig) *MockGateway {
	if cfg == nil {
		cfg = &MockGatewayConfig{SuccessRate: 0.95, DelayMs: 100}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &MockGateway{
		delay:        time.Duration(cfg.DelayMs) * time.Millisecond,
		maxAmount:    cfg.MaxAmount,
		reasons:      cfg.FailureReasons,
		successRate:  clampRate(cfg.SuccessRate),
		rng:          rand.New(rand.NewSource(seed)),
		transactions: make(map[string]*TransactionInfo),
	}
	if g.maxAmount <= 0 {
		g.maxAmount = DefaultMaxAmount
	}
	if len(g.reasons) == 0 {
		g.reasons = defaultFailureReasons
	}
	return g
}

func clampRate(rate float64) float64 {
	return max(0, min(1, rate))
}

// rejection returns why req can never succeed, or "" when it may be attempted
func (g *MockGateway) rejection(req *ChargeRequest) string {
	switch {
	case req.Amount <= 0:
		return "Amount must be greater than zero"
	case req.Amount > g.maxAmount:
		return fmt.Sprintf("Amount %.2f exceeds maximum of %.2f", req.Amount, g.maxAmount)
	case req.UserID <= 0:
		return "Invalid user ID"
	case req.Description == "":
		return "Description is required"
	}
	return ""
}

func (g *MockGateway) simulateLatency(ctx context.Context) error {
	if g.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Charge declines invalid requests outright, otherwise succeeds with probability SuccessRate.
// A decline is reported in the response; the error is reserved for cancellation.
func (g *MockGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	if req == nil {
		return nil, errors.New("charge request is required")
	}
	if msg := g.rejection(req); msg != "" {
		return &ChargeResponse{Status: StatusRejected, ErrorMessage: msg}, nil
	}
	if err := g.simulateLatency(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rng.Float64() >= g.successRate {
		return &ChargeResponse{
			Status:       StatusFailed,
			ErrorMessage: g.reasons[g.rng.Intn(len(g.reasons))],
			Metadata:     req.Metadata,
		}, nil
	}

	txID := "mock_txn_" + uuid.NewString()[:8]
	g.transactions[txID] = &TransactionInfo{
		TransactionID: txID,
		UserID:        req.UserID,
		Status:        StatusCompleted,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Method:        req.Method,
		CreatedAt:     time.Now().UTC(),
	}
	return &ChargeResponse{
		Success:       true,
		TransactionID: txID,
		Status:        StatusCompleted,
		Metadata:      req.Metadata,
	}, nil
}

// Refund marks a completed charge refunded; amount may not exceed what was charged
func (g *MockGateway) Refund(ctx context.Context, transactionID string, amount float64) error {
	if transactionID == "" {
		return ErrMissingTransaction
	}
	if err := g.simulateLatency(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	info, ok := g.transactions[transactionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
	}
	if info.Status != StatusCompleted {
		return fmt.Errorf("transaction %s is %s", transactionID, info.Status)
	}
	if amount > info.Amount {
		return fmt.Errorf("refund amount %.2f exceeds charged amount %.2f", amount, info.Amount)
	}
	info.Status = StatusRefunded
	return nil
}

// GetTransaction returns a copy of the recorded transaction
func (g *MockGateway) GetTransaction(ctx context.Context, transactionID string) (*TransactionInfo, error) {
	if transactionID == "" {
		return nil, ErrMissingTransaction
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	info, ok := g.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
	}
	cp := *info
	return &cp, nil
}

func (g *MockGateway) Name() string {
	return "mock"
}

func (g *MockGateway) SetSuccessRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.successRate = clampRate(rate)
}

func (g *MockGateway) GetSuccessRate() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.successRate
}
