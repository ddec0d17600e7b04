package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TxStatus is the state of a charge at the provider
type TxStatus string

const (
	StatusRejected  TxStatus = "rejected"
	StatusFailed    TxStatus = "failed"
	StatusCompleted TxStatus = "completed"
	StatusRefunded  TxStatus = "refunded"
)

// ChargeRequest is the input of a payment charge
type ChargeRequest struct {
	UserID      int64             `json:"user_id"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Method      string            `json:"method"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ChargeResponse is the outcome of a payment charge.
// A declined charge is Success=false with ErrorMessage set and a nil error.
type ChargeResponse struct {
	Success       bool              `json:"success"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Status        TxStatus          `json:"status"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TransactionInfo describes a recorded transaction
type TransactionInfo struct {
	TransactionID string    `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Status        TxStatus  `json:"status"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentGateway is the external payment collaborator
type PaymentGateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)
	Refund(ctx context.Context, transactionID string, amount float64) error
	GetTransaction(ctx context.Context, transactionID string) (*TransactionInfo, error)
	Name() string
}

// Config selects and configures a gateway
type Config struct {
	Type        string
	SuccessRate float64
	DelayMs     int
	MaxAmount   float64
}

// New creates the gateway named by cfg.Type
func New(cfg *Config) (PaymentGateway, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "mock":
		return NewMockGateway(&MockGatewayConfig{
			SuccessRate: cfg.SuccessRate,
			DelayMs:     cfg.DelayMs,
			MaxAmount:   cfg.MaxAmount,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported payment gateway: %s", cfg.Type)
	}
}
