package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(rate float64) *MockGateway {
	return NewMockGateway(&MockGatewayConfig{SuccessRate: rate, FailureReasons: []string{"card_declined"}})
}

func validCharge() *ChargeRequest {
	return &ChargeRequest{UserID: 1, Amount: 250, Currency: "THB", Description: "Booking for event 1", Method: "credit_card"}
}

func TestMockGateway_ChargeValidation(t *testing.T) {
	g := newTestGateway(1)

	tests := []struct {
		name   string
		mutate func(*ChargeRequest)
		want   string
	}{
		{"zero amount", func(r *ChargeRequest) { r.Amount = 0 }, "Amount must be greater than zero"},
		{"over ceiling", func(r *ChargeRequest) { r.Amount = 10000.01 }, "Amount 10000.01 exceeds maximum of 10000.00"},
		{"bad user", func(r *ChargeRequest) { r.UserID = 0 }, "Invalid user ID"},
		{"no description", func(r *ChargeRequest) { r.Description = "" }, "Description is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCharge()
			tt.mutate(req)
			resp, err := g.Charge(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.ErrorMessage)
			assert.Empty(t, resp.TransactionID)
		})
	}

	_, err := g.Charge(context.Background(), nil)
	assert.Error(t, err)
}

func TestMockGateway_ChargeOutcome(t *testing.T) {
	t.Run("always succeeds", func(t *testing.T) {
		g := newTestGateway(1)
		resp, err := g.Charge(context.Background(), validCharge())
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Contains(t, resp.TransactionID, "mock_txn_")

		info, err := g.GetTransaction(context.Background(), resp.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, 250.0, info.Amount)
		assert.Equal(t, StatusCompleted, info.Status)
	})

	t.Run("always fails", func(t *testing.T) {
		g := newTestGateway(0)
		resp, err := g.Charge(context.Background(), validCharge())
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, StatusFailed, resp.Status)
		assert.Equal(t, "card_declined", resp.ErrorMessage)
	})
}

func TestMockGateway_Refund(t *testing.T) {
	g := newTestGateway(1)
	resp, err := g.Charge(context.Background(), validCharge())
	require.NoError(t, err)

	assert.Error(t, g.Refund(context.Background(), resp.TransactionID, 1000))
	require.NoError(t, g.Refund(context.Background(), resp.TransactionID, 250))
	info, _ := g.GetTransaction(context.Background(), resp.TransactionID)
	assert.Equal(t, StatusRefunded, info.Status)

	assert.Error(t, g.Refund(context.Background(), resp.TransactionID, 1), "second refund")
	assert.ErrorIs(t, g.Refund(context.Background(), "missing", 1), ErrTransactionNotFound)
	assert.ErrorIs(t, g.Refund(context.Background(), "", 1), ErrMissingTransaction)
}

func TestMockGateway_SeedIsReproducible(t *testing.T) {
	outcomes := func() []bool {
		g := NewMockGateway(&MockGatewayConfig{SuccessRate: 0.5, Seed: 42})
		var got []bool
		for i := 0; i < 20; i++ {
			resp, err := g.Charge(context.Background(), validCharge())
			require.NoError(t, err)
			got = append(got, resp.Success)
		}
		return got
	}
	assert.Equal(t, outcomes(), outcomes())
}

func TestMockGateway_GetTransactionReturnsCopy(t *testing.T) {
	g := newTestGateway(1)
	resp, err := g.Charge(context.Background(), validCharge())
	require.NoError(t, err)

	info, err := g.GetTransaction(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	info.Status = StatusRefunded

	again, err := g.GetTransaction(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
}

func TestMockGateway_ContextCancelled(t *testing.T) {
	g := NewMockGateway(&MockGatewayConfig{SuccessRate: 1, DelayMs: 1000})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Charge(ctx, validCharge())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockGateway_SuccessRateClamped(t *testing.T) {
	g := newTestGateway(2)
	assert.Equal(t, 1.0, g.GetSuccessRate())
	g.SetSuccessRate(-1)
	assert.Equal(t, 0.0, g.GetSuccessRate())
}

func TestNew(t *testing.T) {
	g, err := New(&Config{Type: "mock", SuccessRate: 0.5, MaxAmount: 500})
	require.NoError(t, err)
	assert.Equal(t, "mock", g.Name())

	resp, err := g.Charge(context.Background(), &ChargeRequest{UserID: 1, Amount: 600, Description: "x"})
	require.NoError(t, err)
	assert.False(t, resp.Success)

	_, err = New(&Config{Type: "paypal"})
	assert.Error(t, err)
}
