package payment_test

import (
	"context"
	"testing"

	"event-ticketing/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxGateway_ProcessPayment(t *testing.T) {
	ctx := context.Background()
	gateway := payment.NewSandboxGateway()

	t.Run("Success", func(t *testing.T) {
		result, err := gateway.ProcessPayment(ctx, payment.PaymentRequest{
			OrderID: uuid.New(),
			Amount:  decimal.NewFromInt(200),
			Method:  "credit_card",
		})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Contains(t, result.TransactionID, "txn_")
	})

	t.Run("Failed - declined method", func(t *testing.T) {
		result, err := gateway.ProcessPayment(ctx, payment.PaymentRequest{
			OrderID: uuid.New(),
			Amount:  decimal.NewFromInt(200),
			Method:  "decline_card",
		})

		// 拒付不是錯誤, 折在結果裡
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "card_declined", result.ErrorCode)
	})
}

func TestSandboxGateway_Refund(t *testing.T) {
	ctx := context.Background()
	gateway := payment.NewSandboxGateway()

	t.Run("Success", func(t *testing.T) {
		result, err := gateway.Refund(ctx, "txn_abc", decimal.NewFromInt(200))

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Contains(t, result.RefundID, "rfd_")
	})

	t.Run("Failed - missing transaction id", func(t *testing.T) {
		result, err := gateway.Refund(ctx, "", decimal.NewFromInt(200))

		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}
