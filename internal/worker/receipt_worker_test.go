package worker_test

import (
	"context"
	"testing"
	"time"

	"event-ticketing/internal/queue"
	"event-ticketing/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptWorker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryReceiptQueue(10)

	// 用 channel 驗證 notifier 有被觸發
	notified := make(chan *queue.OrderReceipt, 1)
	w := worker.NewReceiptWorker(q, func(ctx context.Context, receipt *queue.OrderReceipt) error {
		notified <- receipt
		return nil
	})
	require.NoError(t, w.Start(ctx))

	receipt := &queue.OrderReceipt{
		OrderID:     uuid.New(),
		CustomerID:  uuid.New(),
		EventID:     uuid.New(),
		TotalAmount: "200",
		TicketCount: 2,
		PaidAt:      time.Now().UTC(),
	}
	require.NoError(t, q.PublishReceipt(ctx, receipt))

	select {
	case got := <-notified:
		assert.Equal(t, receipt.OrderID, got.OrderID)
		assert.Equal(t, 2, got.TicketCount)
	case <-time.After(time.Second):
		t.Fatal("worker did not process receipt in time")
	}
}
