package worker

import (
	"context"

	"event-ticketing/internal/queue"
	"event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// Notifier 把出票回執送達顧客的管道（email、推播等）。
// 預設實作只記 log, 通知渠道接上後替換
type Notifier func(ctx context.Context, receipt *queue.OrderReceipt) error

func LogNotifier(ctx context.Context, receipt *queue.OrderReceipt) error {
	logger.WithComponent("receipt_worker").Info("order confirmation dispatched",
		zap.String("order_id", receipt.OrderID.String()),
		zap.String("customer_id", receipt.CustomerID.String()),
		zap.String("total_amount", receipt.TotalAmount),
		zap.Int("ticket_count", receipt.TicketCount))
	return nil
}

type ReceiptWorker interface {
	// 訂閱回執隊列
	Start(ctx context.Context) error
}

type ReceiptWorkerImpl struct {
	queue  queue.ReceiptQueue
	notify Notifier
}

func NewReceiptWorker(receiptQueue queue.ReceiptQueue, notify Notifier) ReceiptWorker {
	if notify == nil {
		notify = LogNotifier
	}
	return &ReceiptWorkerImpl{
		queue:  receiptQueue,
		notify: notify,
	}
}

func (w *ReceiptWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeReceipts(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			// 通知失敗就 Nack 重回隊列, 靠 MQ 的重試機制補送
			if err := w.notify(ctx, msg.Data); err != nil {
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
