package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderReceipt 付款成功後發佈的出票回執，由下游 Worker 負責通知顧客
type OrderReceipt struct {
	OrderID     uuid.UUID `json:"order_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	EventID     uuid.UUID `json:"event_id"`
	TotalAmount string    `json:"total_amount"`
	TicketCount int       `json:"ticket_count"`
	PaidAt      time.Time `json:"paid_at"`
}

type Delivery struct {
	Data *OrderReceipt
	Ack  func()
	Nack func(requeue bool)
}

type ReceiptQueue interface {
	// 發送回執到隊列
	PublishReceipt(ctx context.Context, receipt *OrderReceipt) error
	// 訂閱回執隊列
	SubscribeReceipts(ctx context.Context) (<-chan Delivery, error)
}

type MemoryReceiptQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *OrderReceipt
}

func NewMemoryReceiptQueue(bufferSize int) ReceiptQueue {
	return &MemoryReceiptQueueImpl{
		ch: make(chan *OrderReceipt, bufferSize),
	}
}

func (q *MemoryReceiptQueueImpl) PublishReceipt(ctx context.Context, receipt *OrderReceipt) error {
	// 模擬 MQ 發送
	q.ch <- receipt
	return nil
}

func (q *MemoryReceiptQueueImpl) SubscribeReceipts(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case receipt, ok := <-q.ch:
				if !ok {
					return
				}

				// 將原始回執包裝成 Delivery 格式給 Worker
				out <- Delivery{
					Data: receipt,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- receipt // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
