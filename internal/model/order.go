package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus 訂單付款狀態類型
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusPaid       PaymentStatus = "PAID"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// IsValid 驗證狀態是否有效
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
// FAILED 是終態：不提供重試路徑，所以沒有 FAILED -> PENDING
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	transitions := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:    {PaymentStatusProcessing},
		PaymentStatusProcessing: {PaymentStatusPaid, PaymentStatusFailed},
		PaymentStatusPaid:       {PaymentStatusRefunded},
		PaymentStatusFailed:     {},
		PaymentStatusRefunded:   {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// OrderItem 訂單明細（建單時自預約明細快照而來）
type OrderItem struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OrderID        uuid.UUID       `json:"order_id" db:"order_id"`
	TicketTypeID   uuid.UUID       `json:"ticket_type_id" db:"ticket_type_id"`
	TicketTypeName string          `json:"ticket_type_name" db:"ticket_type_name"`
	Quantity       int             `json:"quantity" db:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Order 訂單模型：一個預約至多對應一張訂單
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CustomerID    uuid.UUID       `json:"customer_id" db:"customer_id"`
	ReservationID uuid.UUID       `json:"reservation_id" db:"reservation_id"`
	EventID       uuid.UUID       `json:"event_id" db:"event_id"`
	Items         []OrderItem     `json:"items" db:"-"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	TransactionID *string         `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
}

// TotalQuantity 所有明細的數量總和，付款成功後發出的票數必須等於此值
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// CreateOrderRequest 建立訂單請求
type CreateOrderRequest struct {
	CustomerID    uuid.UUID `json:"customer_id" binding:"required"`
	ReservationID uuid.UUID `json:"reservation_id" binding:"required"`
}

// ProcessPaymentRequest 付款請求
type ProcessPaymentRequest struct {
	CustomerID    uuid.UUID `json:"customer_id" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required"`
}
