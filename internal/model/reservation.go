package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus 預約狀態類型
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
	ReservationStatusConverted ReservationStatus = "CONVERTED"
)

// IsValid 驗證狀態是否有效
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusActive, ReservationStatusCancelled, ReservationStatusExpired, ReservationStatusConverted:
		return true
	}
	return false
}

// IsTerminal 終態不可再轉換
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationStatusActive
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	transitions := map[ReservationStatus][]ReservationStatus{
		ReservationStatusActive:    {ReservationStatusCancelled, ReservationStatusExpired, ReservationStatusConverted},
		ReservationStatusCancelled: {},
		ReservationStatusExpired:   {},
		ReservationStatusConverted: {},
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

// CancellationType 取消來源類型
type CancellationType string

const (
	CancellationByCustomer CancellationType = "BY_CUSTOMER"
	CancellationByPartner  CancellationType = "BY_PARTNER"
	CancellationByAdmin    CancellationType = "BY_ADMIN"
)

// IsValid 驗證取消來源是否有效
func (c CancellationType) IsValid() bool {
	switch c {
	case CancellationByCustomer, CancellationByPartner, CancellationByAdmin:
		return true
	}
	return false
}

// ReservationItem 預約明細：unitPrice 與 ticketTypeName 為下單當下的快照，
// 之後票種改價/改名不影響已成立的預約
type ReservationItem struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	ReservationID  uuid.UUID       `json:"reservation_id" db:"reservation_id"`
	TicketTypeID   uuid.UUID       `json:"ticket_type_id" db:"ticket_type_id"`
	TicketTypeName string          `json:"ticket_type_name" db:"ticket_type_name"`
	Quantity       int             `json:"quantity" db:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Reservation 預約模型：單一顧客對單一活動、跨一或多個票種的限時庫存持有
type Reservation struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	CustomerID  uuid.UUID         `json:"customer_id" db:"customer_id"`
	EventID     uuid.UUID         `json:"event_id" db:"event_id"`
	Items       []ReservationItem `json:"items" db:"-"`
	TotalAmount decimal.Decimal   `json:"total_amount" db:"total_amount"`
	Status      ReservationStatus `json:"status" db:"status"`
	ExpiresAt   time.Time         `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`

	CancelledBy        *string           `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancellationReason *string           `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancellationType   *CancellationType `json:"cancellation_type,omitempty" db:"cancellation_type"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty" db:"cancelled_at"`
	ConvertedOrderID   *uuid.UUID        `json:"converted_order_id,omitempty" db:"converted_order_id"`
	ConvertedAt        *time.Time        `json:"converted_at,omitempty" db:"converted_at"`
}

// IsExpired 檢查預約是否已過期（相對於給定時間）
func (r *Reservation) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// TotalQuantity 所有明細的數量總和
func (r *Reservation) TotalQuantity() int {
	total := 0
	for _, item := range r.Items {
		total += item.Quantity
	}
	return total
}

// ReservationItemRequest 預約明細請求
type ReservationItemRequest struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id" binding:"required"`
	Quantity     int       `json:"quantity" binding:"required,min=1"`
}

// CreateReservationRequest 建立預約請求
type CreateReservationRequest struct {
	CustomerID uuid.UUID                `json:"customer_id" binding:"required"`
	EventID    uuid.UUID                `json:"event_id" binding:"required"`
	Items      []ReservationItemRequest `json:"items" binding:"required"`
}

// CancelReservationRequest 取消預約請求
type CancelReservationRequest struct {
	CancelledBy      string           `json:"cancelled_by" binding:"required"`
	Reason           string           `json:"reason"`
	CancellationType CancellationType `json:"cancellation_type" binding:"required"`
}
