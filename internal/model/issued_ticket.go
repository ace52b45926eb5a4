package model

import (
	"time"

	"github.com/google/uuid"
)

// IssuedTicketStatus 票券狀態類型
type IssuedTicketStatus string

const (
	IssuedTicketStatusValid     IssuedTicketStatus = "VALID"
	IssuedTicketStatusUsed      IssuedTicketStatus = "USED"
	IssuedTicketStatusCancelled IssuedTicketStatus = "CANCELLED"
)

// IsValid 驗證狀態是否有效
func (s IssuedTicketStatus) IsValid() bool {
	switch s {
	case IssuedTicketStatusValid, IssuedTicketStatusUsed, IssuedTicketStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態，USED 與 CANCELLED 皆為終態
func (s IssuedTicketStatus) CanTransitionTo(target IssuedTicketStatus) bool {
	transitions := map[IssuedTicketStatus][]IssuedTicketStatus{
		IssuedTicketStatusValid:     {IssuedTicketStatusUsed, IssuedTicketStatusCancelled},
		IssuedTicketStatusUsed:      {},
		IssuedTicketStatusCancelled: {},
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

// IssuedTicket 入場票券：付款成功當下，訂單每一單位數量各發出一張
type IssuedTicket struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	OrderID        uuid.UUID          `json:"order_id" db:"order_id"`
	OrderItemID    uuid.UUID          `json:"order_item_id" db:"order_item_id"`
	TicketTypeID   uuid.UUID          `json:"ticket_type_id" db:"ticket_type_id"`
	TicketTypeName string             `json:"ticket_type_name" db:"ticket_type_name"`
	EventID        uuid.UUID          `json:"event_id" db:"event_id"`
	EventName      string             `json:"event_name" db:"event_name"`
	CustomerID     uuid.UUID          `json:"customer_id" db:"customer_id"`
	Code           string             `json:"code" db:"code"`
	Status         IssuedTicketStatus `json:"status" db:"status"`
	UsedAt         *time.Time         `json:"used_at,omitempty" db:"used_at"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
}
