package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketTypeStatus 票種狀態類型
type TicketTypeStatus string

const (
	TicketTypeStatusActive   TicketTypeStatus = "ACTIVE"
	TicketTypeStatusPaused   TicketTypeStatus = "PAUSED"
	TicketTypeStatusInactive TicketTypeStatus = "INACTIVE"
	TicketTypeStatusSoldOut  TicketTypeStatus = "SOLD_OUT"
)

// IsValid 驗證狀態是否有效
func (s TicketTypeStatus) IsValid() bool {
	switch s {
	case TicketTypeStatusActive, TicketTypeStatusPaused, TicketTypeStatusInactive, TicketTypeStatusSoldOut:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
// SOLD_OUT 只在 ACTIVE 與 SOLD_OUT 之間自動切換，由庫存歸零/回補驅動
func (s TicketTypeStatus) CanTransitionTo(target TicketTypeStatus) bool {
	transitions := map[TicketTypeStatus][]TicketTypeStatus{
		TicketTypeStatusActive:   {TicketTypeStatusPaused, TicketTypeStatusInactive, TicketTypeStatusSoldOut},
		TicketTypeStatusPaused:   {TicketTypeStatusActive, TicketTypeStatusInactive},
		TicketTypeStatusInactive: {},
		TicketTypeStatusSoldOut:  {TicketTypeStatusActive, TicketTypeStatusInactive},
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

// TicketType 票種模型：一個活動下可販售的票券類別，持有自己的價格與庫存
type TicketType struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	EventID           uuid.UUID        `json:"event_id" db:"event_id"`
	Name              string           `json:"name" db:"name"`
	Price             decimal.Decimal  `json:"price" db:"price"`
	TotalQuantity     int              `json:"total_quantity" db:"total_quantity"`
	AvailableQuantity int              `json:"available_quantity" db:"available_quantity"`
	MaxPerCustomer    int              `json:"max_per_customer" db:"max_per_customer"`
	SalesStart        *time.Time       `json:"sales_start,omitempty" db:"sales_start"`
	SalesEnd          *time.Time       `json:"sales_end,omitempty" db:"sales_end"`
	Status            TicketTypeStatus `json:"status" db:"status"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// IsOnSale 檢查票種是否可被預約
func (t *TicketType) IsOnSale() bool {
	return t.Status == TicketTypeStatusActive && t.AvailableQuantity > 0
}

// CreateTicketTypeRequest 建立票種請求
type CreateTicketTypeRequest struct {
	EventID        uuid.UUID  `json:"event_id" binding:"required"`
	Name           string     `json:"name" binding:"required"`
	Price          string     `json:"price" binding:"required"`
	TotalQuantity  int        `json:"total_quantity" binding:"required,min=1"`
	MaxPerCustomer int        `json:"max_per_customer" binding:"required,min=1"`
	SalesStart     *time.Time `json:"sales_start,omitempty"`
	SalesEnd       *time.Time `json:"sales_end,omitempty"`
}
