package inventory

import (
	"context"
	"sync"
	"time"

	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketTypeInfo 票種櫃台快照，交給呼叫端做 eventID / maxPerCustomer / 販售時窗檢查。
// SalesStart / SalesEnd 為 unix 秒，0 表示該端不設限
type TicketTypeInfo struct {
	ID                uuid.UUID
	EventID           uuid.UUID
	Name              string
	Price             decimal.Decimal
	MaxPerCustomer    int
	TotalQuantity     int
	AvailableQuantity int
	SalesStart        int64
	SalesEnd          int64
	Status            model.TicketTypeStatus
}

// OnSaleAt 檢查給定時間是否落在販售時窗內
func (i TicketTypeInfo) OnSaleAt(now time.Time) bool {
	ts := now.Unix()
	if i.SalesStart > 0 && ts < i.SalesStart {
		return false
	}
	if i.SalesEnd > 0 && ts > i.SalesEnd {
		return false
	}
	return true
}

// TicketInventory 票種庫存櫃台：唯一允許動庫存計數器的地方。
// Reserve / Release 對同一票種必須互斥，對不同票種不得互相阻塞。
// maxPerCustomer 與同活動檢查是 ReservationService 的責任，這裡只守計數器。
type TicketInventory interface {
	// 預熱：註冊票種的庫存到櫃台（啟動時與建立票種時呼叫）
	WarmUp(ctx context.Context, tt *model.TicketType) error
	// 預留：原子檢查 ACTIVE 且庫存足夠後扣減，歸零時票種轉 SOLD_OUT
	Reserve(ctx context.Context, ticketTypeID uuid.UUID, quantity int) (remaining int, err error)
	// 釋放：原子回補庫存，上限為 totalQuantity（重複補償不會超賣上限），
	// SOLD_OUT 離開零庫存時轉回 ACTIVE
	Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error
	// 查詢：取得票種快照
	GetTicketType(ctx context.Context, ticketTypeID uuid.UUID) (TicketTypeInfo, error)
}

// MemoryTicketInventory 行程內實作：每個票種一把鎖，掛在 registry 上，
// 不同票種各自上鎖所以互不阻塞
type MemoryTicketInventory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*inventoryEntry
}

type inventoryEntry struct {
	mu   sync.Mutex
	info TicketTypeInfo
}

func NewMemoryTicketInventory() *MemoryTicketInventory {
	return &MemoryTicketInventory{
		entries: make(map[uuid.UUID]*inventoryEntry),
	}
}

func (m *MemoryTicketInventory) WarmUp(ctx context.Context, tt *model.TicketType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[tt.ID] = &inventoryEntry{
		info: TicketTypeInfo{
			ID:                tt.ID,
			EventID:           tt.EventID,
			Name:              tt.Name,
			Price:             tt.Price,
			MaxPerCustomer:    tt.MaxPerCustomer,
			TotalQuantity:     tt.TotalQuantity,
			AvailableQuantity: tt.AvailableQuantity,
			SalesStart:        unixOrZero(tt.SalesStart),
			SalesEnd:          unixOrZero(tt.SalesEnd),
			Status:            tt.Status,
		},
	}
	return nil
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

func (m *MemoryTicketInventory) entry(ticketTypeID uuid.UUID) (*inventoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[ticketTypeID]
	if !ok {
		return nil, apperrors.ErrTicketTypeNotFound
	}
	return e, nil
}

func (m *MemoryTicketInventory) Reserve(ctx context.Context, ticketTypeID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	e, err := m.entry(ticketTypeID)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.info.Status != model.TicketTypeStatusActive {
		return e.info.AvailableQuantity, apperrors.ErrTicketTypeNotAvailable
	}
	if e.info.AvailableQuantity < quantity {
		return e.info.AvailableQuantity, apperrors.ErrInsufficientStock
	}

	e.info.AvailableQuantity -= quantity
	if e.info.AvailableQuantity == 0 {
		e.info.Status = model.TicketTypeStatusSoldOut
	}

	return e.info.AvailableQuantity, nil
}

func (m *MemoryTicketInventory) Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperrors.ErrInvalidInput
	}

	e, err := m.entry(ticketTypeID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.info.AvailableQuantity += quantity
	if e.info.AvailableQuantity > e.info.TotalQuantity {
		// 重複釋放時夾住上限，不當作錯誤
		e.info.AvailableQuantity = e.info.TotalQuantity
	}
	if e.info.Status == model.TicketTypeStatusSoldOut && e.info.AvailableQuantity > 0 {
		e.info.Status = model.TicketTypeStatusActive
	}

	return nil
}

func (m *MemoryTicketInventory) GetTicketType(ctx context.Context, ticketTypeID uuid.UUID) (TicketTypeInfo, error) {
	e, err := m.entry(ticketTypeID)
	if err != nil {
		return TicketTypeInfo{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info, nil
}
