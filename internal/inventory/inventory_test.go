package inventory_test

import (
	"context"
	"sync"
	"testing"

	"event-ticketing/internal/inventory"
	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketType(total int, status model.TicketTypeStatus) *model.TicketType {
	return &model.TicketType{
		ID:                uuid.New(),
		EventID:           uuid.New(),
		Name:              "General Admission",
		Price:             decimal.NewFromInt(100),
		TotalQuantity:     total,
		AvailableQuantity: total,
		MaxPerCustomer:    4,
		Status:            status,
	}
}

func TestMemoryInventory_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()
		tt := newTicketType(100, model.TicketTypeStatusActive)
		require.NoError(t, inv.WarmUp(ctx, tt))

		remaining, err := inv.Reserve(ctx, tt.ID, 2)

		require.NoError(t, err)
		assert.Equal(t, 98, remaining)

		info, err := inv.GetTicketType(ctx, tt.ID)
		require.NoError(t, err)
		assert.Equal(t, 98, info.AvailableQuantity)
		assert.Equal(t, model.TicketTypeStatusActive, info.Status)
	})

	t.Run("Failed - ErrInsufficientStock", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()
		tt := newTicketType(1, model.TicketTypeStatusActive)
		require.NoError(t, inv.WarmUp(ctx, tt))

		_, err := inv.Reserve(ctx, tt.ID, 3)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

		// 失敗不得動庫存
		info, _ := inv.GetTicketType(ctx, tt.ID)
		assert.Equal(t, 1, info.AvailableQuantity)
	})

	t.Run("Failed - ErrTicketTypeNotAvailable", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()
		tt := newTicketType(10, model.TicketTypeStatusPaused)
		require.NoError(t, inv.WarmUp(ctx, tt))

		_, err := inv.Reserve(ctx, tt.ID, 1)

		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotAvailable)
	})

	t.Run("Failed - ErrTicketTypeNotFound", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()

		_, err := inv.Reserve(ctx, uuid.New(), 1)

		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound)
	})

	t.Run("Sold out at zero", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()
		tt := newTicketType(2, model.TicketTypeStatusActive)
		require.NoError(t, inv.WarmUp(ctx, tt))

		remaining, err := inv.Reserve(ctx, tt.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)

		info, _ := inv.GetTicketType(ctx, tt.ID)
		assert.Equal(t, model.TicketTypeStatusSoldOut, info.Status)

		// 售罄後再預留要回庫存不足
		_, err = inv.Reserve(ctx, tt.ID, 1)
		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotAvailable)
	})
}

func TestMemoryInventory_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("Restores stock and flips SOLD_OUT back", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()
		tt := newTicketType(2, model.TicketTypeStatusActive)
		require.NoError(t, inv.WarmUp(ctx, tt))

		_, err := inv.Reserve(ctx, tt.ID, 2)
		require.NoError(t, err)

		require.NoError(t, inv.Release(ctx, tt.ID, 1))

		info, _ := inv.GetTicketType(ctx, tt.ID)
		assert.Equal(t, 1, info.AvailableQuantity)
		assert.Equal(t, model.TicketTypeStatusActive, info.Status)
	})

	t.Run("Capped at total quantity", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()
		tt := newTicketType(10, model.TicketTypeStatusActive)
		require.NoError(t, inv.WarmUp(ctx, tt))

		_, err := inv.Reserve(ctx, tt.ID, 3)
		require.NoError(t, err)

		// 重複補償：釋放超過已預留的量
		require.NoError(t, inv.Release(ctx, tt.ID, 3))
		require.NoError(t, inv.Release(ctx, tt.ID, 3))

		info, _ := inv.GetTicketType(ctx, tt.ID)
		assert.Equal(t, 10, info.AvailableQuantity)
	})

	t.Run("Failed - ErrTicketTypeNotFound", func(t *testing.T) {
		inv := inventory.NewMemoryTicketInventory()
		assert.ErrorIs(t, inv.Release(ctx, uuid.New(), 1), apperrors.ErrTicketTypeNotFound)
	})
}

// 同一票種的併發預留必須序列化：成功次數恰等於庫存，且 0 <= available <= total
func TestMemoryInventory_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	inv := inventory.NewMemoryTicketInventory()
	tt := newTicketType(50, model.TicketTypeStatusActive)
	require.NoError(t, inv.WarmUp(ctx, tt))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := inv.Reserve(ctx, tt.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded)

	info, err := inv.GetTicketType(ctx, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, info.AvailableQuantity)
	assert.Equal(t, model.TicketTypeStatusSoldOut, info.Status)
}

func TestMemoryInventory_ConcurrentReserveRelease(t *testing.T) {
	ctx := context.Background()
	inv := inventory.NewMemoryTicketInventory()
	tt := newTicketType(20, model.TicketTypeStatusActive)
	require.NoError(t, inv.WarmUp(ctx, tt))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := inv.Reserve(ctx, tt.ID, 2); err == nil {
				_ = inv.Release(ctx, tt.ID, 2)
			}
		}()
	}
	wg.Wait()

	info, err := inv.GetTicketType(ctx, tt.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.AvailableQuantity, 0)
	assert.LessOrEqual(t, info.AvailableQuantity, info.TotalQuantity)
	assert.Equal(t, 20, info.AvailableQuantity)
}
