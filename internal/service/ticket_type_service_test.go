package service_test

import (
	"context"
	"testing"
	"time"

	"event-ticketing/internal/inventory"
	"event-ticketing/internal/model"
	"event-ticketing/internal/repository/memory"
	"event-ticketing/internal/service"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketTypeService(t *testing.T) (service.TicketTypeService, *inventory.MemoryTicketInventory, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	inv := inventory.NewMemoryTicketInventory()

	event := &model.Event{ID: uuid.New(), Name: "Summer Fest"}
	eventRepo := memory.NewEventRepository(store)
	_, err := eventRepo.Create(ctx, event)
	require.NoError(t, err)

	svc := service.NewTicketTypeService(
		memory.NewTicketTypeRepository(store), eventRepo, inv, memory.NewUnitOfWork(store))
	return svc, inv, event.ID
}

func TestCreateTicketType(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, inv, eventID := newTicketTypeService(t)

		created, err := svc.CreateTicketType(ctx, model.CreateTicketTypeRequest{
			EventID:        eventID,
			Name:           "VIP",
			Price:          "250.50",
			TotalQuantity:  100,
			MaxPerCustomer: 4,
		})

		require.NoError(t, err)
		assert.Equal(t, model.TicketTypeStatusActive, created.Status)
		assert.True(t, created.Price.Equal(decimal.RequireFromString("250.50")))
		assert.Equal(t, 100, created.AvailableQuantity)

		// 建立時同步預熱庫存
		info, err := inv.GetTicketType(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, info.AvailableQuantity)
	})

	t.Run("Failed - invalid price", func(t *testing.T) {
		svc, _, eventID := newTicketTypeService(t)

		_, err := svc.CreateTicketType(ctx, model.CreateTicketTypeRequest{
			EventID:        eventID,
			Name:           "VIP",
			Price:          "abc",
			TotalQuantity:  100,
			MaxPerCustomer: 4,
		})

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("Failed - negative price", func(t *testing.T) {
		svc, _, eventID := newTicketTypeService(t)

		_, err := svc.CreateTicketType(ctx, model.CreateTicketTypeRequest{
			EventID:        eventID,
			Name:           "VIP",
			Price:          "-1",
			TotalQuantity:  100,
			MaxPerCustomer: 4,
		})

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("Failed - sales window inverted", func(t *testing.T) {
		svc, _, eventID := newTicketTypeService(t)

		start := time.Now().Add(time.Hour)
		end := start.Add(-time.Minute)
		_, err := svc.CreateTicketType(ctx, model.CreateTicketTypeRequest{
			EventID:        eventID,
			Name:           "VIP",
			Price:          "100",
			TotalQuantity:  100,
			MaxPerCustomer: 4,
			SalesStart:     &start,
			SalesEnd:       &end,
		})

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("Failed - ErrEventNotFound", func(t *testing.T) {
		svc, _, _ := newTicketTypeService(t)

		_, err := svc.CreateTicketType(ctx, model.CreateTicketTypeRequest{
			EventID:        uuid.New(),
			Name:           "VIP",
			Price:          "100",
			TotalQuantity:  100,
			MaxPerCustomer: 4,
		})

		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})
}

func TestGetTicketType(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - live availability overlays snapshot", func(t *testing.T) {
		svc, inv, eventID := newTicketTypeService(t)
		created, err := svc.CreateTicketType(ctx, model.CreateTicketTypeRequest{
			EventID:        eventID,
			Name:           "VIP",
			Price:          "100",
			TotalQuantity:  100,
			MaxPerCustomer: 4,
		})
		require.NoError(t, err)

		// 透過櫃台扣 3 張, DB 快照未動
		_, err = inv.Reserve(ctx, created.ID, 3)
		require.NoError(t, err)

		got, err := svc.GetTicketType(ctx, created.ID)

		require.NoError(t, err)
		assert.Equal(t, 97, got.AvailableQuantity)
	})

	t.Run("Failed - ErrTicketTypeNotFound", func(t *testing.T) {
		svc, _, _ := newTicketTypeService(t)

		_, err := svc.GetTicketType(ctx, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound)
	})
}

func TestWarmUpInventory(t *testing.T) {
	ctx := context.Background()

	svc, _, eventID := newTicketTypeService(t)
	created, err := svc.CreateTicketType(ctx, model.CreateTicketTypeRequest{
		EventID:        eventID,
		Name:           "VIP",
		Price:          "100",
		TotalQuantity:  100,
		MaxPerCustomer: 4,
	})
	require.NoError(t, err)

	// 重跑一次等同服務重啟時的補灌, 不應出錯也不應改變數量
	require.NoError(t, svc.WarmUpInventory(ctx))

	got, err := svc.GetTicketType(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.AvailableQuantity)
}
