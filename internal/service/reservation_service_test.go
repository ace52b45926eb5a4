package service_test

import (
	"context"
	"fmt"
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

type reservationFixture struct {
	store       *memory.Store
	inv         *inventory.MemoryTicketInventory
	svc         service.ReservationService
	eventID     uuid.UUID
	ticketTypes []*model.TicketType
}

// newReservationFixture 依傳入的數量建立對應票種, 單價 100, 200, ... 遞增
func newReservationFixture(t *testing.T, holdTTL time.Duration, quantities ...int) *reservationFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	inv := inventory.NewMemoryTicketInventory()
	unitOfWork := memory.NewUnitOfWork(store)

	event := &model.Event{ID: uuid.New(), Name: "Summer Fest"}
	_, err := memory.NewEventRepository(store).Create(ctx, event)
	require.NoError(t, err)

	f := &reservationFixture{
		store:   store,
		inv:     inv,
		eventID: event.ID,
	}

	ttRepo := memory.NewTicketTypeRepository(store)
	for i, qty := range quantities {
		tt := &model.TicketType{
			ID:                uuid.New(),
			EventID:           event.ID,
			Name:              fmt.Sprintf("Tier %d", i+1),
			Price:             decimal.NewFromInt(int64(100 * (i + 1))),
			TotalQuantity:     qty,
			AvailableQuantity: qty,
			MaxPerCustomer:    4,
			Status:            model.TicketTypeStatusActive,
		}
		_, err := ttRepo.Create(ctx, tt)
		require.NoError(t, err)
		require.NoError(t, inv.WarmUp(ctx, tt))
		f.ticketTypes = append(f.ticketTypes, tt)
	}

	f.svc = service.NewReservationService(memory.NewReservationRepository(store), inv, unitOfWork, holdTTL)
	return f
}

func (f *reservationFixture) available(t *testing.T, ticketTypeID uuid.UUID) int {
	t.Helper()
	info, err := f.inv.GetTicketType(context.Background(), ticketTypeID)
	require.NoError(t, err)
	return info.AvailableQuantity
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100, 50)
		customerID := uuid.New()

		before := time.Now().UTC()
		created, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: customerID,
			EventID:    f.eventID,
			Items: []model.ReservationItemRequest{
				{TicketTypeID: f.ticketTypes[0].ID, Quantity: 2},
				{TicketTypeID: f.ticketTypes[1].ID, Quantity: 1},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, model.ReservationStatusActive, created.Status)
		assert.Equal(t, customerID, created.CustomerID)
		require.Len(t, created.Items, 2)

		// 快照了票種名稱與單價, 小計與總額正確
		assert.Equal(t, "Tier 1", created.Items[0].TicketTypeName)
		assert.True(t, created.Items[0].Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, created.Items[1].Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(400)))

		// 過期時間落在 now + TTL 附近
		assert.WithinDuration(t, before.Add(15*time.Minute), created.ExpiresAt, 2*time.Second)

		// 庫存已扣
		assert.Equal(t, 98, f.available(t, f.ticketTypes[0].ID))
		assert.Equal(t, 49, f.available(t, f.ticketTypes[1].ID))
	})

	t.Run("Failed - empty items", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)

		_, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{},
		})

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("Failed - ErrTicketTypeNotFound", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)

		_, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: uuid.New(), Quantity: 1}},
		})

		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound)
	})

	t.Run("Failed - wrong event", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)

		_, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    uuid.New(),
			Items:      []model.ReservationItemRequest{{TicketTypeID: f.ticketTypes[0].ID, Quantity: 1}},
		})

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		// 驗證失敗發生在預扣之前, 庫存不動
		assert.Equal(t, 100, f.available(t, f.ticketTypes[0].ID))
	})

	t.Run("Failed - exceeds max per customer", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)

		_, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: f.ticketTypes[0].ID, Quantity: 5}},
		})

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Equal(t, 100, f.available(t, f.ticketTypes[0].ID))
	})

	t.Run("Failed - not on sale yet", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)

		// 把販售起點推到未來再重新預熱
		start := time.Now().Add(time.Hour)
		tt := f.ticketTypes[0]
		tt.SalesStart = &start
		require.NoError(t, f.inv.WarmUp(ctx, tt))

		_, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: tt.ID, Quantity: 1}},
		})

		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotAvailable)
	})

	t.Run("Failed - ErrInsufficientStock compensates reserved prefix", func(t *testing.T) {
		// 第一個票種足夠, 第二個不足：第一個已扣的 2 張必須補償回去
		f := newReservationFixture(t, 15*time.Minute, 100, 1)

		_, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items: []model.ReservationItemRequest{
				{TicketTypeID: f.ticketTypes[0].ID, Quantity: 2},
				{TicketTypeID: f.ticketTypes[1].ID, Quantity: 2},
			},
		})

		assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
		assert.Equal(t, 100, f.available(t, f.ticketTypes[0].ID))
		assert.Equal(t, 1, f.available(t, f.ticketTypes[1].ID))
		// 預約不落地
		assert.Equal(t, 0, f.store.ReservationCount())
	})
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	reserve := func(t *testing.T, f *reservationFixture, qty int) *model.Reservation {
		t.Helper()
		created, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: f.ticketTypes[0].ID, Quantity: qty}},
		})
		require.NoError(t, err)
		return created
	}

	t.Run("Success", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)
		created := reserve(t, f, 3)
		require.Equal(t, 97, f.available(t, f.ticketTypes[0].ID))

		cancelled, err := f.svc.CancelReservation(ctx, created.ID, model.CancelReservationRequest{
			CancelledBy:      created.CustomerID.String(),
			Reason:           "changed my mind",
			CancellationType: model.CancellationByCustomer,
		})

		require.NoError(t, err)
		assert.Equal(t, model.ReservationStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancellationType)
		assert.Equal(t, model.CancellationByCustomer, *cancelled.CancellationType)
		assert.NotNil(t, cancelled.CancelledAt)

		// 庫存回補
		assert.Equal(t, 100, f.available(t, f.ticketTypes[0].ID))
	})

	t.Run("Failed - already cancelled", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)
		created := reserve(t, f, 1)

		req := model.CancelReservationRequest{
			CancelledBy:      "admin",
			CancellationType: model.CancellationByAdmin,
		}
		_, err := f.svc.CancelReservation(ctx, created.ID, req)
		require.NoError(t, err)

		_, err = f.svc.CancelReservation(ctx, created.ID, req)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		// 重複取消不會重複回補
		assert.Equal(t, 100, f.available(t, f.ticketTypes[0].ID))
	})

	t.Run("Failed - invalid cancellation type", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)
		created := reserve(t, f, 1)

		_, err := f.svc.CancelReservation(ctx, created.ID, model.CancelReservationRequest{
			CancelledBy:      "admin",
			CancellationType: "BY_ROBOT",
		})

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("Failed - ErrReservationNotFound", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)

		_, err := f.svc.CancelReservation(ctx, uuid.New(), model.CancelReservationRequest{
			CancelledBy:      "admin",
			CancellationType: model.CancellationByAdmin,
		})

		assert.ErrorIs(t, err, apperrors.ErrReservationNotFound)
	})
}

func TestConvertReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - inventory untouched", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)
		created, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: f.ticketTypes[0].ID, Quantity: 2}},
		})
		require.NoError(t, err)

		orderID := uuid.New()
		converted, err := f.svc.ConvertReservation(ctx, created.ID, orderID)

		require.NoError(t, err)
		assert.Equal(t, model.ReservationStatusConverted, converted.Status)
		require.NotNil(t, converted.ConvertedOrderID)
		assert.Equal(t, orderID, *converted.ConvertedOrderID)
		assert.NotNil(t, converted.ConvertedAt)

		// 轉換不釋放庫存, 已扣的量由訂單接手
		assert.Equal(t, 98, f.available(t, f.ticketTypes[0].ID))
	})

	t.Run("Failed - terminal reservation", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)
		created, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: f.ticketTypes[0].ID, Quantity: 1}},
		})
		require.NoError(t, err)

		_, err = f.svc.ConvertReservation(ctx, created.ID, uuid.New())
		require.NoError(t, err)

		_, err = f.svc.ConvertReservation(ctx, created.ID, uuid.New())
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})
}

func TestExpireReservations(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newReservationFixture(t, time.Minute, 100)
		created, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: f.ticketTypes[0].ID, Quantity: 2}},
		})
		require.NoError(t, err)
		require.Equal(t, 98, f.available(t, f.ticketTypes[0].ID))

		// 直接把過期時間改到過去
		created.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		_, err = memory.NewReservationRepository(f.store).Create(ctx, created)
		require.NoError(t, err)

		count, err := f.svc.ExpireReservations(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 100, f.available(t, f.ticketTypes[0].ID))

		expired, err := f.svc.GetReservation(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReservationStatusExpired, expired.Status)
	})

	t.Run("Success - nothing to expire", func(t *testing.T) {
		f := newReservationFixture(t, 15*time.Minute, 100)
		_, err := f.svc.CreateReservation(ctx, model.CreateReservationRequest{
			CustomerID: uuid.New(),
			EventID:    f.eventID,
			Items:      []model.ReservationItemRequest{{TicketTypeID: f.ticketTypes[0].ID, Quantity: 1}},
		})
		require.NoError(t, err)

		count, err := f.svc.ExpireReservations(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Equal(t, 99, f.available(t, f.ticketTypes[0].ID))
	})
}
