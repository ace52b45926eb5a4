package memory

import (
	"context"
	"sort"
	"time"

	"event-ticketing/internal/model"
	"event-ticketing/internal/repository"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
)

// EventRepository

type EventRepository struct {
	store *Store
}

func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

func (r *EventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.store.events[event.ID] = cloneEvent(event)
	return event, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return cloneEvent(e), nil
}

// TicketTypeRepository

type TicketTypeRepository struct {
	store *Store
}

func NewTicketTypeRepository(store *Store) *TicketTypeRepository {
	return &TicketTypeRepository{store: store}
}

func (r *TicketTypeRepository) Create(ctx context.Context, tt *model.TicketType) (*model.TicketType, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	tt.CreatedAt = now
	tt.UpdatedAt = now
	r.store.ticketTypes[tt.ID] = cloneTicketType(tt)
	return tt, nil
}

func (r *TicketTypeRepository) List(ctx context.Context) ([]*model.TicketType, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ticketTypes := make([]*model.TicketType, 0, len(r.store.ticketTypes))
	for _, tt := range r.store.ticketTypes {
		ticketTypes = append(ticketTypes, cloneTicketType(tt))
	}
	sort.Slice(ticketTypes, func(i, j int) bool {
		return ticketTypes[i].CreatedAt.After(ticketTypes[j].CreatedAt)
	})
	return ticketTypes, nil
}

func (r *TicketTypeRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.TicketType, error) {
	all, _ := r.List(ctx)
	filtered := make([]*model.TicketType, 0)
	for _, tt := range all {
		if tt.EventID == eventID {
			filtered = append(filtered, tt)
		}
	}
	return filtered, nil
}

func (r *TicketTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TicketType, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tt, ok := r.store.ticketTypes[id]
	if !ok {
		return nil, apperrors.ErrTicketTypeNotFound
	}
	return cloneTicketType(tt), nil
}

func (r *TicketTypeRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, available int, status model.TicketTypeStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tt, ok := r.store.ticketTypes[id]
	if !ok {
		return apperrors.ErrTicketTypeNotFound
	}
	tt.AvailableQuantity = available
	tt.Status = status
	tt.UpdatedAt = time.Now().UTC()
	return nil
}

// ReservationRepository

type ReservationRepository struct {
	store *Store
}

func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	r.store.reservations[reservation.ID] = cloneReservation(reservation)
	return reservation, nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	reservation, ok := r.store.reservations[id]
	if !ok {
		return nil, apperrors.ErrReservationNotFound
	}
	return cloneReservation(reservation), nil
}

func (r *ReservationRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*model.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	reservations := make([]*model.Reservation, 0)
	for _, reservation := range r.store.reservations {
		if reservation.CustomerID == customerID {
			reservations = append(reservations, cloneReservation(reservation))
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].CreatedAt.After(reservations[j].CreatedAt)
	})
	return reservations, nil
}

func (r *ReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	expired := make([]*model.Reservation, 0)
	for _, reservation := range r.store.reservations {
		if reservation.Status == model.ReservationStatusActive && reservation.ExpiresAt.Before(now) {
			expired = append(expired, cloneReservation(reservation))
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.reservations[reservation.ID]
	if !ok {
		return nil, apperrors.ErrReservationNotFound
	}
	// 與 postgres 實作相同的守衛：現況必須仍是 ACTIVE
	if current.Status != model.ReservationStatusActive {
		return nil, apperrors.ErrReservationNotActive
	}

	reservation.UpdatedAt = time.Now().UTC()
	r.store.reservations[reservation.ID] = cloneReservation(reservation)
	return reservation, nil
}

// OrderRepository

type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.ordersByReservation[order.ReservationID]; exists {
		return nil, apperrors.ErrOrderAlreadyExists
	}

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.store.orders[order.ID] = cloneOrder(order)
	r.store.ordersByReservation[order.ReservationID] = order.ID
	return order, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id, ok := r.store.ordersByReservation[reservationID]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	return cloneOrder(r.store.orders[id]), nil
}

func (r *OrderRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	orders := make([]*model.Order, 0)
	for _, order := range r.store.orders {
		if order.CustomerID == customerID {
			orders = append(orders, cloneOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, order *model.Order, expected model.PaymentStatus) (*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.orders[order.ID]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	if current.PaymentStatus != expected {
		return nil, apperrors.Conflictf("order payment status is not %s", expected)
	}

	order.UpdatedAt = time.Now().UTC()
	r.store.orders[order.ID] = cloneOrder(order)
	return order, nil
}

// IssuedTicketRepository

type IssuedTicketRepository struct {
	store *Store
}

func NewIssuedTicketRepository(store *Store) *IssuedTicketRepository {
	return &IssuedTicketRepository{store: store}
}

func (r *IssuedTicketRepository) CreateBatch(ctx context.Context, tickets []*model.IssuedTicket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range tickets {
		t.CreatedAt = now
		r.store.tickets[t.ID] = cloneIssuedTicket(t)
		r.store.ticketsByCode[t.Code] = t.ID
	}
	return nil
}

func (r *IssuedTicketRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.IssuedTicket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tickets := make([]*model.IssuedTicket, 0)
	for _, t := range r.store.tickets {
		if t.OrderID == orderID {
			tickets = append(tickets, cloneIssuedTicket(t))
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].Code < tickets[j].Code
	})
	return tickets, nil
}

func (r *IssuedTicketRepository) FindByCode(ctx context.Context, code string) (*model.IssuedTicket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id, ok := r.store.ticketsByCode[code]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	return cloneIssuedTicket(r.store.tickets[id]), nil
}

func (r *IssuedTicketRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, ok := r.store.ticketsByCode[code]
	return ok, nil
}

func (r *IssuedTicketRepository) MarkUsed(ctx context.Context, code string, usedAt time.Time) (*model.IssuedTicket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id, ok := r.store.ticketsByCode[code]
	if !ok {
		return nil, repository.ErrNoRowsUpdated
	}
	t := r.store.tickets[id]
	if t.Status != model.IssuedTicketStatusValid {
		return nil, repository.ErrNoRowsUpdated
	}

	t.Status = model.IssuedTicketStatusUsed
	t.UsedAt = &usedAt
	return cloneIssuedTicket(t), nil
}

func (r *IssuedTicketRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.IssuedTicketStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t, ok := r.store.tickets[id]
	if !ok {
		return apperrors.ErrTicketNotFound
	}
	t.Status = status
	return nil
}
