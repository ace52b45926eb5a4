// Package memory 提供 repository 介面的行程內實作，供測試與單機開發使用。
// 搭配 UnitOfWork 的快照/還原，一個 saga 步驟內的寫入全有或全無。
package memory

import (
	"sync"

	"event-ticketing/internal/model"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	events              map[uuid.UUID]*model.Event
	ticketTypes         map[uuid.UUID]*model.TicketType
	reservations        map[uuid.UUID]*model.Reservation
	orders              map[uuid.UUID]*model.Order
	ordersByReservation map[uuid.UUID]uuid.UUID
	tickets             map[uuid.UUID]*model.IssuedTicket
	ticketsByCode       map[string]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		events:              make(map[uuid.UUID]*model.Event),
		ticketTypes:         make(map[uuid.UUID]*model.TicketType),
		reservations:        make(map[uuid.UUID]*model.Reservation),
		orders:              make(map[uuid.UUID]*model.Order),
		ordersByReservation: make(map[uuid.UUID]uuid.UUID),
		tickets:             make(map[uuid.UUID]*model.IssuedTicket),
		ticketsByCode:       make(map[string]uuid.UUID),
	}
}

// ReservationCount 目前預約筆數，補償性質的測試用來驗證「失敗不落地」
func (s *Store) ReservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

// snapshot 全量深拷貝，restore 用整份換回
type snapshot struct {
	events              map[uuid.UUID]*model.Event
	ticketTypes         map[uuid.UUID]*model.TicketType
	reservations        map[uuid.UUID]*model.Reservation
	orders              map[uuid.UUID]*model.Order
	ordersByReservation map[uuid.UUID]uuid.UUID
	tickets             map[uuid.UUID]*model.IssuedTicket
	ticketsByCode       map[string]uuid.UUID
}

func (s *Store) snapshot() *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &snapshot{
		events:              make(map[uuid.UUID]*model.Event, len(s.events)),
		ticketTypes:         make(map[uuid.UUID]*model.TicketType, len(s.ticketTypes)),
		reservations:        make(map[uuid.UUID]*model.Reservation, len(s.reservations)),
		orders:              make(map[uuid.UUID]*model.Order, len(s.orders)),
		ordersByReservation: make(map[uuid.UUID]uuid.UUID, len(s.ordersByReservation)),
		tickets:             make(map[uuid.UUID]*model.IssuedTicket, len(s.tickets)),
		ticketsByCode:       make(map[string]uuid.UUID, len(s.ticketsByCode)),
	}
	for k, v := range s.events {
		snap.events[k] = cloneEvent(v)
	}
	for k, v := range s.ticketTypes {
		snap.ticketTypes[k] = cloneTicketType(v)
	}
	for k, v := range s.reservations {
		snap.reservations[k] = cloneReservation(v)
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.ordersByReservation {
		snap.ordersByReservation[k] = v
	}
	for k, v := range s.tickets {
		snap.tickets[k] = cloneIssuedTicket(v)
	}
	for k, v := range s.ticketsByCode {
		snap.ticketsByCode[k] = v
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = snap.events
	s.ticketTypes = snap.ticketTypes
	s.reservations = snap.reservations
	s.orders = snap.orders
	s.ordersByReservation = snap.ordersByReservation
	s.tickets = snap.tickets
	s.ticketsByCode = snap.ticketsByCode
}

func cloneEvent(e *model.Event) *model.Event {
	c := *e
	return &c
}

func cloneTicketType(tt *model.TicketType) *model.TicketType {
	c := *tt
	return &c
}

func cloneReservation(r *model.Reservation) *model.Reservation {
	c := *r
	c.Items = make([]model.ReservationItem, len(r.Items))
	copy(c.Items, r.Items)
	return &c
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = make([]model.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}

func cloneIssuedTicket(t *model.IssuedTicket) *model.IssuedTicket {
	c := *t
	return &c
}
