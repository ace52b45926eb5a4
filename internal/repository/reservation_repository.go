package repository

import (
	"context"
	"time"

	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ReservationRepository interface {
	// Create 寫入預約與全部明細，需在 unit-of-work 內呼叫
	Create(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*model.Reservation, error)
	// FindExpired 找出已過期但仍 ACTIVE 的預約，供過期清掃使用
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error)
	// UpdateStatus 只在現況仍為 ACTIVE 時改狀態；併發轉換時後到者拿 0 rows
	UpdateStatus(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error)
}

type ReservationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &ReservationRepositoryImpl{pool: pool}
}

const reservationColumns = `
	id, customer_id, event_id, total_amount::text, status, expires_at,
	created_at, updated_at, cancelled_by, cancellation_reason, cancellation_type,
	cancelled_at, converted_order_id, converted_at
`

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var r model.Reservation
	var totalAmount string

	err := row.Scan(
		&r.ID,
		&r.CustomerID,
		&r.EventID,
		&totalAmount,
		&r.Status,
		&r.ExpiresAt,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.CancelledBy,
		&r.CancellationReason,
		&r.CancellationType,
		&r.CancelledAt,
		&r.ConvertedOrderID,
		&r.ConvertedAt,
	)
	if err != nil {
		return nil, err
	}

	r.TotalAmount, err = decimal.NewFromString(totalAmount)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *ReservationRepositoryImpl) Create(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	db := querier(ctx, r.pool)

	query := `
		INSERT INTO reservations (id, customer_id, event_id, total_amount, status, expires_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING created_at, updated_at
	`

	err := db.QueryRow(ctx, query,
		reservation.ID, reservation.CustomerID, reservation.EventID,
		reservation.TotalAmount.String(), reservation.Status, reservation.ExpiresAt,
	).Scan(&reservation.CreatedAt, &reservation.UpdatedAt)
	if err != nil {
		return nil, err
	}

	itemQuery := `
		INSERT INTO reservation_items (
			id, reservation_id, ticket_type_id, ticket_type_name, quantity, unit_price, subtotal
		)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric)
	`

	for i := range reservation.Items {
		item := &reservation.Items[i]
		_, err := db.Exec(ctx, itemQuery,
			item.ID, reservation.ID, item.TicketTypeID, item.TicketTypeName,
			item.Quantity, item.UnitPrice.String(), item.Subtotal.String(),
		)
		if err != nil {
			return nil, err
		}
	}

	return reservation, nil
}

func (r *ReservationRepositoryImpl) loadItems(ctx context.Context, reservationIDs []uuid.UUID) (map[uuid.UUID][]model.ReservationItem, error) {
	query := `
		SELECT id, reservation_id, ticket_type_id, ticket_type_name,
			quantity, unit_price::text, subtotal::text
		FROM reservation_items
		WHERE reservation_id = ANY($1)
		ORDER BY id
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query, reservationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.ReservationItem)

	for rows.Next() {
		var item model.ReservationItem
		var unitPrice, subtotal string

		err := rows.Scan(
			&item.ID,
			&item.ReservationID,
			&item.TicketTypeID,
			&item.TicketTypeName,
			&item.Quantity,
			&unitPrice,
			&subtotal,
		)
		if err != nil {
			return nil, err
		}

		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}

		items[item.ReservationID] = append(items[item.ReservationID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *ReservationRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = $1
	`

	reservation, err := scanReservation(querier(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	reservation.Items = items[id]

	return reservation, nil
}

func (r *ReservationRepositoryImpl) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*model.Reservation, 0)
	ids := make([]uuid.UUID, 0)

	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
		ids = append(ids, reservation.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return reservations, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, reservation := range reservations {
		reservation.Items = items[reservation.ID]
	}

	return reservations, nil
}

func (r *ReservationRepositoryImpl) FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query, model.ReservationStatusActive, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*model.Reservation, 0)
	ids := make([]uuid.UUID, 0)

	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
		ids = append(ids, reservation.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return reservations, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, reservation := range reservations {
		reservation.Items = items[reservation.ID]
	}

	return reservations, nil
}

func (r *ReservationRepositoryImpl) UpdateStatus(ctx context.Context, reservation *model.Reservation) (*model.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $1, cancelled_by = $2, cancellation_reason = $3,
			cancellation_type = $4, cancelled_at = $5, converted_order_id = $6,
			converted_at = $7, updated_at = now()
		WHERE id = $8 AND status = $9
		RETURNING updated_at
	`

	err := querier(ctx, r.pool).QueryRow(ctx, query,
		reservation.Status, reservation.CancelledBy, reservation.CancellationReason,
		reservation.CancellationType, reservation.CancelledAt, reservation.ConvertedOrderID,
		reservation.ConvertedAt, reservation.ID, model.ReservationStatusActive,
	).Scan(&reservation.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			// 已不是 ACTIVE：被併發取消/轉換/過期
			return nil, apperrors.ErrReservationNotActive
		}
		return nil, err
	}

	return reservation, nil
}
