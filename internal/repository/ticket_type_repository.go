package repository

import (
	"context"

	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TicketTypeRepository interface {
	Create(ctx context.Context, tt *model.TicketType) (*model.TicketType, error)
	List(ctx context.Context) ([]*model.TicketType, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.TicketType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.TicketType, error)
	// UpdateQuantity 回寫庫存計數（櫃台為準，資料庫為紀錄系統）
	UpdateQuantity(ctx context.Context, id uuid.UUID, available int, status model.TicketTypeStatus) error
}

type TicketTypeRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketTypeRepository(pool *pgxpool.Pool) TicketTypeRepository {
	return &TicketTypeRepositoryImpl{pool: pool}
}

const ticketTypeColumns = `
	id, event_id, name, price::text, total_quantity, available_quantity,
	max_per_customer, sales_start, sales_end, status, created_at, updated_at
`

func scanTicketType(row pgx.Row) (*model.TicketType, error) {
	var tt model.TicketType
	var price string

	err := row.Scan(
		&tt.ID,
		&tt.EventID,
		&tt.Name,
		&price,
		&tt.TotalQuantity,
		&tt.AvailableQuantity,
		&tt.MaxPerCustomer,
		&tt.SalesStart,
		&tt.SalesEnd,
		&tt.Status,
		&tt.CreatedAt,
		&tt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tt.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}

	return &tt, nil
}

func (r *TicketTypeRepositoryImpl) Create(ctx context.Context, tt *model.TicketType) (*model.TicketType, error) {
	query := `
		INSERT INTO ticket_types (
			id, event_id, name, price, total_quantity, available_quantity,
			max_per_customer, sales_start, sales_end, status
		)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10)
		RETURNING ` + ticketTypeColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		tt.ID, tt.EventID, tt.Name, tt.Price.String(), tt.TotalQuantity,
		tt.AvailableQuantity, tt.MaxPerCustomer, tt.SalesStart, tt.SalesEnd, tt.Status,
	)

	return scanTicketType(row)
}

func (r *TicketTypeRepositoryImpl) List(ctx context.Context) ([]*model.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		ORDER BY created_at DESC
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ticketTypes := make([]*model.TicketType, 0)

	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		ticketTypes = append(ticketTypes, tt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ticketTypes, nil
}

func (r *TicketTypeRepositoryImpl) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY created_at DESC
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ticketTypes := make([]*model.TicketType, 0)

	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		ticketTypes = append(ticketTypes, tt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ticketTypes, nil
}

func (r *TicketTypeRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE id = $1
	`

	tt, err := scanTicketType(querier(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return tt, nil
}

func (r *TicketTypeRepositoryImpl) UpdateQuantity(ctx context.Context, id uuid.UUID, available int, status model.TicketTypeStatus) error {
	query := `
		UPDATE ticket_types
		SET available_quantity = $1, status = $2, updated_at = now()
		WHERE id = $3
	`

	result, err := querier(ctx, r.pool).Exec(ctx, query, available, status, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketTypeNotFound
	}

	return nil
}
