package repository

import (
	"context"
	"time"

	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IssuedTicketRepository interface {
	// CreateBatch 一次寫入訂單的全部票券，需在 unit-of-work 內呼叫
	CreateBatch(ctx context.Context, tickets []*model.IssuedTicket) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.IssuedTicket, error)
	FindByCode(ctx context.Context, code string) (*model.IssuedTicket, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// MarkUsed 守衛式更新：只有 VALID 才會轉 USED，併發驗票只有一個成功
	MarkUsed(ctx context.Context, code string, usedAt time.Time) (*model.IssuedTicket, error)
	// UpdateStatus 退款時把 VALID 票轉 CANCELLED
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.IssuedTicketStatus) error
}

type IssuedTicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewIssuedTicketRepository(pool *pgxpool.Pool) IssuedTicketRepository {
	return &IssuedTicketRepositoryImpl{pool: pool}
}

const issuedTicketColumns = `
	id, order_id, order_item_id, ticket_type_id, ticket_type_name,
	event_id, event_name, customer_id, code, status, used_at, created_at
`

func scanIssuedTicket(row pgx.Row) (*model.IssuedTicket, error) {
	var t model.IssuedTicket

	err := row.Scan(
		&t.ID,
		&t.OrderID,
		&t.OrderItemID,
		&t.TicketTypeID,
		&t.TicketTypeName,
		&t.EventID,
		&t.EventName,
		&t.CustomerID,
		&t.Code,
		&t.Status,
		&t.UsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *IssuedTicketRepositoryImpl) CreateBatch(ctx context.Context, tickets []*model.IssuedTicket) error {
	query := `
		INSERT INTO issued_tickets (
			id, order_id, order_item_id, ticket_type_id, ticket_type_name,
			event_id, event_name, customer_id, code, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	db := querier(ctx, r.pool)

	for _, t := range tickets {
		err := db.QueryRow(ctx, query,
			t.ID, t.OrderID, t.OrderItemID, t.TicketTypeID, t.TicketTypeName,
			t.EventID, t.EventName, t.CustomerID, t.Code, t.Status,
		).Scan(&t.CreatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *IssuedTicketRepositoryImpl) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.IssuedTicket, error) {
	query := `
		SELECT ` + issuedTicketColumns + `
		FROM issued_tickets
		WHERE order_id = $1
		ORDER BY created_at, code
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.IssuedTicket, 0)

	for rows.Next() {
		t, err := scanIssuedTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *IssuedTicketRepositoryImpl) FindByCode(ctx context.Context, code string) (*model.IssuedTicket, error) {
	query := `
		SELECT ` + issuedTicketColumns + `
		FROM issued_tickets
		WHERE code = $1
	`

	t, err := scanIssuedTicket(querier(ctx, r.pool).QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	return t, nil
}

func (r *IssuedTicketRepositoryImpl) ExistsByCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM issued_tickets WHERE code = $1)`

	var exists bool
	if err := querier(ctx, r.pool).QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *IssuedTicketRepositoryImpl) MarkUsed(ctx context.Context, code string, usedAt time.Time) (*model.IssuedTicket, error) {
	query := `
		UPDATE issued_tickets
		SET status = $1, used_at = $2
		WHERE code = $3 AND status = $4
		RETURNING ` + issuedTicketColumns

	t, err := scanIssuedTicket(querier(ctx, r.pool).QueryRow(ctx, query,
		model.IssuedTicketStatusUsed, usedAt, code, model.IssuedTicketStatusValid,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			// 沒更新到：票不存在，或已經不是 VALID
			return nil, ErrNoRowsUpdated
		}
		return nil, err
	}

	return t, nil
}

func (r *IssuedTicketRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status model.IssuedTicketStatus) error {
	query := `
		UPDATE issued_tickets
		SET status = $1
		WHERE id = $2
	`

	result, err := querier(ctx, r.pool).Exec(ctx, query, status, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}

	return nil
}
