package repository

import (
	"context"

	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository 活動唯讀協作：發票時取活動名稱；Create 僅供佈署種子資料使用
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{pool: pool}
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, created_at, updated_at
	`

	err := querier(ctx, r.pool).QueryRow(ctx, query, event.ID, event.Name, event.Description).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return event, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	var event model.Event
	err := querier(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}
