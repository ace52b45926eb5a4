package repository

import (
	"context"
	"errors"

	"event-ticketing/internal/uow"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB pgxpool.Pool 與 pgx.Tx 的共同介面，repository 不需要知道自己在不在交易內
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier 取得目前的執行端：ctx 內有 unit-of-work 交易就用交易，否則用連線池
func querier(ctx context.Context, pool *pgxpool.Pool) DB {
	if tx := uow.TxFrom(ctx); tx != nil {
		return tx
	}
	return pool
}

// isUniqueViolation 判斷是否為 unique constraint 衝突 (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
