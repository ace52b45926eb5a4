package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AfterCommit 在交易成功提交後執行的 hook
type AfterCommit func(ctx context.Context)

// UnitOfWork 讓 saga 的單一步驟內的持久化全有或全無：
// postgres 實作用交易，memory 實作用快照/還原。
// 巢狀呼叫 Do 會併入外層交易, hook 等最外層提交後才執行。
// 跨行程的庫存補償不在此範圍，仍是 best-effort 的 release 呼叫。
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, after func(AfterCommit)) error) error
}

type txKey struct{}

type txState struct {
	tx    pgx.Tx
	hooks []AfterCommit
}

func (s *txState) register(h AfterCommit) {
	s.hooks = append(s.hooks, h)
}

func stateFrom(ctx context.Context) *txState {
	state, _ := ctx.Value(txKey{}).(*txState)
	return state
}

// TxFrom 取出 ctx 內的交易，交易外呼叫回傳 nil
func TxFrom(ctx context.Context) pgx.Tx {
	if state := stateFrom(ctx); state != nil {
		return state.tx
	}
	return nil
}

// PgxUnitOfWork postgres 實作：fn 內的 repository 呼叫透過 ctx 共用同一筆交易
type PgxUnitOfWork struct {
	pool *pgxpool.Pool
}

func NewPgxUnitOfWork(pool *pgxpool.Pool) *PgxUnitOfWork {
	return &PgxUnitOfWork{pool: pool}
}

func (u *PgxUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, after func(AfterCommit)) error) error {
	// 已在交易內：併入外層, 不另開交易
	if state := stateFrom(ctx); state != nil {
		return fn(ctx, state.register)
	}

	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	state := &txState{tx: tx}

	txCtx := context.WithValue(ctx, txKey{}, state)
	if err := fn(txCtx, state.register); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	for _, h := range state.hooks {
		h(ctx)
	}

	return nil
}
