package memory

import (
	"context"
	"sync"

	"event-ticketing/internal/uow"
)

type memTxKey struct{}

type memTxState struct {
	hooks []uow.AfterCommit
}

func (s *memTxState) register(h uow.AfterCommit) {
	s.hooks = append(s.hooks, h)
}

// UnitOfWork 快照/還原實作：fn 失敗時整份狀態換回快照。
// 巢狀呼叫 Do 會併入外層, 只有最外層負責快照與 hook。
// 這是行程內的 all-or-nothing；跨行程的庫存補償仍由 saga 的 release 負責。
type UnitOfWork struct {
	store *Store
	txMu  sync.Mutex
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, after func(uow.AfterCommit)) error) error {
	if state, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		return fn(ctx, state.register)
	}

	u.txMu.Lock()
	defer u.txMu.Unlock()

	snap := u.store.snapshot()
	state := &memTxState{}

	txCtx := context.WithValue(ctx, memTxKey{}, state)
	if err := fn(txCtx, state.register); err != nil {
		u.store.restore(snap)
		return err
	}

	for _, h := range state.hooks {
		h(ctx)
	}

	return nil
}
