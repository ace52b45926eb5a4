package worker

import (
	"context"
	"time"

	"event-ticketing/internal/service"
	"event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// ExpiryWorker 定時掃描過期預約：釋放庫存並標記 EXPIRED。
// 只依 DB 的 expiresAt 判斷, 不依賴行程內計時器, 重啟後狀態自然收斂
type ExpiryWorker interface {
	Start(ctx context.Context) error
}

type ExpiryWorkerImpl struct {
	service  service.ReservationService
	interval time.Duration
	logger   *zap.Logger
}

func NewExpiryWorker(reservationService service.ReservationService, interval time.Duration) ExpiryWorker {
	return &ExpiryWorkerImpl{
		service:  reservationService,
		interval: interval,
		logger:   logger.WithComponent("expiry_worker"),
	}
}

func (w *ExpiryWorkerImpl) Start(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := w.service.ExpireReservations(ctx)
				if err != nil {
					w.logger.Error("expiry sweep failed", zap.Error(err))
					continue
				}
				if count > 0 {
					w.logger.Info("expired reservations swept", zap.Int("count", count))
				}
			}
		}
	}()
	return nil
}
