package service

import (
	"context"
	"time"

	"event-ticketing/internal/inventory"
	"event-ticketing/internal/model"
	"event-ticketing/internal/repository"
	"event-ticketing/internal/uow"
	"event-ticketing/pkg/apperrors"
	"event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 單次掃描最多處理的過期預約數，避免一次掃描佔住 Worker 太久
const expireBatchSize = 100

type ReservationService interface {
	// 建立預約(逐項預扣庫存, 失敗時補償已預扣的前綴)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (*model.Reservation, error)
	// 取消預約(釋放庫存)
	CancelReservation(ctx context.Context, id uuid.UUID, req model.CancelReservationRequest) (*model.Reservation, error)
	// 預約轉訂單(庫存已扣, 不再釋放)
	ConvertReservation(ctx context.Context, id uuid.UUID, orderID uuid.UUID) (*model.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	ListReservationsByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Reservation, error)
	// 過期掃描：釋放庫存並標記為 EXPIRED, 回傳處理筆數
	ExpireReservations(ctx context.Context) (int, error)
}

type ReservationServiceImpl struct {
	repository repository.ReservationRepository
	inventory  inventory.TicketInventory
	uow        uow.UnitOfWork
	holdTTL    time.Duration
	logger     *zap.Logger
}

func NewReservationService(
	reservationRepository repository.ReservationRepository,
	ticketInventory inventory.TicketInventory,
	unitOfWork uow.UnitOfWork,
	holdTTL time.Duration,
) ReservationService {
	return &ReservationServiceImpl{
		repository: reservationRepository,
		inventory:  ticketInventory,
		uow:        unitOfWork,
		holdTTL:    holdTTL,
		logger:     logger.WithComponent("reservation_service"),
	}
}

func (s *ReservationServiceImpl) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (*model.Reservation, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.Validationf("reservation must contain at least one item")
	}

	// 1. 預扣前先做完整驗證, 避免扣到一半才發現請求不合法
	now := time.Now().UTC()
	infos := make([]inventory.TicketTypeInfo, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.Validationf("quantity must be positive")
		}

		info, err := s.inventory.GetTicketType(ctx, item.TicketTypeID)
		if err != nil {
			return nil, err
		}
		if !info.OnSaleAt(now) {
			return nil, apperrors.ErrTicketTypeNotAvailable
		}
		if info.EventID != req.EventID {
			return nil, apperrors.Validationf("ticket type %s does not belong to event %s", item.TicketTypeID, req.EventID)
		}
		if item.Quantity > info.MaxPerCustomer {
			return nil, apperrors.Validationf("quantity %d exceeds max %d per customer for ticket type %s",
				item.Quantity, info.MaxPerCustomer, item.TicketTypeID)
		}
		infos[i] = info
	}

	// 2. 逐項預扣庫存；任一項失敗, 補償已扣成功的前綴後回傳該項的錯誤
	reserved := make([]model.ReservationItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		if _, err := s.inventory.Reserve(ctx, item.TicketTypeID, item.Quantity); err != nil {
			s.releaseItems(reserved)
			return nil, err
		}
		reserved = append(reserved, item)
	}

	// 3. 組裝預約, 每個項目快照當下的票種名稱與單價
	now = time.Now().UTC()
	reservation := &model.Reservation{
		ID:          uuid.New(),
		EventID:     req.EventID,
		CustomerID:  req.CustomerID,
		Status:      model.ReservationStatusActive,
		TotalAmount: decimal.Zero,
		ExpiresAt:   now.Add(s.holdTTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, item := range req.Items {
		subtotal := infos[i].Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		reservation.Items = append(reservation.Items, model.ReservationItem{
			ID:             uuid.New(),
			ReservationID:  reservation.ID,
			TicketTypeID:   item.TicketTypeID,
			TicketTypeName: infos[i].Name,
			Quantity:       item.Quantity,
			UnitPrice:      infos[i].Price,
			Subtotal:       subtotal,
		})
		reservation.TotalAmount = reservation.TotalAmount.Add(subtotal)
	}

	// 4. 持久化失敗時把剛扣掉的庫存全數還回去, 否則票就永遠卡死了
	err := s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		_, err := s.repository.Create(ctx, reservation)
		return err
	})
	if err != nil {
		s.releaseItems(reserved)
		return nil, err
	}

	return reservation, nil
}

func (s *ReservationServiceImpl) CancelReservation(ctx context.Context, id uuid.UUID, req model.CancelReservationRequest) (*model.Reservation, error) {
	if !req.CancellationType.IsValid() {
		return nil, apperrors.Validationf("invalid cancellation type: %s", req.CancellationType)
	}

	reservation, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status != model.ReservationStatusActive {
		return nil, apperrors.Conflictf("only ACTIVE reservations can be cancelled")
	}

	// 先釋放庫存再寫狀態；單項釋放失敗只記 log, 不中斷其餘項目
	s.releaseReservationItems(reservation)

	now := time.Now().UTC()
	cancellationType := req.CancellationType
	reservation.Status = model.ReservationStatusCancelled
	reservation.CancelledBy = &req.CancelledBy
	reservation.CancellationType = &cancellationType
	if req.Reason != "" {
		reservation.CancellationReason = &req.Reason
	}
	reservation.CancelledAt = &now
	reservation.UpdatedAt = now

	err = s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		_, err := s.repository.UpdateStatus(ctx, reservation)
		return err
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (s *ReservationServiceImpl) ConvertReservation(ctx context.Context, id uuid.UUID, orderID uuid.UUID) (*model.Reservation, error) {
	reservation, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status != model.ReservationStatusActive {
		return nil, apperrors.Conflictf("only ACTIVE reservations can be converted")
	}

	// 轉換不動庫存：已扣的數量由訂單接手
	now := time.Now().UTC()
	reservation.Status = model.ReservationStatusConverted
	reservation.ConvertedOrderID = &orderID
	reservation.ConvertedAt = &now
	reservation.UpdatedAt = now

	err = s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		_, err := s.repository.UpdateStatus(ctx, reservation)
		return err
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (s *ReservationServiceImpl) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *ReservationServiceImpl) ListReservationsByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Reservation, error) {
	return s.repository.FindByCustomerID(ctx, customerID)
}

func (s *ReservationServiceImpl) ExpireReservations(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	expired, err := s.repository.FindExpired(ctx, now, expireBatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, reservation := range expired {
		reservation.Status = model.ReservationStatusExpired
		reservation.UpdatedAt = now

		err := s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
			_, err := s.repository.UpdateStatus(ctx, reservation)
			return err
		})
		if err != nil {
			// 已被取消或轉換的預約跳過即可, 其他錯誤記 log 後繼續掃下一筆
			if apperrors.KindOf(err) != apperrors.KindConflict {
				s.logger.Error("failed to expire reservation",
					zap.String("reservation_id", reservation.ID.String()),
					zap.Error(err))
			}
			continue
		}

		// 狀態先落地再釋放庫存, 避免和取消流程重複釋放同一筆
		s.releaseReservationItems(reservation)
		count++
	}

	return count, nil
}

// releaseItems 補償已預扣的項目。使用 context.Background() 確保補償一定會執行,
// 不會因為原請求被取消而漏還庫存
func (s *ReservationServiceImpl) releaseItems(items []model.ReservationItemRequest) {
	for _, item := range items {
		if err := s.inventory.Release(context.Background(), item.TicketTypeID, item.Quantity); err != nil {
			s.logger.Error("failed to release reserved stock",
				zap.String("ticket_type_id", item.TicketTypeID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (s *ReservationServiceImpl) releaseReservationItems(reservation *model.Reservation) {
	for _, item := range reservation.Items {
		if err := s.inventory.Release(context.Background(), item.TicketTypeID, item.Quantity); err != nil {
			s.logger.Error("failed to release stock",
				zap.String("reservation_id", reservation.ID.String()),
				zap.String("ticket_type_id", item.TicketTypeID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}
