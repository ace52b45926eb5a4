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

type TicketTypeService interface {
	// 建立票種並預熱庫存後端
	CreateTicketType(ctx context.Context, req model.CreateTicketTypeRequest) (*model.TicketType, error)
	GetTicketType(ctx context.Context, id uuid.UUID) (*model.TicketType, error)
	ListTicketTypes(ctx context.Context) ([]*model.TicketType, error)
	ListTicketTypesByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.TicketType, error)
	// 服務啟動時把所有票種灌進庫存後端
	WarmUpInventory(ctx context.Context) error
}

type TicketTypeServiceImpl struct {
	repository repository.TicketTypeRepository
	events     repository.EventRepository
	inventory  inventory.TicketInventory
	uow        uow.UnitOfWork
	logger     *zap.Logger
}

func NewTicketTypeService(
	ticketTypeRepository repository.TicketTypeRepository,
	eventRepository repository.EventRepository,
	ticketInventory inventory.TicketInventory,
	unitOfWork uow.UnitOfWork,
) TicketTypeService {
	return &TicketTypeServiceImpl{
		repository: ticketTypeRepository,
		events:     eventRepository,
		inventory:  ticketInventory,
		uow:        unitOfWork,
		logger:     logger.WithComponent("ticket_type_service"),
	}
}

func (s *TicketTypeServiceImpl) CreateTicketType(ctx context.Context, req model.CreateTicketTypeRequest) (*model.TicketType, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, apperrors.Validationf("invalid price: %s", req.Price)
	}
	if price.IsNegative() {
		return nil, apperrors.Validationf("price must not be negative")
	}
	if req.TotalQuantity <= 0 {
		return nil, apperrors.Validationf("total quantity must be positive")
	}
	if req.MaxPerCustomer <= 0 {
		return nil, apperrors.Validationf("max per customer must be positive")
	}
	if req.SalesStart != nil && req.SalesEnd != nil && req.SalesEnd.Before(*req.SalesStart) {
		return nil, apperrors.Validationf("sales end must be after sales start")
	}

	if _, err := s.events.FindByID(ctx, req.EventID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ticketType := &model.TicketType{
		ID:                uuid.New(),
		EventID:           req.EventID,
		Name:              req.Name,
		Price:             price,
		TotalQuantity:     req.TotalQuantity,
		AvailableQuantity: req.TotalQuantity,
		MaxPerCustomer:    req.MaxPerCustomer,
		SalesStart:        req.SalesStart,
		SalesEnd:          req.SalesEnd,
		Status:            model.TicketTypeStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		_, err := s.repository.Create(ctx, ticketType)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 票種落地後才預熱, 失敗只記 log：預約路徑會回 not found, 重啟後 WarmUpInventory 補救
	if err := s.inventory.WarmUp(ctx, ticketType); err != nil {
		s.logger.Error("failed to warm up inventory",
			zap.String("ticket_type_id", ticketType.ID.String()),
			zap.Error(err))
	}

	return ticketType, nil
}

func (s *TicketTypeServiceImpl) GetTicketType(ctx context.Context, id uuid.UUID) (*model.TicketType, error) {
	ticketType, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 庫存後端是數量與狀態的即時來源, 讀得到就覆蓋 DB 的快照值
	if info, err := s.inventory.GetTicketType(ctx, id); err == nil {
		ticketType.AvailableQuantity = info.AvailableQuantity
		ticketType.Status = info.Status
	}

	return ticketType, nil
}

func (s *TicketTypeServiceImpl) ListTicketTypes(ctx context.Context) ([]*model.TicketType, error) {
	return s.repository.List(ctx)
}

func (s *TicketTypeServiceImpl) ListTicketTypesByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.TicketType, error) {
	return s.repository.ListByEventID(ctx, eventID)
}

func (s *TicketTypeServiceImpl) WarmUpInventory(ctx context.Context) error {
	ticketTypes, err := s.repository.List(ctx)
	if err != nil {
		return err
	}
	for _, tt := range ticketTypes {
		if err := s.inventory.WarmUp(ctx, tt); err != nil {
			return err
		}
	}
	s.logger.Info("inventory warmed up", zap.Int("ticket_types", len(ticketTypes)))
	return nil
}
