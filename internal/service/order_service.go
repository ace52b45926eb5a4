package service

import (
	"context"
	"errors"
	"time"

	"event-ticketing/internal/model"
	"event-ticketing/internal/payment"
	"event-ticketing/internal/queue"
	"event-ticketing/internal/repository"
	"event-ticketing/internal/uow"
	"event-ticketing/pkg/apperrors"
	"event-ticketing/pkg/logger"
	"event-ticketing/pkg/ticketcode"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 票券代碼碰撞重試上限。32 字元集取 8 位約有 1.1e12 種組合, 連撞五次代表亂數源壞了
const maxCodeAttempts = 5

// ReservationProvider 是訂單流程對預約模組的依賴面。
// 單體部署時由 ReservationService 實作, 拆分部署時換成 RPC client
type ReservationProvider interface {
	GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	ConvertReservation(ctx context.Context, id uuid.UUID, orderID uuid.UUID) (*model.Reservation, error)
}

// EventProvider 提供活動名稱快照, 出票時寫進票券
type EventProvider interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
}

// PaymentOutcome 付款處理結果。閘道拒付不是傳輸層錯誤,
// 以 GatewayErrorCode/Message 回報, Order 狀態為 FAILED
type PaymentOutcome struct {
	Order               *model.Order
	Tickets             []*model.IssuedTicket
	GatewayErrorCode    string
	GatewayErrorMessage string
}

// Paid 付款是否成功
func (o *PaymentOutcome) Paid() bool {
	return o.Order != nil && o.Order.PaymentStatus == model.PaymentStatusPaid
}

type OrderService interface {
	// 從 ACTIVE 預約建立 PENDING 訂單(一預約對一訂單)
	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error)
	// 處理付款：成功則轉換預約並出票, 拒付則標記 FAILED
	ProcessPayment(ctx context.Context, orderID uuid.UUID, req model.ProcessPaymentRequest) (*PaymentOutcome, error)
	// 退款：僅 PAID 且無已使用票券的訂單可退, 票券作廢但庫存不回補
	RefundOrder(ctx context.Context, orderID uuid.UUID, reason string) (*model.Order, error)
	// 入場核銷：VALID -> USED, 防止同一張票重複入場
	ValidateTicket(ctx context.Context, code string) (*model.IssuedTicket, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Order, error)
	ListTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.IssuedTicket, error)
}

type OrderServiceImpl struct {
	repository       repository.OrderRepository
	ticketRepository repository.IssuedTicketRepository
	reservations     ReservationProvider
	events           EventProvider
	gateway          payment.Gateway
	receiptQueue     queue.ReceiptQueue
	uow              uow.UnitOfWork
	logger           *zap.Logger
}

func NewOrderService(
	orderRepository repository.OrderRepository,
	ticketRepository repository.IssuedTicketRepository,
	reservations ReservationProvider,
	events EventProvider,
	gateway payment.Gateway,
	receiptQueue queue.ReceiptQueue,
	unitOfWork uow.UnitOfWork,
) OrderService {
	return &OrderServiceImpl{
		repository:       orderRepository,
		ticketRepository: ticketRepository,
		reservations:     reservations,
		events:           events,
		gateway:          gateway,
		receiptQueue:     receiptQueue,
		uow:              unitOfWork,
		logger:           logger.WithComponent("order_service"),
	}
}

func (s *OrderServiceImpl) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	reservation, err := s.reservations.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	if reservation.CustomerID != req.CustomerID {
		return nil, apperrors.Validationf("reservation does not belong to customer")
	}
	if reservation.Status != model.ReservationStatusActive {
		return nil, apperrors.ErrReservationNotActive
	}

	// 先查一次讓重複下單拿到明確錯誤；並發下重複的那個會撞到 DB 唯一約束
	if _, err := s.repository.FindByReservationID(ctx, req.ReservationID); err == nil {
		return nil, apperrors.ErrOrderAlreadyExists
	} else if !errors.Is(err, apperrors.ErrOrderNotFound) {
		return nil, err
	}

	// 金額與明細沿用預約快照, 不重新計價
	now := time.Now().UTC()
	order := &model.Order{
		ID:            uuid.New(),
		ReservationID: reservation.ID,
		CustomerID:    reservation.CustomerID,
		EventID:       reservation.EventID,
		TotalAmount:   reservation.TotalAmount,
		PaymentStatus: model.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range reservation.Items {
		order.Items = append(order.Items, model.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			TicketTypeID:   item.TicketTypeID,
			TicketTypeName: item.TicketTypeName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Subtotal:       item.Subtotal,
		})
	}

	err = s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		_, err := s.repository.Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *OrderServiceImpl) ProcessPayment(ctx context.Context, orderID uuid.UUID, req model.ProcessPaymentRequest) (*PaymentOutcome, error) {
	order, err := s.repository.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != req.CustomerID {
		return nil, apperrors.Validationf("order does not belong to customer")
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return nil, apperrors.ErrOrderNotPending
	}

	// 1. 先落地 PROCESSING 狀態。guarded update 確保並發的付款請求只有一個能進入閘道
	order.PaymentStatus = model.PaymentStatusProcessing
	order, err = s.repository.UpdatePaymentStatus(ctx, order, model.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	// 2. 呼叫付款閘道。只有傳輸層故障才回 error, 拒付折進結果裡
	result, err := s.gateway.ProcessPayment(ctx, payment.PaymentRequest{
		OrderID: order.ID,
		Amount:  order.TotalAmount,
		Method:  req.PaymentMethod,
	})
	if err != nil {
		s.logger.Error("payment gateway unreachable",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "payment gateway unavailable", err)
	}

	if !result.Success {
		order.PaymentStatus = model.PaymentStatusFailed
		order, err = s.repository.UpdatePaymentStatus(ctx, order, model.PaymentStatusProcessing)
		if err != nil {
			return nil, err
		}
		return &PaymentOutcome{
			Order:               order,
			GatewayErrorCode:    result.ErrorCode,
			GatewayErrorMessage: result.ErrorMessage,
		}, nil
	}

	// 3. 付款成功：轉換預約、標記 PAID、出票, 三者同一個交易落地
	event, err := s.events.FindByID(ctx, order.EventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.PaymentStatus = model.PaymentStatusPaid
	order.TransactionID = &result.TransactionID
	order.PaidAt = &now

	var tickets []*model.IssuedTicket
	err = s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if _, err := s.reservations.ConvertReservation(ctx, order.ReservationID, order.ID); err != nil {
			return err
		}
		if _, err := s.repository.UpdatePaymentStatus(ctx, order, model.PaymentStatusProcessing); err != nil {
			return err
		}
		tickets, err = s.issueTickets(ctx, order, event.Name, now)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) {
			s.publishReceipt(ctx, order, len(tickets))
		})
		return nil
	})
	if err != nil {
		// 錢已經收了但出票失敗, 需要人工介入對帳
		s.logger.Error("payment captured but fulfillment failed",
			zap.String("order_id", order.ID.String()),
			zap.String("transaction_id", result.TransactionID),
			zap.Error(err))
		return nil, err
	}

	return &PaymentOutcome{Order: order, Tickets: tickets}, nil
}

func (s *OrderServiceImpl) RefundOrder(ctx context.Context, orderID uuid.UUID, reason string) (*model.Order, error) {
	order, err := s.repository.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != model.PaymentStatusPaid {
		return nil, apperrors.ErrOrderNotPaid
	}

	tickets, err := s.ticketRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	used := 0
	for _, t := range tickets {
		if t.Status == model.IssuedTicketStatusUsed {
			used++
		}
	}
	if used > 0 {
		return nil, apperrors.Conflictf("cannot refund: %d ticket(s) already used", used)
	}

	// 閘道退款失敗時不動任何狀態, 訂單保持 PAID 可重試
	refund, err := s.gateway.Refund(ctx, *order.TransactionID, order.TotalAmount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "payment gateway unavailable", err)
	}
	if !refund.Success {
		return nil, apperrors.Conflictf("refund rejected by gateway: %s", refund.ErrorMessage)
	}

	// 退款不回補庫存：已售出的量視為已消耗, 釋放與否由主辦方另行決定
	now := time.Now().UTC()
	order.PaymentStatus = model.PaymentStatusRefunded
	order.UpdatedAt = now

	err = s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		for _, t := range tickets {
			if t.Status != model.IssuedTicketStatusValid {
				continue
			}
			if err := s.ticketRepository.UpdateStatus(ctx, t.ID, model.IssuedTicketStatusCancelled); err != nil {
				return err
			}
		}
		_, err := s.repository.UpdatePaymentStatus(ctx, order, model.PaymentStatusPaid)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order refunded",
		zap.String("order_id", order.ID.String()),
		zap.String("refund_id", refund.RefundID),
		zap.String("reason", reason))

	return order, nil
}

func (s *OrderServiceImpl) ValidateTicket(ctx context.Context, code string) (*model.IssuedTicket, error) {
	now := time.Now().UTC()

	// guarded update：只有 VALID 的票會被打成 USED, 並發核銷只有一個成功
	ticket, err := s.ticketRepository.MarkUsed(ctx, code, now)
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, repository.ErrNoRowsUpdated) {
		return nil, err
	}

	// 沒更新到任何列：回查票券分辨是不存在、已用過還是已作廢
	existing, err := s.ticketRepository.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case model.IssuedTicketStatusUsed:
		return nil, apperrors.ErrTicketAlreadyUsed
	case model.IssuedTicketStatusCancelled:
		return nil, apperrors.ErrTicketCancelled
	default:
		return nil, apperrors.ErrInternalServerError
	}
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *OrderServiceImpl) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Order, error) {
	return s.repository.FindByCustomerID(ctx, customerID)
}

func (s *OrderServiceImpl) ListTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.IssuedTicket, error) {
	if _, err := s.repository.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.ticketRepository.FindByOrderID(ctx, orderID)
}

// issueTickets 每張票一筆 IssuedTicket, 一個訂單項目數量幾張就出幾張
func (s *OrderServiceImpl) issueTickets(ctx context.Context, order *model.Order, eventName string, now time.Time) ([]*model.IssuedTicket, error) {
	tickets := make([]*model.IssuedTicket, 0, order.TotalQuantity())
	for _, item := range order.Items {
		for i := 0; i < item.Quantity; i++ {
			code, err := s.uniqueCode(ctx)
			if err != nil {
				return nil, err
			}
			tickets = append(tickets, &model.IssuedTicket{
				ID:             uuid.New(),
				OrderID:        order.ID,
				OrderItemID:    item.ID,
				TicketTypeID:   item.TicketTypeID,
				TicketTypeName: item.TicketTypeName,
				EventID:        order.EventID,
				EventName:      eventName,
				CustomerID:     order.CustomerID,
				Code:           code,
				Status:         model.IssuedTicketStatusValid,
				CreatedAt:      now,
			})
		}
	}
	if err := s.ticketRepository.CreateBatch(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *OrderServiceImpl) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := ticketcode.Generate()
		if err != nil {
			return "", err
		}
		exists, err := s.ticketRepository.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.New(apperrors.KindInternal, "failed to generate unique ticket code")
}

// publishReceipt 交易提交後才發佈回執, 避免 Worker 讀到尚未落地的訂單
func (s *OrderServiceImpl) publishReceipt(ctx context.Context, order *model.Order, ticketCount int) {
	if s.receiptQueue == nil {
		return
	}
	receipt := &queue.OrderReceipt{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		EventID:     order.EventID,
		TotalAmount: order.TotalAmount.String(),
		TicketCount: ticketCount,
		PaidAt:      *order.PaidAt,
	}
	if err := s.receiptQueue.PublishReceipt(ctx, receipt); err != nil {
		s.logger.Error("failed to publish order receipt",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}
