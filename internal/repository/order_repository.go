package repository

import (
	"context"
	"fmt"

	"event-ticketing/internal/model"
	"event-ticketing/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	// Create 寫入訂單與全部明細，需在 unit-of-work 內呼叫；
	// reservation_id 有 unique constraint，一個預約至多一張訂單
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Order, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*model.Order, error)
	// UpdatePaymentStatus 只在現況符合 expected 時改狀態，守住狀態機
	UpdatePaymentStatus(ctx context.Context, order *model.Order, expected model.PaymentStatus) (*model.Order, error)
}

type OrderRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &OrderRepositoryImpl{pool: pool}
}

const orderColumns = `
	id, customer_id, reservation_id, event_id, total_amount::text,
	payment_status, transaction_id, created_at, updated_at, paid_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	var totalAmount string

	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.ReservationID,
		&o.EventID,
		&totalAmount,
		&o.PaymentStatus,
		&o.TransactionID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.PaidAt,
	)
	if err != nil {
		return nil, err
	}

	o.TotalAmount, err = decimal.NewFromString(totalAmount)
	if err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	db := querier(ctx, r.pool)

	query := `
		INSERT INTO orders (id, customer_id, reservation_id, event_id, total_amount, payment_status)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING created_at, updated_at
	`

	err := db.QueryRow(ctx, query,
		order.ID, order.CustomerID, order.ReservationID, order.EventID,
		order.TotalAmount.String(), order.PaymentStatus,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrOrderAlreadyExists
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (
			id, order_id, ticket_type_id, ticket_type_name, quantity, unit_price, subtotal
		)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric)
	`

	for i := range order.Items {
		item := &order.Items[i]
		_, err := db.Exec(ctx, itemQuery,
			item.ID, order.ID, item.TicketTypeID, item.TicketTypeName,
			item.Quantity, item.UnitPrice.String(), item.Subtotal.String(),
		)
		if err != nil {
			return nil, err
		}
	}

	return order, nil
}

func (r *OrderRepositoryImpl) loadItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, ticket_type_id, ticket_type_name,
			quantity, unit_price::text, subtotal::text
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.OrderItem, 0)

	for rows.Next() {
		var item model.OrderItem
		var unitPrice, subtotal string

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.TicketTypeID,
			&item.TicketTypeName,
			&item.Quantity,
			&unitPrice,
			&subtotal,
		)
		if err != nil {
			return nil, err
		}

		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *OrderRepositoryImpl) findOne(ctx context.Context, query string, arg any) (*model.Order, error) {
	order, err := scanOrder(querier(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	order.Items, err = r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`
	return r.findOne(ctx, query, id)
}

func (r *OrderRepositoryImpl) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE reservation_id = $1
	`
	return r.findOne(ctx, query, reservationID)
}

func (r *OrderRepositoryImpl) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := querier(ctx, r.pool).Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*model.Order, 0)

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *OrderRepositoryImpl) UpdatePaymentStatus(ctx context.Context, order *model.Order, expected model.PaymentStatus) (*model.Order, error) {
	query := `
		UPDATE orders
		SET payment_status = $1, transaction_id = $2, paid_at = $3, updated_at = now()
		WHERE id = $4 AND payment_status = $5
		RETURNING updated_at
	`

	err := querier(ctx, r.pool).QueryRow(ctx, query,
		order.PaymentStatus, order.TransactionID, order.PaidAt, order.ID, expected,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			// 狀態已被併發改走
			return nil, apperrors.Conflictf("order payment status is not %s", expected)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return order, nil
}
