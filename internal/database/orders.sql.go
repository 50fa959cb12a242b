package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_date::text, created_at, sender_id, status, order_type, table_number, items,
subtotal, contact, payment_method, payment_status, discount, taxes, total, closed_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderDate,
		&o.CreatedAt,
		&o.SenderID,
		&o.Status,
		&o.OrderType,
		&o.TableNumber,
		&o.Items,
		&o.Subtotal,
		&o.Contact,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.Discount,
		&o.Taxes,
		&o.Total,
		&o.ClosedAt,
		&o.UpdatedAt,
	)
	return o, err
}

func (q *Queries) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const createOrder = `INSERT INTO orders (order_date, created_at, sender_id, status, order_type, table_number,
items, subtotal, contact, payment_method)
VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderDate     string
	CreatedAt     time.Time
	SenderID      pgtype.Text
	Status        string
	OrderType     string
	TableNumber   pgtype.Text
	Items         []OrderLine
	Subtotal      pgtype.Numeric
	Contact       *Contact
	PaymentMethod pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.OrderDate,
		arg.CreatedAt,
		arg.SenderID,
		arg.Status,
		arg.OrderType,
		arg.TableNumber,
		arg.Items,
		arg.Subtotal,
		arg.Contact,
		arg.PaymentMethod,
	))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = getOrder + ` FOR NO KEY UPDATE`

// GetOrderForUpdate locks the order row until the surrounding transaction ends.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const countOpenOrdersByTable = `SELECT count(*) FROM orders
WHERE table_number = $1 AND status = 'OPEN' AND order_type = 'DINE-IN'`

func (q *Queries) CountOpenOrdersByTable(ctx context.Context, table string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOpenOrdersByTable, table).Scan(&n)
	return n, err
}

const updateOrderItems = `UPDATE orders SET items = $2, subtotal = $3, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderItemsParams struct {
	ID       uuid.UUID
	Items    []OrderLine
	Subtotal pgtype.Numeric
}

func (q *Queries) UpdateOrderItems(ctx context.Context, arg UpdateOrderItemsParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderItems, arg.ID, arg.Items, arg.Subtotal))
}

const closeOrder = `UPDATE orders
SET status = 'CLOSED', payment_method = $2, payment_status = $3, subtotal = $4,
    discount = $5, taxes = $6, total = $7, closed_at = $8, updated_at = now()
WHERE id = $1 AND status = 'OPEN'
RETURNING ` + orderColumns

type CloseOrderParams struct {
	ID            uuid.UUID
	PaymentMethod string
	PaymentStatus string
	Subtotal      pgtype.Numeric
	Discount      pgtype.Numeric
	Taxes         pgtype.Numeric
	Total         pgtype.Numeric
	ClosedAt      time.Time
}

// CloseOrder returns pgx.ErrNoRows when the order is missing or no longer OPEN.
func (q *Queries) CloseOrder(ctx context.Context, arg CloseOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, closeOrder,
		arg.ID,
		arg.PaymentMethod,
		arg.PaymentStatus,
		arg.Subtotal,
		arg.Discount,
		arg.Taxes,
		arg.Total,
		arg.ClosedAt,
	))
}

const updateOrder = `UPDATE orders
SET status = $2, payment_status = $3, table_number = $4, items = $5, subtotal = $6,
    contact = $7, payment_method = $8, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderParams struct {
	ID            uuid.UUID
	Status        string
	PaymentStatus pgtype.Text
	TableNumber   pgtype.Text
	Items         []OrderLine
	Subtotal      pgtype.Numeric
	Contact       *Contact
	PaymentMethod pgtype.Text
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrder,
		arg.ID,
		arg.Status,
		arg.PaymentStatus,
		arg.TableNumber,
		arg.Items,
		arg.Subtotal,
		arg.Contact,
		arg.PaymentMethod,
	))
}

const deleteOrder = `DELETE FROM orders WHERE id = $1`

// DeleteOrder returns the number of rows removed (0 or 1).
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteOrder, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listOpenOrders = `SELECT ` + orderColumns + ` FROM orders WHERE status = 'OPEN' ORDER BY created_at`

func (q *Queries) ListOpenOrders(ctx context.Context) ([]Order, error) {
	return q.listOrders(ctx, listOpenOrders)
}

const listOrdersInRange = `SELECT ` + orderColumns + ` FROM orders
WHERE order_date BETWEEN $1::date AND $2::date
  AND created_at >= $3 AND created_at <= $4
ORDER BY created_at`

type TimeRangeParams struct {
	Start time.Time
	End   time.Time
	// StartDate and EndDate are the partition keys covering [Start, End].
	StartDate string
	EndDate   string
}

// ListOrdersInRange scans the date partitions covering the window, then filters
// on the exact creation timestamp (both bounds inclusive).
func (q *Queries) ListOrdersInRange(ctx context.Context, arg TimeRangeParams) ([]Order, error) {
	return q.listOrders(ctx, listOrdersInRange, arg.StartDate, arg.EndDate, arg.Start, arg.End)
}

const countOpenOrdersInRange = `SELECT count(*) FROM orders
WHERE order_date BETWEEN $1::date AND $2::date
  AND created_at >= $3 AND created_at <= $4
  AND status = 'OPEN'`

func (q *Queries) CountOpenOrdersInRange(ctx context.Context, arg TimeRangeParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOpenOrdersInRange, arg.StartDate, arg.EndDate, arg.Start, arg.End).Scan(&n)
	return n, err
}
