package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/events"
	"go.uber.org/zap"
)

// dateLayout formats the order partition key.
const dateLayout = "2006-01-02"

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	CountOpenOrdersByTable(ctx context.Context, table string) (int64, error)
	UpdateOrderItems(ctx context.Context, arg database.UpdateOrderItemsParams) (database.Order, error)
	CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error)
	ListOpenOrders(ctx context.Context) ([]database.Order, error)
	ListOrdersInRange(ctx context.Context, arg database.TimeRangeParams) ([]database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreatePickupOrderRequest is the validated input for a pick-up order.
type CreatePickupOrderRequest struct {
	Items         []database.OrderLine
	Subtotal      decimal.Decimal
	Contact       *database.Contact
	PaymentMethod string
	SenderID      string
}

// CreateDineInOrderRequest is the validated input for a dine-in order.
// SenderID is empty for anonymous guests.
type CreateDineInOrderRequest struct {
	Items    []database.OrderLine
	Subtotal decimal.Decimal
	Table    string
	SenderID string
}

// CloseOrderRequest carries the payment information submitted by the client.
type CloseOrderRequest struct {
	PaymentMethod string
	Discount      decimal.Decimal
	Taxes         decimal.Decimal
	Total         decimal.Decimal
}

// OrderPatch is an administrative correction. Nil fields are left alone.
type OrderPatch struct {
	Status        *string
	PaymentStatus *string
	Table         *string
	Items         *[]database.OrderLine
	Subtotal      *decimal.Decimal
	Contact       *database.Contact
	PaymentMethod *string
}

// OrderSummary is the restricted projection used by list queries.
type OrderSummary struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Items     []database.OrderLine
	SenderID  string
	Status    string
	Table     string
}

// DeleteOrdersResult reports the outcome for every requested id.
type DeleteOrdersResult struct {
	Deleted []uuid.UUID
	Missing []uuid.UUID
}

// OrderConfig holds the process-wide settings of the order service.
type OrderConfig struct {
	TaxRate decimal.Decimal
	// Location decides which calendar date an order is filed under.
	Location *time.Location
	// Events receives committed order changes. May be nil.
	Events events.Publisher
}

// OrderService handles the order lifecycle: OPEN → CLOSED.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
	taxRate  decimal.Decimal
	loc      *time.Location
	events   events.Publisher
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, cfg OrderConfig) *OrderService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	pub := cfg.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{
		pool:     pool,
		store:    store,
		newStore: newStore,
		taxRate:  cfg.TaxRate,
		loc:      loc,
		events:   pub,
		now:      time.Now,
	}
}

// CreatePickupOrder stores a new OPEN pick-up order under today's partition.
func (s *OrderService) CreatePickupOrder(ctx context.Context, req CreatePickupOrderRequest) (database.Order, error) {
	if err := validateLines(req.Items); err != nil {
		return database.Order{}, err
	}
	if req.Subtotal.IsNegative() {
		return database.Order{}, ErrInvalidSubtotal
	}
	if req.PaymentMethod != "" && !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return database.Order{}, ErrInvalidPaymentMethod
	}

	now := s.now()
	order, err := s.store.CreateOrder(ctx, database.CreateOrderParams{
		OrderDate:     s.partition(now),
		CreatedAt:     now,
		SenderID:      optionalText(req.SenderID),
		Status:        enum.OrderStatusOpen,
		OrderType:     enum.OrderTypePickup,
		Items:         req.Items,
		Subtotal:      database.DecimalToNumeric(req.Subtotal),
		Contact:       req.Contact,
		PaymentMethod: optionalText(req.PaymentMethod),
	})
	if err != nil {
		return database.Order{}, unavailable("create pick-up order", err)
	}
	s.publish(ctx, events.OrderCreated, order)
	return order, nil
}

// CreateDineInOrder stores a new OPEN dine-in order for table.
// The occupancy check and the insert run in one transaction; the partial
// unique index on open dine-in tables backs it up under concurrency.
func (s *OrderService) CreateDineInOrder(ctx context.Context, req CreateDineInOrderRequest) (database.Order, error) {
	if err := validateLines(req.Items); err != nil {
		return database.Order{}, err
	}
	if req.Subtotal.IsNegative() {
		return database.Order{}, ErrInvalidSubtotal
	}
	table := strings.TrimSpace(req.Table)
	if table == "" {
		return database.Order{}, ErrTableRequired
	}

	var order database.Order
	err := runInTx(ctx, s.pool, "create dine-in order", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		open, err := store.CountOpenOrdersByTable(ctx, table)
		if err != nil {
			return fmt.Errorf("check table: %w", err)
		}
		if open > 0 {
			return ErrTableOccupied
		}

		now := s.now()
		order, err = store.CreateOrder(ctx, database.CreateOrderParams{
			OrderDate:   s.partition(now),
			CreatedAt:   now,
			SenderID:    optionalText(req.SenderID),
			Status:      enum.OrderStatusOpen,
			OrderType:   enum.OrderTypeDineIn,
			TableNumber: optionalText(table),
			Items:       req.Items,
			Subtotal:    database.DecimalToNumeric(req.Subtotal),
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.Order{}, err
	}
	s.publish(ctx, events.OrderCreated, order)
	return order, nil
}

// AppendItems adds items to an open dine-in order and recomputes its subtotal.
func (s *OrderService) AppendItems(ctx context.Context, orderID uuid.UUID, items []database.OrderLine) (database.Order, error) {
	if err := validateLines(items); err != nil {
		return database.Order{}, err
	}

	var updated database.Order
	err := runInTx(ctx, s.pool, "append items", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr("get order", err)
		}
		if order.OrderType != enum.OrderTypeDineIn || !hasTable(order) || order.Status != enum.OrderStatusOpen {
			return ErrInvalidState
		}

		lines := make([]database.OrderLine, 0, len(order.Items)+len(items))
		lines = append(lines, order.Items...)
		lines = append(lines, items...)

		updated, err = store.UpdateOrderItems(ctx, database.UpdateOrderItemsParams{
			ID:       order.ID,
			Items:    lines,
			Subtotal: database.DecimalToNumeric(Subtotal(lines)),
		})
		if err != nil {
			return fmt.Errorf("update items: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.Order{}, err
	}
	s.publish(ctx, events.OrderItemsAdded, updated)
	return updated, nil
}

// CloseOrder reconciles the stored items against the submitted total and,
// on an exact match, closes the order with its payment information.
func (s *OrderService) CloseOrder(ctx context.Context, orderID uuid.UUID, req CloseOrderRequest) (database.Order, error) {
	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return database.Order{}, ErrInvalidPaymentMethod
	}
	if req.Discount.IsNegative() {
		return database.Order{}, ErrInvalidDiscount
	}

	var closed database.Order
	err := runInTx(ctx, s.pool, "close order", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr("get order", err)
		}
		if order.Status != enum.OrderStatusOpen {
			return ErrInvalidState
		}

		rec := Reconcile(order.Items, req.Discount, s.taxRate)
		if !rec.Matches(req.Total) {
			return fmt.Errorf("%w: expected %s, got %s", ErrTotalMismatch,
				rec.ExpectedTotal.StringFixed(2), req.Total.StringFixed(2))
		}

		closed, err = store.CloseOrder(ctx, database.CloseOrderParams{
			ID:            order.ID,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: enum.PaymentStatusPaid,
			Subtotal:      database.DecimalToNumeric(rec.Subtotal),
			Discount:      database.DecimalToNumeric(req.Discount),
			Taxes:         database.DecimalToNumeric(rec.Taxes),
			Total:         database.DecimalToNumeric(rec.ExpectedTotal),
			ClosedAt:      s.now(),
		})
		if err != nil {
			return notFoundOr("close order", err)
		}
		return nil
	})
	if err != nil {
		return database.Order{}, err
	}
	s.publish(ctx, events.OrderClosed, closed)
	return closed, nil
}

// UpdateOrder applies an administrative correction without lifecycle checks.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID uuid.UUID, patch OrderPatch) (database.Order, error) {
	if patch.Status != nil && !enum.IsValidOrderStatus(*patch.Status) {
		return database.Order{}, ErrInvalidStatus
	}
	if patch.PaymentStatus != nil && *patch.PaymentStatus != "" && !enum.IsValidPaymentStatus(*patch.PaymentStatus) {
		return database.Order{}, ErrInvalidStatus
	}
	if patch.PaymentMethod != nil && *patch.PaymentMethod != "" && !enum.IsValidPaymentMethod(*patch.PaymentMethod) {
		return database.Order{}, ErrInvalidPaymentMethod
	}
	if patch.Items != nil {
		if err := validateLines(*patch.Items); err != nil {
			return database.Order{}, err
		}
	}
	if patch.Subtotal != nil && patch.Subtotal.IsNegative() {
		return database.Order{}, ErrInvalidSubtotal
	}

	var updated database.Order
	err := runInTx(ctx, s.pool, "update order", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr("get order", err)
		}

		params := database.UpdateOrderParams{
			ID:            order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			TableNumber:   order.TableNumber,
			Items:         order.Items,
			Subtotal:      order.Subtotal,
			Contact:       order.Contact,
			PaymentMethod: order.PaymentMethod,
		}
		if patch.Status != nil {
			params.Status = *patch.Status
		}
		if patch.PaymentStatus != nil {
			params.PaymentStatus = optionalText(*patch.PaymentStatus)
		}
		if patch.Table != nil {
			params.TableNumber = optionalText(strings.TrimSpace(*patch.Table))
		}
		if patch.Items != nil {
			params.Items = *patch.Items
		}
		if patch.Subtotal != nil {
			params.Subtotal = database.DecimalToNumeric(*patch.Subtotal)
		}
		if patch.Contact != nil {
			params.Contact = patch.Contact
		}
		if patch.PaymentMethod != nil {
			params.PaymentMethod = optionalText(*patch.PaymentMethod)
		}
		if order.OrderType == enum.OrderTypeDineIn && !params.TableNumber.Valid {
			return ErrTableRequired
		}

		updated, err = store.UpdateOrder(ctx, params)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.Order{}, err
	}
	s.publish(ctx, events.OrderUpdated, updated)
	return updated, nil
}

// DeleteOrders removes the given orders in one transaction.
// Unknown ids do not fail the batch; they are reported as Missing.
func (s *OrderService) DeleteOrders(ctx context.Context, ids []uuid.UUID) (*DeleteOrdersResult, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil, ErrNoOrderIDs
	}

	var result *DeleteOrdersResult
	err := runInTx(ctx, s.pool, "delete orders", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		result = &DeleteOrdersResult{Deleted: []uuid.UUID{}, Missing: []uuid.UUID{}}
		for _, id := range ids {
			n, err := store.DeleteOrder(ctx, id)
			if err != nil {
				return fmt.Errorf("delete order %s: %w", id, err)
			}
			if n == 0 {
				result.Missing = append(result.Missing, id)
				continue
			}
			result.Deleted = append(result.Deleted, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range result.Deleted {
		s.publish(ctx, events.OrderDeleted, database.Order{ID: id})
	}
	return result, nil
}

// ListOpenOrders returns every OPEN order, oldest first.
func (s *OrderService) ListOpenOrders(ctx context.Context) ([]OrderSummary, error) {
	orders, err := s.store.ListOpenOrders(ctx)
	if err != nil {
		return nil, unavailable("list open orders", err)
	}
	return summarize(orders), nil
}

// ListOrdersInRange returns orders created within [start, end], both inclusive.
func (s *OrderService) ListOrdersInRange(ctx context.Context, start, end time.Time) ([]OrderSummary, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	orders, err := s.store.ListOrdersInRange(ctx, s.timeRange(start, end))
	if err != nil {
		return nil, unavailable("list orders in range", err)
	}
	return summarize(orders), nil
}

// GetOrder returns the full order record.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrNotFound
		}
		return database.Order{}, unavailable("get order", err)
	}
	return order, nil
}

// GetDineInOrder returns an order that guests may look up by id.
// Only dine-in orders with a table qualify.
func (s *OrderService) GetDineInOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return database.Order{}, err
	}
	if order.OrderType != enum.OrderTypeDineIn || !hasTable(order) {
		return database.Order{}, ErrInvalidState
	}
	return order, nil
}

// --- Helpers ---

func (s *OrderService) partition(t time.Time) string {
	return t.In(s.loc).Format(dateLayout)
}

func (s *OrderService) timeRange(start, end time.Time) database.TimeRangeParams {
	return database.TimeRangeParams{
		Start:     start,
		End:       end,
		StartDate: s.partition(start),
		EndDate:   s.partition(end),
	}
}

// publish is best effort: the write has already committed.
func (s *OrderService) publish(ctx context.Context, eventType string, o database.Order) {
	e := events.OrderEvent{
		Type:      eventType,
		OrderID:   o.ID,
		OrderType: o.OrderType,
		Table:     o.TableNumber.String,
		Status:    o.Status,
		At:        s.now(),
	}
	if o.Total.Valid {
		e.Total = database.NumericToDecimal(o.Total).StringFixed(2)
	}
	if err := s.events.Publish(ctx, e); err != nil {
		zap.S().Warnw("publish order event", "type", eventType, "order_id", o.ID, "error", err)
	}
}

func validateLines(lines []database.OrderLine) error {
	if len(lines) == 0 {
		return ErrEmptyItems
	}
	for i, l := range lines {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("item[%d]: %w", i, ErrNameRequired)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if l.Price.IsNegative() {
			return fmt.Errorf("item[%d]: %w", i, ErrInvalidPrice)
		}
	}
	return nil
}

func hasTable(o database.Order) bool {
	return o.TableNumber.Valid && o.TableNumber.String != ""
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func summarize(orders []database.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderSummary{
			ID:        o.ID,
			CreatedAt: o.CreatedAt,
			Items:     o.Items,
			SenderID:  o.SenderID.String,
			Status:    o.Status,
			Table:     o.TableNumber.String,
		})
	}
	return out
}
