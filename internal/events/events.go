package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Order event types.
const (
	OrderCreated    = "order.created"
	OrderItemsAdded = "order.items_added"
	OrderClosed     = "order.closed"
	OrderUpdated    = "order.updated"
	OrderDeleted    = "order.deleted"
)

// OrderEvent is emitted after an order write has committed.
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   uuid.UUID `json:"order_id"`
	OrderType string    `json:"order_type,omitempty"`
	Table     string    `json:"table,omitempty"`
	Status    string    `json:"status,omitempty"`
	Total     string    `json:"total,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers order events to an outside audience.
type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// Multi fans an event out to every publisher. All publishers are attempted;
// their errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e OrderEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }
