package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange order events are published to.
// Routing keys are the event types, e.g. "order.closed".
const Exchange = "pos.orders"

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes order events with publisher confirms.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   amqpChannel
	acks <-chan amqp.Confirmation

	// mu guards tag, the delivery tag of the last message sent.
	mu  sync.Mutex
	tag uint64
}

// DialRabbit connects to url, declares the exchange and enables confirms.
func DialRabbit(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return &RabbitPublisher{conn: conn, ch: ch, acks: acks}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, e OrderEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, Exchange, e.Type, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    fmt.Sprintf("%s-%d", e.OrderID, e.At.UnixNano()),
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"x-source": "pos-api"},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	p.tag++

	if p.acks == nil {
		return nil
	}
	return p.awaitConfirm(ctx, p.tag)
}

// awaitConfirm waits for the confirmation of tag, discarding late
// confirmations left behind by earlier publishes that gave up waiting.
func (p *RabbitPublisher) awaitConfirm(ctx context.Context, tag uint64) error {
	for {
		select {
		case conf, ok := <-p.acks:
			if !ok {
				return errors.New("confirm channel closed")
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if conf.Ack {
				return nil
			}
			return fmt.Errorf("publish NACK from broker for delivery %d", tag)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
