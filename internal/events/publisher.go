package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Remor1s/emerald/internal/order"
)

const (
	OrderCreatedQueue = "order.created"
	OrderPaidQueue    = "order.paid"
)

// Publisher emits order lifecycle events. Publishing is best-effort from
// the lifecycle service's perspective; a failed publish never fails the
// request that triggered it.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
	PublishOrderPaid(ctx context.Context, o *order.Order) error
}

type rabbitPublisher struct {
	ch *amqp.Channel
}

// MustDialRabbit connects to RabbitMQ or exits.
func MustDialRabbit(url string) *amqp.Connection {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("connect to RabbitMQ: %v", err)
	}
	return conn
}

func NewPublisher(conn *amqp.Connection) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, q := range []string{OrderCreatedQueue, OrderPaidQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &rabbitPublisher{ch: ch}, nil
}

func (p *rabbitPublisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	ev := OrderCreated{
		EventType:   "OrderCreated",
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		FinalAmount: o.FinalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderItem{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			Title:     it.Title,
			SKU:       it.SKU,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}
	return p.publishJSON(ctx, OrderCreatedQueue, body)
}

func (p *rabbitPublisher) PublishOrderPaid(ctx context.Context, o *order.Order) error {
	ev := OrderPaid{
		EventType: "OrderPaid",
		OrderID:   o.ID,
		UserID:    o.UserID,
		Timestamp: time.Now().UTC(),
	}
	if o.ProviderPaymentID != nil {
		ev.ProviderPaymentID = *o.ProviderPaymentID
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPaid: %w", err)
	}
	return p.publishJSON(ctx, OrderPaidQueue, body)
}

func (p *rabbitPublisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// NopPublisher is used when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *order.Order) error { return nil }
func (NopPublisher) PublishOrderPaid(context.Context, *order.Order) error    { return nil }
