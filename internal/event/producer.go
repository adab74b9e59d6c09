// Package event publishes basket lifecycle events to Kafka.
package event

import (
	"context"
	"fmt"

	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/pkg/kafka"
	"github.com/ecomkit/basket/pkg/logger"
)

const source = "basket-service"

// Topics the basket service publishes to.
const (
	TopicBasketUpdated       = "basket.updated"
	TopicOrderCreated        = "order.created"
	TopicSubscriptionCreated = "subscription.created"
)

// publisher abstracts the Kafka producer for tests.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Producer publishes basket, order and subscription events. It implements
// the basket core's EventPublisher.
type Producer struct {
	producer publisher
}

// NewProducer wraps a Kafka producer.
func NewProducer(producer publisher) *Producer {
	return &Producer{producer: producer}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	event, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		event.WithCorrelationID(correlationID)
	}
	return p.producer.Publish(ctx, topic, event)
}

// BasketUpdated announces a persisted basket change.
func (p *Producer) BasketUpdated(ctx context.Context, basket *domain.Basket) error {
	return p.publish(ctx, TopicBasketUpdated, "basket.updated", basket.ID, "basket", basket)
}

// OrderCreated announces a finalized order.
func (p *Producer) OrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, "order.created", order.ID, "order", order)
}

// subscriptionPayload is the subscription.created event body.
type subscriptionPayload struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	ProductID   string          `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Interval    string          `json:"interval"`
	Item        domain.LineItem `json:"item"`
}

// SubscriptionCreated announces a subscribable line item of a finalized
// order, identified by its interval attribute.
func (p *Producer) SubscriptionCreated(ctx context.Context, order *domain.Order, item domain.LineItem, interval string) error {
	payload := subscriptionPayload{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		ProductID:   item.ProductID,
		ProductCode: item.Code,
		Interval:    interval,
		Item:        item,
	}
	return p.publish(ctx, TopicSubscriptionCreated, "subscription.created", order.ID, "subscription", payload)
}
