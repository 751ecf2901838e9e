package messaging

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/metrics"
)

// EventPublisher is the capability services depend on to emit saga events.
type EventPublisher interface {
	Publish(exchange, routingKey string, payload interface{}) error
}

type Publisher struct {
	client *Client
	logger zerolog.Logger
}

func NewPublisher(client *Client, logger zerolog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish wraps the payload in an envelope with a fresh messageId and emits
// it as a persistent message on the topic exchange.
func (p *Publisher) Publish(exchange, routingKey string, payload interface{}) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("no RabbitMQ connection")
	}

	body, meta, err := Wrap(payload, Metadata{})
	if err != nil {
		return err
	}

	err = p.client.Channel().Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    meta.MessageID,
			Timestamp:    time.UnixMilli(meta.Timestamp),
		},
	)
	if err != nil {
		return fmt.Errorf("publish error (%s/%s): %v", exchange, routingKey, err)
	}

	metrics.MessagesPublished.WithLabelValues(exchange, routingKey).Inc()
	p.logger.Debug().
		Str("exchange", exchange).
		Str("routing_key", routingKey).
		Str("message_id", meta.MessageID).
		Msg("event published")
	return nil
}
