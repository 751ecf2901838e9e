package messaging

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/metrics"
)

// claimTTL is how long a processed messageId stays claimed: 30 days.
const claimTTL = 30 * 24 * time.Hour

// Handler receives the bare payload with the envelope metadata already
// stripped off.
type Handler func(ctx context.Context, payload []byte, meta Metadata) error

// ClaimStore provides atomic claim-once semantics per messageId. A false
// return means another delivery of the same message already claimed it.
type ClaimStore interface {
	Claim(ctx context.Context, messageID string, ttl time.Duration) bool
}

type SubscribeOptions struct {
	Exchange   string
	RoutingKey string
	Prefetch   int  // in-flight messages per queue, 0 means 1
	Idempotent bool // consult the claim store before the handler
}

type disposition int

const (
	dispositionAck disposition = iota
	dispositionReject
)

type Consumer struct {
	client *Client
	guard  ClaimStore
	logger zerolog.Logger
}

func NewConsumer(client *Client, guard ClaimStore, logger zerolog.Logger) *Consumer {
	return &Consumer{client: client, guard: guard, logger: logger}
}

// Subscribe binds a durable queue to a topic exchange and feeds deliveries to
// the handler one at a time (per the prefetch window). Failed messages are
// rejected without requeue: one attempt, then the broker drops them. That is
// the delivery contract of this system, not an accident.
func (c *Consumer) Subscribe(queue string, opts SubscribeOptions, handler Handler) error {
	if !c.client.IsConnected() {
		return errNotConnected
	}

	channel := c.client.Channel()

	prefetch := opts.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := channel.Qos(prefetch, 0, false); err != nil {
		return wrapSubscribeErr("qos", queue, err)
	}

	declared, err := channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return wrapSubscribeErr("queue declare", queue, err)
	}

	if err := channel.QueueBind(declared.Name, opts.RoutingKey, opts.Exchange, false, nil); err != nil {
		return wrapSubscribeErr("queue bind", queue, err)
	}

	deliveries, err := channel.Consume(
		declared.Name, // queue
		queue,         // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return wrapSubscribeErr("consume", queue, err)
	}

	c.logger.Info().
		Str("queue", queue).
		Str("exchange", opts.Exchange).
		Str("routing_key", opts.RoutingKey).
		Bool("idempotent", opts.Idempotent).
		Msg("consumer started")

	go func() {
		for {
			select {
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				switch c.dispatch(c.client.ctx, queue, delivery.Body, opts, handler) {
				case dispositionAck:
					delivery.Ack(false)
				case dispositionReject:
					delivery.Nack(false, false)
				}
			case <-c.client.ctx.Done():
				c.logger.Info().Str("queue", queue).Msg("consumer stopped")
				return
			}
		}
	}()

	return nil
}

// dispatch decides the fate of one delivery. Separated from the AMQP loop so
// the ack/reject policy is testable without a broker.
func (c *Consumer) dispatch(ctx context.Context, queue string, body []byte, opts SubscribeOptions, handler Handler) disposition {
	payload, meta, err := Open(body)
	if err != nil {
		c.logger.Error().Err(err).Str("queue", queue).Msg("invalid envelope, rejecting")
		metrics.MessagesConsumed.WithLabelValues(queue, metrics.OutcomeInvalid).Inc()
		return dispositionReject
	}

	if opts.Idempotent && c.guard != nil {
		if !c.guard.Claim(ctx, meta.MessageID, claimTTL) {
			c.logger.Info().
				Str("queue", queue).
				Str("message_id", meta.MessageID).
				Msg("duplicate message, skipping handler")
			metrics.MessagesConsumed.WithLabelValues(queue, metrics.OutcomeDuplicate).Inc()
			return dispositionAck
		}
	}

	if err := handler(ctx, payload, meta); err != nil {
		c.logger.Error().Err(err).
			Str("queue", queue).
			Str("message_id", meta.MessageID).
			Msg("handler failed, rejecting without requeue")
		metrics.MessagesConsumed.WithLabelValues(queue, metrics.OutcomeRejected).Inc()
		return dispositionReject
	}

	metrics.MessagesConsumed.WithLabelValues(queue, metrics.OutcomeOK).Inc()
	return dispositionAck
}
