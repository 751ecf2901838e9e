// Package messaging is the RabbitMQ adapter: connection lifecycle, the
// envelope wire format, and durable topic-based publish/subscribe with
// at-least-once delivery.
package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/config"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
)

// Client owns the AMQP connection and channel. It is built once in main and
// handed to every publisher and consumer; reconnects happen internally on
// connection loss, Close releases everything.
type Client struct {
	config    config.RabbitMQConfig
	logger    zerolog.Logger
	conn      *amqp.Connection
	channel   *amqp.Channel
	mu        sync.RWMutex
	isClosing bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewClient(cfg config.RabbitMQConfig, logger zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect dials with retry and declares the saga topology. Declarations are
// idempotent, so every (re)connect asserts the same durable topic exchanges.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for attempt := 1; attempt <= c.config.RetryCount; attempt++ {
		c.conn, err = amqp.Dial(c.config.URL())
		if err != nil {
			c.logger.Warn().Err(err).
				Int("attempt", attempt).
				Int("max_attempts", c.config.RetryCount).
				Msg("RabbitMQ connection failed")
			if attempt < c.config.RetryCount {
				time.Sleep(c.config.RetryDelay)
				continue
			}
			return fmt.Errorf("failed to connect to RabbitMQ: %v", err)
		}

		c.channel, err = c.conn.Channel()
		if err != nil {
			c.conn.Close()
			return fmt.Errorf("failed to open RabbitMQ channel: %v", err)
		}

		if err := c.declareTopology(); err != nil {
			c.channel.Close()
			c.conn.Close()
			return err
		}

		c.logger.Info().Str("host", c.config.Host).Msg("connected to RabbitMQ")

		go c.handleReconnection()
		return nil
	}

	return err
}

func (c *Client) declareTopology() error {
	for _, exchange := range []string{events.ExchangeOrders, events.ExchangePayments} {
		err := c.channel.ExchangeDeclare(
			exchange, // name
			"topic",  // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange %s: %v", exchange, err)
		}
	}
	return nil
}

func (c *Client) handleReconnection() {
	notifyClose := make(chan *amqp.Error)
	c.conn.NotifyClose(notifyClose)

	select {
	case err := <-notifyClose:
		if c.closing() {
			return
		}
		c.logger.Warn().Err(err).Msg("RabbitMQ connection lost, reconnecting")
		time.Sleep(time.Second * 2)
		if reconnectErr := c.Connect(); reconnectErr != nil {
			c.logger.Error().Err(reconnectErr).Msg("RabbitMQ reconnect failed")
		}
	case <-c.ctx.Done():
	}
}

func (c *Client) closing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosing
}

func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosing {
		return nil
	}
	c.isClosing = true
	c.cancel()

	var closeErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			closeErr = fmt.Errorf("channel close error: %v", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; connection close error: %v", closeErr, err)
			} else {
				closeErr = fmt.Errorf("connection close error: %v", err)
			}
		}
	}

	if closeErr == nil {
		c.logger.Info().Msg("RabbitMQ connection closed")
	}
	return closeErr
}
