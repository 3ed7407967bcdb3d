package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/multierr"

	"auctionbook/internal/logger"
	"auctionbook/internal/models"
)

// RoutingKeyAll binds a queue to every auction event.
const RoutingKeyAll = "auction.#"

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	mu       sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// topic exchange that auction events are published to.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := newClient(ch, cfg.Exchange)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn

	logger.Info("RabbitMQ client connected", map[string]any{"exchange": c.exchange})
	return c, nil
}

func newClient(ch channel, exchange string) (*Client, error) {
	if exchange == "" {
		exchange = "auctions"
	}
	err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Client{channel: ch, exchange: exchange}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errs
}

// PublishAuctionEvent publishes event to the exchange with the event type
// as routing key.
func (c *Client) PublishAuctionEvent(ctx context.Context, event models.AuctionEvent) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal auction event: %w", err)
	}

	c.mu.Lock()
	err = c.channel.Publish(
		c.exchange,
		string(event.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         string(event.Type),
		})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish auction event: %w", err)
	}

	logger.Debug("auction event published", map[string]any{
		"event":      string(event.Type),
		"auction_id": event.AuctionID,
	})
	return nil
}

// ConsumeAuctionEvents binds queue to the exchange with bindingKey and hands
// every decoded event to handler until ctx is done or the channel closes.
// Messages the handler fails on are requeued once and then dropped;
// undecodable messages are dropped.
func (c *Client) ConsumeAuctionEvents(ctx context.Context, queue, bindingKey string, handler func(models.AuctionEvent) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}
	if bindingKey == "" {
		bindingKey = RoutingKeyAll
	}

	q, err := c.channel.QueueDeclare(
		queue,
		queue != "", // durable when named
		queue == "", // auto-delete when anonymous
		queue == "", // exclusive when anonymous
		false,       // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}
	if err := c.channel.QueueBind(q.Name, bindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}

	msgs, err := c.channel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Info("waiting for auction events", map[string]any{"queue": q.Name, "binding": bindingKey})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			handleDelivery(msg, handler)
		}
	}
}

func handleDelivery(msg amqp.Delivery, handler func(models.AuctionEvent) error) {
	var event models.AuctionEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.Warn("dropping undecodable auction event", map[string]any{
			"delivery_tag": msg.DeliveryTag,
			"error":        err.Error(),
		})
		if nackErr := msg.Nack(false, false); nackErr != nil {
			logger.Error("failed to nack message", map[string]any{"delivery_tag": msg.DeliveryTag, "error": nackErr.Error()})
		}
		return
	}

	if err := handler(event); err != nil {
		logger.Warn("auction event handler failed", map[string]any{
			"delivery_tag": msg.DeliveryTag,
			"event":        string(event.Type),
			"error":        err.Error(),
		})
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			logger.Error("failed to nack message", map[string]any{"delivery_tag": msg.DeliveryTag, "error": nackErr.Error()})
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		logger.Error("failed to ack message", map[string]any{"delivery_tag": msg.DeliveryTag, "error": ackErr.Error()})
	}
}
