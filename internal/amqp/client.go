package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// RoutingKeyLedgerReplaced routes LedgerReplacedMessage from the exchange to
// the mirror queue.
const RoutingKeyLedgerReplaced = "ledger.replaced"

// Client publishes and consumes ledger events on one channel.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewClient dials url and declares the exchange and the mirror queue.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat:  10 * time.Second,
		Properties: amqp091.Table{"connection_name": "wealthnav"},
	})
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{conn: conn, channel: ch, exchangeName: exchangeName, queueName: queueName}
	if err := c.declare(); err != nil {
		c.Close()
		return nil, fmt.Errorf("declare ledger topology: %w", err)
	}
	return c, nil
}

// queueArgs keeps a single pending message: each one only says "resync", so
// older ones carry nothing the newest does not.
func queueArgs() amqp091.Table {
	return amqp091.Table{
		"x-max-length": int32(1),
		"x-overflow":   "drop-head",
	}
}

func (c *Client) declare() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange %s: %w", c.exchangeName, err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, queueArgs()); err != nil {
		return fmt.Errorf("queue %s: %w", c.queueName, err)
	}
	if err := c.channel.QueueBind(c.queueName, RoutingKeyLedgerReplaced, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", c.queueName, err)
	}
	// One unacked message at a time; a mirror run rewrites the whole sheet.
	return c.channel.Qos(1, 0, false)
}

// PublishLedgerReplaced implements services.LedgerPublisher.
func (c *Client) PublishLedgerReplaced(ctx context.Context, rows int) error {
	body, err := NewLedgerReplacedMessage(rows).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, RoutingKeyLedgerReplaced, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published ledger replaced message",
		"rows", rows,
		"exchange", c.exchangeName,
		"routing_key", RoutingKeyLedgerReplaced)
	return nil
}

// ConsumeLedgerReplaced delivers messages to handler until ctx is done.
// Failed or undecodable messages are dropped; the worker's periodic sync
// catches up.
func (c *Client) ConsumeLedgerReplaced(ctx context.Context, handler func(context.Context, *LedgerReplacedMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

// acknowledger is the subset of amqp091.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, d amqp091.Delivery, handler func(context.Context, *LedgerReplacedMessage) error) {
	settle(ctx, d.Body, d, handler)
}

func settle(ctx context.Context, body []byte, d acknowledger, handler func(context.Context, *LedgerReplacedMessage) error) {
	msg, err := LedgerReplacedMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = d.Nack(false, false) // reject and don't requeue
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle ledger message", "error", err, "rows", msg.Rows)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
	slog.DebugContext(ctx, "Processed ledger message", "rows", msg.Rows, "published_at", msg.Timestamp)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}