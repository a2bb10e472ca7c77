package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// OrderEventsQueue receives every order lifecycle event.
const OrderEventsQueue = "order_events"

// ErrNoChannel is returned when the client has no open channel.
var ErrNoChannel = errors.New("RabbitMQ channel is not available")

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
	// Queue defaults to OrderEventsQueue.
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the events queue.
func NewClient(cfg Config) (*Client, error) {
	queue := cfg.Queue
	if queue == "" {
		queue = OrderEventsQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected and %s declared.", queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   queue,
	}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a JSON event body to the events queue through the default exchange.
// The routing key travels in the message type and the "event" header.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	if c.channel == nil {
		return ErrNoChannel
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         routingKey,
			Headers:      amqp.Table{"event": routingKey},
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	log.Printf(" [x] Sent %s: %s", routingKey, body)
	return nil
}

// ConsumeOrderEvents starts a goroutine that feeds every delivery on the events queue to
// messageHandler. A nil result acks the message; an error nacks it without requeueing.
func (c *Client) ConsumeOrderEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return ErrNoChannel
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for order events on %s", c.queue)

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
				// Unparseable events would loop forever if requeued.
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
		log.Printf("Order event consumer on %s stopped", c.queue)
	}()

	return nil
}

// OrderMessage is the subset of an order event the consumer inspects.
type OrderMessage struct {
	Event   string  `json:"event"`
	OrderID string  `json:"orderId"`
	Status  string  `json:"status,omitempty"`
	Total   float64 `json:"total,omitempty"`
}

// HandleOrderMessage decodes and logs an order event.
func HandleOrderMessage(msg amqp.Delivery) error {
	var event OrderMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	if event.OrderID == "" {
		return errors.New("order event without orderId")
	}
	if event.Event == "" {
		event.Event = msg.Type
	}

	switch {
	case event.Status != "":
		log.Printf("Order %s: %s (status %s)", event.OrderID, event.Event, event.Status)
	default:
		log.Printf("Order %s: %s", event.OrderID, event.Event)
	}
	return nil
}
