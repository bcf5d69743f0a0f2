/**
 * @description
 * This package provides a producer for publishing tool-invocation audit events
 * to RabbitMQ. Events describe which tool ran, for whom, and how it ended; they
 * never carry arguments, results or credentials.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// ToolInvokedRoutingKey is the routing key of ToolInvocationEvent messages.
const ToolInvokedRoutingKey = "tool.invoked"

// ToolInvocationEvent is published once per tool invocation.
type ToolInvocationEvent struct {
	InvocationID uuid.UUID `json:"invocation_id"`
	Tool         string    `json:"tool"`
	Caller       string    `json:"caller"`
	Outcome      string    `json:"outcome"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	StatusCode   int       `json:"status_code,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher is the interface implemented by types that can publish audit events.
type Publisher interface {
	PublishToolInvocation(ctx context.Context, event ToolInvocationEvent) error
	Close()
}

// EventProducerFallback is a no-op publisher used when RabbitMQ is not configured or unreachable.
type EventProducerFallback struct{}

func (p *EventProducerFallback) PublishToolInvocation(ctx context.Context, event ToolInvocationEvent) error {
	return nil
}

func (p *EventProducerFallback) Close() {}

// publishChannel is the part of *amqp091.Channel the producer uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	mu          sync.Mutex
	conn        *amqp091.Connection
	channel     publishChannel
	openChannel func() (publishChannel, error)
	exchange    string
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials RabbitMQ and declares the durable topic exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{
		conn:    conn,
		channel: ch,
		openChannel: func() (publishChannel, error) {
			next, err := conn.Channel()
			if err != nil {
				return nil, err
			}
			return next, nil
		},
		exchange: exchange,
	}, nil
}

// PublishToolInvocation publishes event with the tool.invoked routing key.
func (p *EventProducer) PublishToolInvocation(ctx context.Context, event ToolInvocationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp091.Publishing{
		ContentType: "application/json",
		MessageId:   event.InvocationID.String(),
		Timestamp:   time.Now(),
		Body:        body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		ch, chErr := p.openChannel()
		if chErr != nil {
			return chErr
		}
		p.channel = ch
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, ToolInvokedRoutingKey, false, false, msg)
	if err == nil {
		return nil
	}

	log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" exchange=%s routing_key=%s err=%v", p.exchange, ToolInvokedRoutingKey, err)
	if closeErr := p.channel.Close(); closeErr != nil && !errors.Is(closeErr, amqp091.ErrClosed) {
		log.Printf("level=warn component=rabbitmq_producer msg=\"failed to close stale channel\" err=%v", closeErr)
	}
	ch, chErr := p.openChannel()
	if chErr != nil {
		p.channel = nil
		return chErr
	}
	p.channel = ch
	return p.channel.PublishWithContext(ctx, p.exchange, ToolInvokedRoutingKey, false, false, msg)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
