package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"guardians/internal/domain"
	"guardians/internal/logger"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// RoutingKeyAttemptCompleted is published once per graded attempt.
	RoutingKeyAttemptCompleted = "attempt.completed"

	publishTimeout = 5 * time.Second
)

// AMQPPublisher publishes quiz events to a topic exchange. A publisher
// built with an empty URL is disabled and drops every event.
type AMQPPublisher struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	enabled      bool
}

// NewAMQPPublisher dials the broker and declares a durable topic exchange.
func NewAMQPPublisher(url, exchangeName string) (*AMQPPublisher, error) {
	if url == "" {
		logger.Get().Warn("AMQP URL is empty, event publishing is disabled")
		return &AMQPPublisher{exchangeName: exchangeName}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchangeName, err)
	}

	return &AMQPPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		enabled:      true,
	}, nil
}

// Enabled reports whether events actually leave the process.
func (p *AMQPPublisher) Enabled() bool {
	return p.enabled
}

func newPublishing(payload any, now time.Time) (amqp091.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	if !p.enabled {
		logger.Get().Debug("event publishing disabled, skipping", zap.String("routingKey", routingKey))
		return nil
	}

	msg, err := newPublishing(payload, time.Now().UTC())
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(pubCtx, p.exchangeName, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	logger.Get().Debug("published event", zap.String("routingKey", routingKey))
	return nil
}

// PublishAttemptCompleted implements domain.EventPublisher.
func (p *AMQPPublisher) PublishAttemptCompleted(ctx context.Context, evt domain.AttemptCompletedEvent) error {
	return p.publish(ctx, RoutingKeyAttemptCompleted, evt)
}

// Close shuts the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logger.Get().Warn("failed to close AMQP channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
