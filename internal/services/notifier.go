package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

const AnalysisCompletedRoutingKey = "analysis.completed"

type AnalysisCompletedEvent struct {
	ResumeID         string    `json:"resumeId,omitempty"`
	OriginalFilename string    `json:"originalFilename"`
	ATSScore         int       `json:"atsScore"`
	MatchSummary     string    `json:"matchSummary"`
	Recommendations  int       `json:"recommendationCount"`
	CompletedAt      time.Time `json:"completedAt"`
}

type Notifier interface {
	AnalysisCompleted(ctx context.Context, event AnalysisCompletedEvent) error
	Close() error
}

// AMQPChannel is the part of *amqp.Channel the notifier needs.
type AMQPChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpNotifier struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       AMQPChannel
	exchange string
}

// DialNotifier connects to RabbitMQ and declares a durable topic exchange.
func DialNotifier(url, exchange string) (Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &amqpNotifier{conn: conn, ch: ch, exchange: exchange}, nil
}

func NewNotifier(ch AMQPChannel, exchange string) Notifier {
	return &amqpNotifier{ch: ch, exchange: exchange}
}

// AnalysisCompleted implements Notifier.
func (n *amqpNotifier) AnalysisCompleted(ctx context.Context, event AnalysisCompletedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	// amqp channels must not be used for concurrent publishing.
	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.ch.Publish(
		n.exchange,
		AnalysisCompletedRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.CompletedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (n *amqpNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
