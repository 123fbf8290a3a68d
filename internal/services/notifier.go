package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
)

// AnalysisEvent is published on every status change of a queued analysis.
type AnalysisEvent struct {
	AnalysisID  string                `json:"analysis_id"`
	Status      models.AnalysisStatus `json:"status"`
	Attempt     int                   `json:"attempt,omitempty"`
	FailedStage string                `json:"failed_stage,omitempty"`
	Error       string                `json:"error,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
}

type Notifier interface {
	Publish(ctx context.Context, event AnalysisEvent) error
	Close() error
}

type noopNotifier struct{}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Publish(context.Context, AnalysisEvent) error { return nil }
func (noopNotifier) Close() error                                 { return nil }

// amqpNotifier publishes to a topic exchange with routing key analysis.<id>.
type amqpNotifier struct {
	conn     *amqp.Connection
	exchange string
	mu       sync.Mutex
	log      *zap.Logger
}

func NewAMQPNotifier(url, exchange string, log *zap.Logger) (Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &amqpNotifier{
		conn:     conn,
		exchange: exchange,
		log:      logger.OrNop(log),
	}, nil
}

func (n *amqpNotifier) Publish(_ context.Context, event AnalysisEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal analysis event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	routingKey := fmt.Sprintf("analysis.%s", event.AnalysisID)

	if err := ch.Publish(
		n.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	n.log.Debug("analysis event published",
		zap.String(logger.FieldAnalysisID, event.AnalysisID),
		zap.String("status", string(event.Status)),
	)
	return nil
}

func (n *amqpNotifier) Close() error {
	return n.conn.Close()
}
