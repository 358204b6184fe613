package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RoutingKeyMatchCreated is the topic routing key for match events.
const RoutingKeyMatchCreated = "match.created"

// channel is the part of *amqp.Channel the notifier needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes match events on a topic exchange. When the broker
// is unreachable at startup it degrades to logging only.
type AMQPNotifier struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	reason   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewAMQPNotifier dials the broker and declares a durable topic exchange.
// An empty URL or any setup error yields a notifier in noop mode.
func NewAMQPNotifier(amqpURL, exchange string, logger *slog.Logger) *AMQPNotifier {
	n := &AMQPNotifier{exchange: exchange, logger: logger, now: time.Now}

	if amqpURL == "" {
		n.reason = "empty amqp url"
		logger.Warn("amqp notifier disabled, using noop", "reason", n.reason)
		return n
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		n.reason = err.Error()
		logger.Warn("amqp notifier disabled, using noop", "reason", n.reason)
		return n
	}

	ch, err := conn.Channel()
	if err != nil {
		n.reason = err.Error()
		logger.Warn("amqp notifier disabled, using noop", "reason", n.reason)
		_ = conn.Close()
		return n
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		n.reason = err.Error()
		logger.Warn("amqp notifier disabled, using noop", "reason", n.reason)
		_ = ch.Close()
		_ = conn.Close()
		return n
	}

	logger.Info("amqp notifier connected", "exchange", exchange)
	n.conn = conn
	n.ch = ch
	return n
}

func newAMQPNotifierWithChannel(ch channel, exchange string, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, exchange: exchange, logger: logger, now: time.Now}
}

func (n *AMQPNotifier) NotifyMatch(ctx context.Context, userID string, payload MatchPayload) error {
	env := newEnvelope(ctx, userID, payload, n.now())

	if n.ch == nil {
		n.logger.Info("amqp noop publish",
			"routing_key", RoutingKeyMatchCreated,
			"event_type", env.EventType,
			"user_id", userID,
			"reason", n.reason,
		)
		return nil
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal match event: %w", err)
	}

	headers := amqp.Table{"user_id": userID}
	if env.TraceID != "" {
		headers["trace_id"] = env.TraceID
	}

	err = n.ch.PublishWithContext(ctx, n.exchange, RoutingKeyMatchCreated, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    env.OccurredAt,
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
