// Package notify delivers "new match" events to users.
//
// Delivery is best-effort: callers log and count failures, they never fail
// the swipe because of them.
package notify

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/oggyb/h1bee-match/internal/cache"
	"github.com/oggyb/h1bee-match/internal/config"
)

// EventNewMatch is the event type carried by every match notification.
const EventNewMatch = "new_match"

// UserSummary is the public card of a user inside a notification.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Bio   string `json:"bio"`
}

// MatchPayload is delivered to the user who did not make the final swipe.
// User is the person they matched with; Recipient is themselves.
type MatchPayload struct {
	MatchID        string      `json:"matchId"`
	ConversationID string      `json:"conversationId"`
	User           UserSummary `json:"user"`
	Recipient      UserSummary `json:"recipient"`
}

// Envelope wraps a payload for the wire.
type Envelope struct {
	EventType  string       `json:"event_type"`
	UserID     string       `json:"user_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	TraceID    string       `json:"trace_id,omitempty"`
	Data       MatchPayload `json:"data"`
}

// Notifier sends match notifications to a single user.
type Notifier interface {
	NotifyMatch(ctx context.Context, userID string, payload MatchPayload) error
}

// New picks the notifier named by NOTIFY_DRIVER. The returned closer releases
// any connection the notifier holds.
func New(cfg *config.Config, redisCache *cache.RedisCache, logger *slog.Logger) (Notifier, io.Closer) {
	switch cfg.Notify.Driver {
	case "amqp":
		n := NewAMQPNotifier(cfg.Notify.AMQPURL, cfg.Notify.AMQPExchange, logger)
		return n, n
	case "none":
		return NewNoopNotifier(logger, "disabled by config"), nopCloser{}
	default:
		return NewRedisNotifier(redisCache, logger), nopCloser{}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Mode reports the notifier flavour for logging.
func Mode(n Notifier) string {
	switch v := n.(type) {
	case *RedisNotifier:
		return "redis"
	case *AMQPNotifier:
		if v.ch == nil {
			return "noop"
		}
		return "amqp"
	case *NoopNotifier:
		return "noop"
	default:
		return "unknown"
	}
}
