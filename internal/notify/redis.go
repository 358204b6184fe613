package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Publisher is the pub/sub half of the Redis cache.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// RedisNotifier fans events out on a per-user pub/sub channel. The realtime
// gateway subscribes to user:<id>:events and forwards to connected clients.
type RedisNotifier struct {
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisNotifier(pub Publisher, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{pub: pub, logger: logger, now: time.Now}
}

// ChannelForUser is the pub/sub channel of a user.
func ChannelForUser(userID string) string {
	return fmt.Sprintf("user:%s:events", userID)
}

func (n *RedisNotifier) NotifyMatch(ctx context.Context, userID string, payload MatchPayload) error {
	body, err := json.Marshal(newEnvelope(ctx, userID, payload, n.now()))
	if err != nil {
		return fmt.Errorf("marshal match event: %w", err)
	}

	receivers, err := n.pub.Publish(ctx, ChannelForUser(userID), body)
	if err != nil {
		return fmt.Errorf("publish match event: %w", err)
	}

	n.logger.Debug("match event published", "user_id", userID, "match_id", payload.MatchID, "receivers", receivers)
	return nil
}

func newEnvelope(ctx context.Context, userID string, payload MatchPayload, at time.Time) Envelope {
	env := Envelope{
		EventType:  EventNewMatch,
		UserID:     userID,
		OccurredAt: at.UTC(),
		Data:       payload,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		env.TraceID = sc.TraceID().String()
	}
	return env
}
