package notify

import (
	"context"
	"log/slog"
)

// NoopNotifier only logs.
type NoopNotifier struct {
	logger *slog.Logger
	reason string
}

func NewNoopNotifier(logger *slog.Logger, reason string) *NoopNotifier {
	return &NoopNotifier{logger: logger, reason: reason}
}

func (n *NoopNotifier) NotifyMatch(_ context.Context, userID string, payload MatchPayload) error {
	n.logger.Debug("noop match notification", "user_id", userID, "match_id", payload.MatchID, "reason", n.reason)
	return nil
}
