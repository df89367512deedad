package notification

import (
	"context"

	"github.com/leadpipe/backend/internal/domain/crm"
	"go.uber.org/zap"
)

// LogNotifier is a Notifier that writes notifications to the structured
// log. It stands in for the messaging integration in environments where
// none is configured; delivery is fire-and-forget either way.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify writes the notification to the log. It never fails and never
// blocks on delivery.
func (n *LogNotifier) Notify(ctx context.Context, notification crm.Notification) {
	n.logger.Info("notification",
		zap.String("kind", string(notification.Kind)),
		zap.String("entity_id", notification.EntityID.String()),
		zap.String("message", notification.Message))
}

var _ crm.Notifier = (*LogNotifier)(nil)
