package crm

import (
	"context"

	"github.com/google/uuid"
)

// NotificationKind enumerates the events emitted to the notification
// collaborator
type NotificationKind string

const (
	NotifyLeadCreated      NotificationKind = "LEAD_CREATED"
	NotifyLeadStageChanged NotificationKind = "LEAD_STAGE_CHANGED"
	NotifySalePaid         NotificationKind = "SALE_PAID"
	NotifyLeadOverdue      NotificationKind = "LEAD_OVERDUE"
)

// Notification is a fire-and-forget message to the outside world
type Notification struct {
	Kind     NotificationKind
	EntityID uuid.UUID
	Message  string
}

// Notifier is the notification collaborator port. Implementations must not
// block the caller on delivery and must swallow delivery failures; no
// confirmation is ever awaited.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
