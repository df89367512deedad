package notification

import (
	"context"
	"fmt"

	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// EventSubscriber translates domain events into outbound notifications.
// It subscribes to the event bus after commit, so a notification is only
// ever produced for state that was actually persisted.
type EventSubscriber struct {
	notifier crm.Notifier
}

// NewEventSubscriber creates a new notification event subscriber
func NewEventSubscriber(notifier crm.Notifier) *EventSubscriber {
	return &EventSubscriber{notifier: notifier}
}

// EventTypes returns the events that produce notifications
func (s *EventSubscriber) EventTypes() []string {
	return []string{
		crm.EventTypeLeadCreated,
		crm.EventTypeLeadStageChanged,
		crm.EventTypeLeadOverdue,
		crm.EventTypeSalePaid,
	}
}

// Handle maps a domain event to a notification. Unknown events are
// ignored; the notifier itself swallows delivery failures.
func (s *EventSubscriber) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *crm.LeadCreatedEvent:
		s.notifier.Notify(ctx, crm.Notification{
			Kind:     crm.NotifyLeadCreated,
			EntityID: e.LeadID,
			Message:  fmt.Sprintf("New %s lead entered the pipeline", e.Source),
		})
	case *crm.LeadStageChangedEvent:
		s.notifier.Notify(ctx, crm.Notification{
			Kind:     crm.NotifyLeadStageChanged,
			EntityID: e.LeadID,
			Message:  fmt.Sprintf("Lead moved from %s to %s", e.From, e.To),
		})
	case *crm.LeadOverdueEvent:
		s.notifier.Notify(ctx, crm.Notification{
			Kind:     crm.NotifyLeadOverdue,
			EntityID: e.LeadID,
			Message:  fmt.Sprintf("Lead in stage %s has waited too long for an agent", e.Stage),
		})
	case *crm.SalePaidEvent:
		message := "Sale completed"
		if e.Amount != nil {
			message = fmt.Sprintf("Sale completed, amount %s", e.Amount.StringFixed(2))
		}
		s.notifier.Notify(ctx, crm.Notification{
			Kind:     crm.NotifySalePaid,
			EntityID: e.SaleID,
			Message:  message,
		})
	}
	return nil
}

var _ shared.EventHandler = (*EventSubscriber)(nil)
