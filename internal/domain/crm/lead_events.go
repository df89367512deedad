package crm

import (
	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeLead = "Lead"

// Event type constants
const (
	EventTypeLeadCreated          = "LeadCreated"
	EventTypeLeadStageChanged     = "LeadStageChanged"
	EventTypeLeadRolledBack       = "LeadRolledBack"
	EventTypeLeadAnalysisRecorded = "LeadAnalysisRecorded"
	EventTypeLeadAssigned         = "LeadAssigned"
	EventTypeLeadOverdue          = "LeadOverdue"
)

// LeadCreatedEvent is raised when a new lead enters the pipeline
type LeadCreatedEvent struct {
	shared.BaseDomainEvent
	LeadID uuid.UUID  `json:"lead_id"`
	Source LeadSource `json:"source"`
	Stage  LeadStage  `json:"stage"`
}

// NewLeadCreatedEvent creates a new LeadCreatedEvent
func NewLeadCreatedEvent(lead *Lead) *LeadCreatedEvent {
	return &LeadCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadCreated, AggregateTypeLead, lead.ID),
		LeadID:          lead.ID,
		Source:          lead.Source,
		Stage:           lead.Stage,
	}
}

// EventType returns the event type name
func (e *LeadCreatedEvent) EventType() string {
	return EventTypeLeadCreated
}

// LeadStageChangedEvent is raised on every accepted forward transition
type LeadStageChangedEvent struct {
	shared.BaseDomainEvent
	LeadID     uuid.UUID   `json:"lead_id"`
	From       LeadStage   `json:"from"`
	To         LeadStage   `json:"to"`
	LostReason *LostReason `json:"lost_reason,omitempty"`
}

// NewLeadStageChangedEvent creates a new LeadStageChangedEvent
func NewLeadStageChangedEvent(lead *Lead, from, to LeadStage) *LeadStageChangedEvent {
	return &LeadStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadStageChanged, AggregateTypeLead, lead.ID),
		LeadID:          lead.ID,
		From:            from,
		To:              to,
		LostReason:      lead.LostReason,
	}
}

// EventType returns the event type name
func (e *LeadStageChangedEvent) EventType() string {
	return EventTypeLeadStageChanged
}

// LeadRolledBackEvent is raised when a lead is moved back to its predecessor stage
type LeadRolledBackEvent struct {
	shared.BaseDomainEvent
	LeadID uuid.UUID `json:"lead_id"`
	From   LeadStage `json:"from"`
	To     LeadStage `json:"to"`
	Reason string    `json:"reason"`
}

// NewLeadRolledBackEvent creates a new LeadRolledBackEvent
func NewLeadRolledBackEvent(lead *Lead, from, to LeadStage, reason string) *LeadRolledBackEvent {
	return &LeadRolledBackEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadRolledBack, AggregateTypeLead, lead.ID),
		LeadID:          lead.ID,
		From:            from,
		To:              to,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *LeadRolledBackEvent) EventType() string {
	return EventTypeLeadRolledBack
}

// LeadAnalysisRecordedEvent is raised when an advisory result is stored on a lead
type LeadAnalysisRecordedEvent struct {
	shared.BaseDomainEvent
	LeadID         uuid.UUID      `json:"lead_id"`
	Score          float64        `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
}

// NewLeadAnalysisRecordedEvent creates a new LeadAnalysisRecordedEvent
func NewLeadAnalysisRecordedEvent(lead *Lead, score float64, recommendation Recommendation) *LeadAnalysisRecordedEvent {
	return &LeadAnalysisRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadAnalysisRecorded, AggregateTypeLead, lead.ID),
		LeadID:          lead.ID,
		Score:           score,
		Recommendation:  recommendation,
	}
}

// EventType returns the event type name
func (e *LeadAnalysisRecordedEvent) EventType() string {
	return EventTypeLeadAnalysisRecorded
}

// LeadAssignedEvent is raised when a lead is assigned to an agent
type LeadAssignedEvent struct {
	shared.BaseDomainEvent
	LeadID  uuid.UUID `json:"lead_id"`
	AgentID uuid.UUID `json:"agent_id"`
}

// NewLeadAssignedEvent creates a new LeadAssignedEvent
func NewLeadAssignedEvent(lead *Lead, agentID uuid.UUID) *LeadAssignedEvent {
	return &LeadAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadAssigned, AggregateTypeLead, lead.ID),
		LeadID:          lead.ID,
		AgentID:         agentID,
	}
}

// EventType returns the event type name
func (e *LeadAssignedEvent) EventType() string {
	return EventTypeLeadAssigned
}

// LeadOverdueEvent is raised by the overdue scan for leads left unassigned too long
type LeadOverdueEvent struct {
	shared.BaseDomainEvent
	LeadID uuid.UUID `json:"lead_id"`
	Stage  LeadStage `json:"stage"`
}

// NewLeadOverdueEvent creates a new LeadOverdueEvent
func NewLeadOverdueEvent(lead *Lead) *LeadOverdueEvent {
	return &LeadOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadOverdue, AggregateTypeLead, lead.ID),
		LeadID:          lead.ID,
		Stage:           lead.Stage,
	}
}

// EventType returns the event type name
func (e *LeadOverdueEvent) EventType() string {
	return EventTypeLeadOverdue
}
