package crm

import (
	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated      = "SaleCreated"
	EventTypeSaleStageChanged = "SaleStageChanged"
	EventTypeSalePaid         = "SalePaid"
)

// SaleCreatedEvent is raised when the transfer gate creates a sale
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID        `json:"sale_id"`
	LeadID uuid.UUID        `json:"lead_id"`
	Stage  SaleStage        `json:"stage"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		LeadID:          sale.LeadID,
		Stage:           sale.Stage,
		Amount:          sale.Amount,
	}
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// SaleStageChangedEvent is raised on every accepted sale transition
type SaleStageChangedEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID `json:"sale_id"`
	LeadID uuid.UUID `json:"lead_id"`
	From   SaleStage `json:"from"`
	To     SaleStage `json:"to"`
}

// NewSaleStageChangedEvent creates a new SaleStageChangedEvent
func NewSaleStageChangedEvent(sale *Sale, from, to SaleStage) *SaleStageChangedEvent {
	return &SaleStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleStageChanged, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		LeadID:          sale.LeadID,
		From:            from,
		To:              to,
	}
}

// EventType returns the event type name
func (e *SaleStageChangedEvent) EventType() string {
	return EventTypeSaleStageChanged
}

// SalePaidEvent is raised when a sale reaches PAID. It triggers the
// fire-and-forget revenue notification; delivery is never awaited.
type SalePaidEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID        `json:"sale_id"`
	LeadID uuid.UUID        `json:"lead_id"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// NewSalePaidEvent creates a new SalePaidEvent
func NewSalePaidEvent(sale *Sale) *SalePaidEvent {
	return &SalePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalePaid, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		LeadID:          sale.LeadID,
		Amount:          sale.Amount,
	}
}

// EventType returns the event type name
func (e *SalePaidEvent) EventType() string {
	return EventTypeSalePaid
}
