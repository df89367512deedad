package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleStage represents a stage in the sales pipeline
type SaleStage string

const (
	SaleStageNew       SaleStage = "NEW"
	SaleStageKYC       SaleStage = "KYC"
	SaleStageAgreement SaleStage = "AGREEMENT"
	SaleStagePaid      SaleStage = "PAID"
	SaleStageLost      SaleStage = "LOST"
)

// saleStageTransitions is the explicit allowed-next table for the sales
// pipeline. Unlike the lead pipeline, moving a sale to LOST requires no
// reason taxonomy.
var saleStageTransitions = map[SaleStage][]SaleStage{
	SaleStageNew:       {SaleStageKYC, SaleStageLost},
	SaleStageKYC:       {SaleStageAgreement, SaleStageLost},
	SaleStageAgreement: {SaleStagePaid, SaleStageLost},
	SaleStagePaid:      {},
	SaleStageLost:      {},
}

// IsValid checks if the stage is a known SaleStage
func (s SaleStage) IsValid() bool {
	_, ok := saleStageTransitions[s]
	return ok
}

// String returns the string representation of SaleStage
func (s SaleStage) String() string {
	return string(s)
}

// IsTerminal reports whether the stage permits no further transitions
func (s SaleStage) IsTerminal() bool {
	return s == SaleStagePaid || s == SaleStageLost
}

// CanTransitionTo checks if the stage can transition to the target stage
func (s SaleStage) CanTransitionTo(target SaleStage) bool {
	for _, next := range saleStageTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Sale represents a deal created from a transferred lead. Exactly one sale
// exists per transferred lead; only the transfer gate creates sales.
type Sale struct {
	shared.BaseAggregateRoot
	LeadID uuid.UUID
	Stage  SaleStage
	Amount *decimal.Decimal
	Notes  string
}

// NewSale creates a sale in stage NEW for a transferred lead
func NewSale(leadID uuid.UUID, amount *decimal.Decimal) (*Sale, error) {
	if leadID == uuid.Nil {
		return nil, shared.NewDomainError(CodeInvalidLead, "Sale must reference a lead")
	}
	if amount != nil && amount.IsNegative() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Sale amount cannot be negative")
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LeadID:            leadID,
		Stage:             SaleStageNew,
		Amount:            amount,
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))

	return sale, nil
}

// Transition moves the sale to the target stage. Moves must be exactly one
// step forward except LOST, which is reachable from any non-terminal stage.
// An optional amount update may accompany the transition.
func (s *Sale) Transition(target SaleStage, amount *decimal.Decimal) error {
	if s.Stage.IsTerminal() {
		return &TerminalStageLockedError{Stage: s.Stage.String()}
	}
	if !target.IsValid() {
		return shared.NewDomainError(CodeInvalidStage, "Unknown sale stage: "+target.String())
	}
	if !s.Stage.CanTransitionTo(target) {
		return &StageSkipError{Current: s.Stage.String(), Target: target.String()}
	}
	if amount != nil && amount.IsNegative() {
		return shared.NewDomainError(CodeInvalidAmount, "Sale amount cannot be negative")
	}

	from := s.Stage
	s.Stage = target
	if amount != nil {
		s.Amount = amount
	}
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewSaleStageChangedEvent(s, from, target))
	if target == SaleStagePaid {
		s.AddDomainEvent(NewSalePaidEvent(s))
	}

	return nil
}

// SetNotes sets the sales-team notes
func (s *Sale) SetNotes(notes string) {
	s.Notes = notes
	s.UpdatedAt = time.Now()
}
