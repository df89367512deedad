package crm

import (
	"strings"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// HistoryEntityType identifies which pipeline a history record belongs to
type HistoryEntityType string

const (
	HistoryEntityLead HistoryEntityType = "lead"
	HistoryEntitySale HistoryEntityType = "sale"
)

// Reason tags distinguishing record kinds within the ledger
const (
	historyRollbackTag = "ROLLBACK: "
	historyNurtureTag  = "NURTURE: "
)

// HistoryKind classifies a ledger record by its reason tag
type HistoryKind string

const (
	HistoryKindTransition HistoryKind = "transition"
	HistoryKindRollback   HistoryKind = "rollback"
	HistoryKindTouch      HistoryKind = "touch"
)

// HistoryRecord is one immutable entry in the append-only ledger. Exactly
// one record is written per accepted mutation; records are never edited or
// deleted.
type HistoryRecord struct {
	shared.BaseEntity
	EntityType HistoryEntityType
	EntityID   uuid.UUID
	OldStage   string
	NewStage   string
	ChangedBy  string
	Reason     string
}

func newHistoryRecord(entityType HistoryEntityType, entityID uuid.UUID, oldStage, newStage, changedBy, reason string) *HistoryRecord {
	if changedBy == "" {
		changedBy = "System"
	}
	return &HistoryRecord{
		BaseEntity: shared.NewBaseEntity(),
		EntityType: entityType,
		EntityID:   entityID,
		OldStage:   oldStage,
		NewStage:   newStage,
		ChangedBy:  changedBy,
		Reason:     reason,
	}
}

// NewTransitionRecord records an accepted forward transition
func NewTransitionRecord(entityType HistoryEntityType, entityID uuid.UUID, oldStage, newStage, changedBy string) *HistoryRecord {
	return newHistoryRecord(entityType, entityID, oldStage, newStage, changedBy, "Transitioned to "+newStage)
}

// NewRollbackRecord records a rollback, tagged distinctly from forward
// transitions, with old/new stages swapped relative to normal flow
func NewRollbackRecord(entityType HistoryEntityType, entityID uuid.UUID, oldStage, newStage, changedBy, reason string) *HistoryRecord {
	return newHistoryRecord(entityType, entityID, oldStage, newStage, changedBy, historyRollbackTag+reason)
}

// NewTouchRecord records an event that did not change the stage, such as
// an automated nurture attempt
func NewTouchRecord(entityType HistoryEntityType, entityID uuid.UUID, stage, changedBy, reason string) *HistoryRecord {
	return newHistoryRecord(entityType, entityID, stage, stage, changedBy, historyNurtureTag+reason)
}

// Kind classifies the record by its reason tag
func (r *HistoryRecord) Kind() HistoryKind {
	switch {
	case strings.HasPrefix(r.Reason, historyRollbackTag):
		return HistoryKindRollback
	case strings.HasPrefix(r.Reason, historyNurtureTag):
		return HistoryKindTouch
	default:
		return HistoryKindTransition
	}
}
