package crm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHistoryRecord_Kind(t *testing.T) {
	leadID := uuid.New()

	transition := NewTransitionRecord(HistoryEntityLead, leadID, "NEW", "CONTACTED", "alice")
	assert.Equal(t, HistoryKindTransition, transition.Kind())
	assert.Equal(t, "Transitioned to CONTACTED", transition.Reason)

	rollback := NewRollbackRecord(HistoryEntityLead, leadID, "QUALIFIED", "CONTACTED", "alice", "qualification data was wrong")
	assert.Equal(t, HistoryKindRollback, rollback.Kind())
	assert.Equal(t, "ROLLBACK: qualification data was wrong", rollback.Reason)

	touch := NewTouchRecord(HistoryEntityLead, leadID, "CONTACTED", "", "automated follow-up sent")
	assert.Equal(t, HistoryKindTouch, touch.Kind())
	assert.Equal(t, "CONTACTED", touch.OldStage)
	assert.Equal(t, "CONTACTED", touch.NewStage)
}

func TestHistoryRecord_DefaultsActor(t *testing.T) {
	record := NewTransitionRecord(HistoryEntitySale, uuid.New(), "NEW", "KYC", "")
	assert.Equal(t, "System", record.ChangedBy)

	record = NewTransitionRecord(HistoryEntitySale, uuid.New(), "NEW", "KYC", "bob")
	assert.Equal(t, "bob", record.ChangedBy)
}
