package crm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error codes surfaced to callers. Every rule violation carries the data the
// caller needs to render one specific corrective message.
const (
	CodeStageSkip              = "STAGE_SKIP"
	CodeTerminalStageLocked    = "TERMINAL_STAGE_LOCKED"
	CodeMandatoryFieldsMissing = "MANDATORY_FIELDS_MISSING"
	CodeLostReasonRequired     = "LOST_REASON_REQUIRED"
	CodeLostReasonNotAllowed   = "LOST_REASON_NOT_ALLOWED"
	CodeRollbackNotAllowed     = "ROLLBACK_NOT_ALLOWED"
	CodeRollbackReasonTooShort = "ROLLBACK_REASON_TOO_SHORT"
	CodeTransferBlocked        = "TRANSFER_BLOCKED"
	CodeCapacityExceeded       = "CAPACITY_EXCEEDED"
	CodeAgentInactive          = "AGENT_INACTIVE"
	CodeDuplicateLead          = "DUPLICATE_LEAD"
)

// Input rejection codes. Unlike the rule violations above these flag a
// malformed request, not a pipeline state the caller can correct.
const (
	CodeInvalidStage  = "INVALID_STAGE"
	CodeInvalidSource = "INVALID_SOURCE"
	CodeInvalidAmount = "INVALID_AMOUNT"
	CodeInvalidLead   = "INVALID_LEAD"
)

// StageSkipError is returned when a transition would skip over a stage.
// Both pipelines use it; stages are carried as strings.
type StageSkipError struct {
	Current string
	Target  string
}

func (e *StageSkipError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s: stages cannot be skipped", e.Current, e.Target)
}

// Code returns the machine-readable error code
func (e *StageSkipError) Code() string { return CodeStageSkip }

// TerminalStageLockedError is returned when an entity in a terminal stage is mutated
type TerminalStageLockedError struct {
	Stage string
}

func (e *TerminalStageLockedError) Error() string {
	return fmt.Sprintf("stage %s is terminal and cannot be changed", e.Stage)
}

func (e *TerminalStageLockedError) Code() string { return CodeTerminalStageLocked }

// MandatoryFieldsMissingError is returned when a transition target requires
// fields that are not yet populated. Non-fatal: the caller fills the fields
// and retries.
type MandatoryFieldsMissingError struct {
	Stage  LeadStage
	Fields []string
}

func (e *MandatoryFieldsMissingError) Error() string {
	return fmt.Sprintf("stage %s requires fields: %s", e.Stage, strings.Join(e.Fields, ", "))
}

func (e *MandatoryFieldsMissingError) Code() string { return CodeMandatoryFieldsMissing }

// LostReasonRequiredError is returned when a lead is moved to LOST without a reason
type LostReasonRequiredError struct{}

func (e *LostReasonRequiredError) Error() string {
	return "a lost reason is required when moving a lead to LOST"
}

func (e *LostReasonRequiredError) Code() string { return CodeLostReasonRequired }

// LostReasonNotAllowedError is returned when a lost reason accompanies a non-LOST target
type LostReasonNotAllowedError struct {
	Target LeadStage
}

func (e *LostReasonNotAllowedError) Error() string {
	return fmt.Sprintf("a lost reason is only valid when moving to LOST, not %s", e.Target)
}

func (e *LostReasonNotAllowedError) Code() string { return CodeLostReasonNotAllowed }

// RollbackNotAllowedError is returned when the current stage has no rollback predecessor
type RollbackNotAllowedError struct {
	Stage LeadStage
}

func (e *RollbackNotAllowedError) Error() string {
	return fmt.Sprintf("stage %s cannot be rolled back", e.Stage)
}

func (e *RollbackNotAllowedError) Code() string { return CodeRollbackNotAllowed }

// MinRollbackReasonLen is the minimum length of a rollback justification
const MinRollbackReasonLen = 10

// RollbackReasonTooShortError is returned when the rollback justification is too short
type RollbackReasonTooShortError struct {
	Reason string
}

func (e *RollbackReasonTooShortError) Error() string {
	return fmt.Sprintf("rollback reason must be at least %d characters, got %d", MinRollbackReasonLen, len(e.Reason))
}

func (e *RollbackReasonTooShortError) Code() string { return CodeRollbackReasonTooShort }

// TransferFailure identifies which transfer precondition failed.
// Exactly one is reported per attempt; evaluation order is fixed.
type TransferFailure string

const (
	TransferAlreadyTransferred TransferFailure = "already-transferred"
	TransferNotQualified       TransferFailure = "not-qualified"
	TransferScoreMissing       TransferFailure = "score-missing"
	TransferScoreBelowMinimum  TransferFailure = "score-below-threshold"
	TransferDomainMissing      TransferFailure = "domain-missing"
)

// TransferPreconditionError is returned when the transfer gate rejects a lead
type TransferPreconditionError struct {
	Kind   TransferFailure
	Detail string
}

func (e *TransferPreconditionError) Error() string {
	return fmt.Sprintf("transfer blocked (%s): %s", e.Kind, e.Detail)
}

func (e *TransferPreconditionError) Code() string { return CodeTransferBlocked }

// CapacityExceededError is returned when an agent's live lead count is at capacity
type CapacityExceededError struct {
	AgentID  uuid.UUID
	Current  int64
	MaxLeads int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("agent %s is at capacity: %d of %d leads assigned", e.AgentID, e.Current, e.MaxLeads)
}

func (e *CapacityExceededError) Code() string { return CodeCapacityExceeded }

// AgentInactiveError is returned when assigning to a deactivated agent
type AgentInactiveError struct {
	AgentID uuid.UUID
}

func (e *AgentInactiveError) Error() string {
	return fmt.Sprintf("agent %s is inactive and cannot receive leads", e.AgentID)
}

func (e *AgentInactiveError) Code() string { return CodeAgentInactive }

// DuplicateLeadError is returned when a lead with the same email or phone already exists
type DuplicateLeadError struct {
	Field      string
	ExistingID uuid.UUID
}

func (e *DuplicateLeadError) Error() string {
	return fmt.Sprintf("duplicate lead detected by %s, existing lead: %s", e.Field, e.ExistingID)
}

func (e *DuplicateLeadError) Code() string { return CodeDuplicateLead }
