package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// LeadStage represents a stage in the cold-lead pipeline
type LeadStage string

const (
	LeadStageNew         LeadStage = "NEW"
	LeadStageContacted   LeadStage = "CONTACTED"
	LeadStageQualified   LeadStage = "QUALIFIED"
	LeadStageTransferred LeadStage = "TRANSFERRED"
	LeadStageLost        LeadStage = "LOST"
)

// leadStageTransitions is the explicit allowed-next table. LOST is reachable
// from every non-terminal stage; terminal stages have no successors.
var leadStageTransitions = map[LeadStage][]LeadStage{
	LeadStageNew:         {LeadStageContacted, LeadStageLost},
	LeadStageContacted:   {LeadStageQualified, LeadStageLost},
	LeadStageQualified:   {LeadStageTransferred, LeadStageLost},
	LeadStageTransferred: {},
	LeadStageLost:        {},
}

// leadStageRollbacks maps each stage to its rollback predecessor.
// Only the listed pairs are reversible.
var leadStageRollbacks = map[LeadStage]LeadStage{
	LeadStageContacted: LeadStageNew,
	LeadStageQualified: LeadStageContacted,
}

// IsValid checks if the stage is a known LeadStage
func (s LeadStage) IsValid() bool {
	_, ok := leadStageTransitions[s]
	return ok
}

// String returns the string representation of LeadStage
func (s LeadStage) String() string {
	return string(s)
}

// IsTerminal reports whether the stage permits no further transitions
func (s LeadStage) IsTerminal() bool {
	return s == LeadStageTransferred || s == LeadStageLost
}

// CanTransitionTo checks if the stage can transition to the target stage
func (s LeadStage) CanTransitionTo(target LeadStage) bool {
	for _, next := range leadStageTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// RollbackTarget returns the rollback predecessor of the stage, if any
func (s LeadStage) RollbackTarget() (LeadStage, bool) {
	target, ok := leadStageRollbacks[s]
	return target, ok
}

// LeadSource represents the origin of a lead
type LeadSource string

const (
	LeadSourceScanner LeadSource = "SCANNER"
	LeadSourcePartner LeadSource = "PARTNER"
	LeadSourceManual  LeadSource = "MANUAL"
)

// IsValid checks if the source is a known LeadSource
func (s LeadSource) IsValid() bool {
	switch s {
	case LeadSourceScanner, LeadSourcePartner, LeadSourceManual:
		return true
	}
	return false
}

// BusinessDomain represents a business domain category
type BusinessDomain string

const (
	BusinessDomainFirst  BusinessDomain = "FIRST"
	BusinessDomainSecond BusinessDomain = "SECOND"
	BusinessDomainThird  BusinessDomain = "THIRD"
)

// IsValid checks if the domain is a known BusinessDomain
func (d BusinessDomain) IsValid() bool {
	switch d {
	case BusinessDomainFirst, BusinessDomainSecond, BusinessDomainThird:
		return true
	}
	return false
}

// LostReason is the fixed taxonomy required when a lead moves to LOST
type LostReason string

const (
	LostReasonNoBudget       LostReason = "NO_BUDGET"
	LostReasonNoResponse     LostReason = "NO_RESPONSE"
	LostReasonCompetitor     LostReason = "COMPETITOR"
	LostReasonNotInterested  LostReason = "NOT_INTERESTED"
	LostReasonInvalidContact LostReason = "INVALID_CONTACT"
	LostReasonOther          LostReason = "OTHER"
)

// IsValid checks if the reason is part of the taxonomy
func (r LostReason) IsValid() bool {
	switch r {
	case LostReasonNoBudget, LostReasonNoResponse, LostReasonCompetitor,
		LostReasonNotInterested, LostReasonInvalidContact, LostReasonOther:
		return true
	}
	return false
}

// QualityTier buckets leads by advisory score for quick filtering
type QualityTier string

const (
	QualityTierHot  QualityTier = "HOT"  // score >= 0.8
	QualityTierWarm QualityTier = "WARM" // 0.6 <= score < 0.8
	QualityTierCold QualityTier = "COLD" // 0.3 <= score < 0.6
	QualityTierDead QualityTier = "DEAD" // score < 0.3
)

// TierForScore derives the quality tier from an advisory score
func TierForScore(score float64) QualityTier {
	switch {
	case score >= 0.8:
		return QualityTierHot
	case score >= 0.6:
		return QualityTierWarm
	case score >= 0.3:
		return QualityTierCold
	default:
		return QualityTierDead
	}
}

// Mandatory field names reported by the gating check
const (
	FieldFullName       = "full_name"
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldExternalHandle = "external_handle"
	FieldBusinessDomain = "business_domain"
	FieldAdvisoryScore  = "ai_score"
)

// Lead represents a cold lead moving through the qualification pipeline.
// It is the aggregate root for stage transitions, rollback, advisory
// analysis results and agent assignment.
type Lead struct {
	shared.BaseAggregateRoot
	Source         LeadSource
	Stage          LeadStage
	FullName       string
	Phone          string
	Email          string
	ExternalHandle string
	BusinessDomain BusinessDomain
	LostReason     *LostReason
	AssignedAgent  *uuid.UUID
	MessageCount   int

	// Advisory fields are set together by RecordAnalysis or not at all
	AIScore          *float64
	AIRecommendation Recommendation
	AIReason         string
	AIAnalyzedAt     *time.Time

	DeletedAt *time.Time
}

// NewLead creates a new lead in stage NEW
func NewLead(source LeadSource) (*Lead, error) {
	if !source.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidSource, "Lead source must be one of SCANNER, PARTNER, MANUAL")
	}

	lead := &Lead{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Source:            source,
		Stage:             LeadStageNew,
	}

	lead.AddDomainEvent(NewLeadCreatedEvent(lead))

	return lead, nil
}

// HasContact reports whether at least one contact channel is populated
func (l *Lead) HasContact() bool {
	return l.Phone != "" || l.Email != "" || l.ExternalHandle != ""
}

// HasAnalysis reports whether an advisory result has been recorded
func (l *Lead) HasAnalysis() bool {
	return l.AIScore != nil && l.AIAnalyzedAt != nil
}

// IsDeleted reports whether the lead is soft-deleted
func (l *Lead) IsDeleted() bool {
	return l.DeletedAt != nil
}

// QualityTier returns the quality tier derived from the recorded score,
// or nil when no analysis has been recorded
func (l *Lead) QualityTier() *QualityTier {
	if l.AIScore == nil {
		return nil
	}
	tier := TierForScore(*l.AIScore)
	return &tier
}

// missingFieldsFor returns the mandatory fields still unpopulated for a
// move into the target stage. Empty result means the gate passes.
func (l *Lead) missingFieldsFor(target LeadStage) []string {
	var missing []string

	switch target {
	case LeadStageContacted:
		if !l.HasContact() {
			missing = append(missing, FieldPhone, FieldEmail, FieldExternalHandle)
		}
	case LeadStageQualified:
		if l.FullName == "" {
			missing = append(missing, FieldFullName)
		}
		if l.BusinessDomain == "" {
			missing = append(missing, FieldBusinessDomain)
		}
		if !l.HasContact() {
			missing = append(missing, FieldPhone, FieldEmail, FieldExternalHandle)
		}
	case LeadStageTransferred:
		missing = l.missingFieldsFor(LeadStageQualified)
		if !l.HasAnalysis() {
			missing = append(missing, FieldAdvisoryScore)
		}
	}

	return missing
}

// Transition moves the lead to the target stage, enforcing ordering,
// terminal locks, the lost-reason taxonomy and mandatory-field gating.
// LOST is reachable from any non-terminal stage; every other move must be
// exactly one step forward.
func (l *Lead) Transition(target LeadStage, lostReason *LostReason) error {
	if l.Stage.IsTerminal() {
		return &TerminalStageLockedError{Stage: l.Stage.String()}
	}
	if !target.IsValid() {
		return shared.NewDomainError(CodeInvalidStage, "Unknown lead stage: "+target.String())
	}

	if target == LeadStageLost {
		if lostReason == nil || !lostReason.IsValid() {
			return &LostReasonRequiredError{}
		}
	} else {
		if lostReason != nil {
			return &LostReasonNotAllowedError{Target: target}
		}
		if !l.Stage.CanTransitionTo(target) {
			return &StageSkipError{Current: l.Stage.String(), Target: target.String()}
		}
	}

	if missing := l.missingFieldsFor(target); len(missing) > 0 {
		return &MandatoryFieldsMissingError{Stage: target, Fields: missing}
	}

	from := l.Stage
	l.Stage = target
	if target == LeadStageLost {
		l.LostReason = lostReason
	}
	l.UpdatedAt = time.Now()

	l.AddDomainEvent(NewLeadStageChangedEvent(l, from, target))

	return nil
}

// Rollback reverses the last forward step. Only CONTACTED→NEW and
// QUALIFIED→CONTACTED are reversible, and a justification of at least
// MinRollbackReasonLen characters is required.
func (l *Lead) Rollback(reason string) (LeadStage, error) {
	target, ok := l.Stage.RollbackTarget()
	if !ok {
		return "", &RollbackNotAllowedError{Stage: l.Stage}
	}
	if len(reason) < MinRollbackReasonLen {
		return "", &RollbackReasonTooShortError{Reason: reason}
	}

	from := l.Stage
	l.Stage = target
	l.UpdatedAt = time.Now()

	l.AddDomainEvent(NewLeadRolledBackEvent(l, from, target, reason))

	return target, nil
}

// RecordAnalysis persists an advisory result on the lead. The four advisory
// fields are always written together. Recording never changes the stage and
// never creates a sale; the transfer gate reads the stored score later.
func (l *Lead) RecordAnalysis(score float64, recommendation Recommendation, reason string) error {
	if score < 0 || score > 1 {
		return shared.NewDomainError("INVALID_SCORE", "Advisory score must be within [0, 1]")
	}
	if !recommendation.IsValid() {
		return shared.NewDomainError("INVALID_RECOMMENDATION", "Unknown advisory recommendation: "+string(recommendation))
	}

	now := time.Now()
	l.AIScore = &score
	l.AIRecommendation = recommendation
	l.AIReason = reason
	l.AIAnalyzedAt = &now
	l.UpdatedAt = now

	l.AddDomainEvent(NewLeadAnalysisRecordedEvent(l, score, recommendation))

	return nil
}

// AuthorizeTransfer evaluates the transfer gate preconditions in fixed
// order and returns the first failure. The boundary is inclusive: a score
// exactly equal to minScore passes. A staleness window may be supplied;
// zero means recorded scores never go stale.
func (l *Lead) AuthorizeTransfer(minScore float64, maxScoreAge time.Duration) *TransferPreconditionError {
	if l.Stage == LeadStageTransferred {
		return &TransferPreconditionError{
			Kind:   TransferAlreadyTransferred,
			Detail: "lead is already transferred to sales",
		}
	}
	if l.Stage != LeadStageQualified {
		return &TransferPreconditionError{
			Kind:   TransferNotQualified,
			Detail: "lead must be QUALIFIED before transfer, current stage: " + l.Stage.String(),
		}
	}
	if !l.HasAnalysis() {
		return &TransferPreconditionError{
			Kind:   TransferScoreMissing,
			Detail: "advisory analysis required before transfer",
		}
	}
	if maxScoreAge > 0 && time.Since(*l.AIAnalyzedAt) > maxScoreAge {
		return &TransferPreconditionError{
			Kind:   TransferScoreMissing,
			Detail: "recorded advisory score is stale, re-run analysis before transfer",
		}
	}
	if *l.AIScore < minScore {
		return &TransferPreconditionError{
			Kind:   TransferScoreBelowMinimum,
			Detail: "advisory score is below the configured minimum",
		}
	}
	if l.BusinessDomain == "" {
		return &TransferPreconditionError{
			Kind:   TransferDomainMissing,
			Detail: "lead must have a business domain set before transfer",
		}
	}
	return nil
}

// MarkTransferred flips the lead into TRANSFERRED after the gate has
// passed. Callers must run AuthorizeTransfer first.
func (l *Lead) MarkTransferred() {
	from := l.Stage
	l.Stage = LeadStageTransferred
	l.UpdatedAt = time.Now()
	l.AddDomainEvent(NewLeadStageChangedEvent(l, from, LeadStageTransferred))
}

// Assign sets the assigned agent
func (l *Lead) Assign(agentID uuid.UUID) {
	l.AssignedAgent = &agentID
	l.UpdatedAt = time.Now()
	l.AddDomainEvent(NewLeadAssignedEvent(l, agentID))
}

// Unassign clears the assigned agent
func (l *Lead) Unassign() {
	l.AssignedAgent = nil
	l.UpdatedAt = time.Now()
}

// IncrementMessages increases the activity counter. The counter only grows.
func (l *Lead) IncrementMessages(n int) error {
	if n <= 0 {
		return shared.NewDomainError("INVALID_INCREMENT", "Message count can only increase")
	}
	l.MessageCount += n
	l.UpdatedAt = time.Now()
	return nil
}

// SoftDelete marks the lead as deleted without removing it
func (l *Lead) SoftDelete() {
	now := time.Now()
	l.DeletedAt = &now
	l.UpdatedAt = now
}
