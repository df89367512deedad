package crm

import (
	"context"
	"fmt"
)

// Recommendation is the advisory verdict accompanying a score
type Recommendation string

const (
	RecommendTransfer Recommendation = "transfer_to_sales"
	RecommendNurture  Recommendation = "continue_nurturing"
	RecommendLost     Recommendation = "lost"
)

// IsValid checks if the recommendation is a known value
func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendTransfer, RecommendNurture, RecommendLost:
		return true
	}
	return false
}

// LeadFeatures is the flattened input handed to the advisory collaborator.
// It carries signals only, never identity beyond what scoring needs.
type LeadFeatures struct {
	Source            LeadSource     `json:"source"`
	Stage             LeadStage      `json:"stage"`
	MessageCount      int            `json:"message_count"`
	HasPhone          bool           `json:"has_phone"`
	HasEmail          bool           `json:"has_email"`
	HasExternalHandle bool           `json:"has_external_handle"`
	HasFullName       bool           `json:"has_full_name"`
	BusinessDomain    BusinessDomain `json:"business_domain,omitempty"`
}

// BuildFeatures extracts scoring features from a lead
func BuildFeatures(lead *Lead) LeadFeatures {
	return LeadFeatures{
		Source:            lead.Source,
		Stage:             lead.Stage,
		MessageCount:      lead.MessageCount,
		HasPhone:          lead.Phone != "",
		HasEmail:          lead.Email != "",
		HasExternalHandle: lead.ExternalHandle != "",
		HasFullName:       lead.FullName != "",
		BusinessDomain:    lead.BusinessDomain,
	}
}

// AdvisoryResult is the scoring collaborator's output: a signal that
// informs but never executes the transfer decision.
type AdvisoryResult struct {
	Score          float64        `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason"`
}

// AdvisoryPort is the interface to the external scoring collaborator.
// It is invoked only by the explicit analyze operation, never by the
// transfer gate: the gate's critical section stays free of network I/O.
type AdvisoryPort interface {
	Score(ctx context.Context, features LeadFeatures) (AdvisoryResult, error)
}

// AdvisorUnavailableError signals a transient advisory failure. Callers
// distinguish it from rule violations and may fall back to the
// deterministic rule-based scorer.
type AdvisorUnavailableError struct {
	Cause error
}

func (e *AdvisorUnavailableError) Error() string {
	return fmt.Sprintf("advisory service unavailable: %v", e.Cause)
}

// Unwrap returns the underlying cause
func (e *AdvisorUnavailableError) Unwrap() error {
	return e.Cause
}

// AdvisorMalformedError signals that the advisory collaborator answered
// but its response could not be interpreted
type AdvisorMalformedError struct {
	Detail string
}

func (e *AdvisorMalformedError) Error() string {
	return "advisory response malformed: " + e.Detail
}
