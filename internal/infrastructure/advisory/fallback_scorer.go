package advisory

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/leadpipe/backend/internal/domain/crm"
)

// FallbackScorer is the deterministic rule-based scorer used when the
// remote advisor is unavailable. The same features always produce the same
// score, so the system degrades gracefully instead of failing analysis.
type FallbackScorer struct{}

// NewFallbackScorer creates a new rule-based fallback scorer
func NewFallbackScorer() *FallbackScorer {
	return &FallbackScorer{}
}

var sourceWeights = map[crm.LeadSource]float64{
	crm.LeadSourcePartner: 0.30,
	crm.LeadSourceScanner: 0.20,
	crm.LeadSourceManual:  0.10,
}

var stageWeights = map[crm.LeadStage]float64{
	crm.LeadStageQualified: 0.20,
	crm.LeadStageContacted: 0.10,
}

// Score computes a quality score from weighted signals: source, message
// activity, contact completeness, business domain and pipeline stage
func (s *FallbackScorer) Score(ctx context.Context, features crm.LeadFeatures) (crm.AdvisoryResult, error) {
	score := 0.0
	var signals []string

	srcWeight, ok := sourceWeights[features.Source]
	if !ok {
		srcWeight = 0.10
	}
	score += srcWeight
	signals = append(signals, fmt.Sprintf("source=%s(+%.2f)", features.Source, srcWeight))

	switch {
	case features.MessageCount >= 10:
		score += 0.25
		signals = append(signals, "high-activity")
	case features.MessageCount >= 5:
		score += 0.15
		signals = append(signals, "medium-activity")
	case features.MessageCount >= 2:
		score += 0.08
		signals = append(signals, "low-activity")
	}

	contacts := 0
	for _, has := range []bool{features.HasPhone, features.HasEmail, features.HasExternalHandle} {
		if has {
			contacts++
		}
	}
	switch {
	case contacts >= 2:
		score += 0.15
		signals = append(signals, "full-contact")
	case contacts == 1:
		score += 0.07
		signals = append(signals, "partial-contact")
	}

	if features.BusinessDomain != "" {
		score += 0.15
		signals = append(signals, "domain-set")
	}

	if stgWeight := stageWeights[features.Stage]; stgWeight > 0 {
		score += stgWeight
		signals = append(signals, fmt.Sprintf("stage=%s(+%.2f)", features.Stage, stgWeight))
	}

	score = math.Round(math.Min(score, 1.0)*1000) / 1000

	var recommendation crm.Recommendation
	switch {
	case score >= 0.6:
		recommendation = crm.RecommendTransfer
	case score >= 0.3:
		recommendation = crm.RecommendNurture
	default:
		recommendation = crm.RecommendLost
	}

	return crm.AdvisoryResult{
		Score:          score,
		Recommendation: recommendation,
		Reason: fmt.Sprintf("[RULE-BASED / ADVISOR OFFLINE] Signals: %s. Score: %.2f.",
			strings.Join(signals, ", "), score),
	}, nil
}

var _ crm.AdvisoryPort = (*FallbackScorer)(nil)
