package advisory

import (
	"strings"
	"testing"
	"time"

	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAnthropicScorerRequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicScorer("", "claude-sonnet-4-20250514", time.Minute, zap.NewNop())
	require.Error(t, err)

	scorer, err := NewAnthropicScorer("sk-test", "claude-sonnet-4-20250514", time.Minute, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, scorer)
}

func TestParseResult(t *testing.T) {
	t.Run("clean JSON", func(t *testing.T) {
		result, err := parseResult(`{"score": 0.72, "recommendation": "transfer_to_sales", "reason": "strong engagement"}`)
		require.NoError(t, err)
		assert.InDelta(t, 0.72, result.Score, 0.0001)
		assert.Equal(t, crm.RecommendTransfer, result.Recommendation)
		assert.Equal(t, "strong engagement", result.Reason)
	})

	t.Run("JSON wrapped in prose", func(t *testing.T) {
		text := "Here is my assessment:\n{\"score\": 0.4, \"recommendation\": \"continue_nurturing\", \"reason\": \"needs more touches\"}\nLet me know if you need more."
		result, err := parseResult(text)
		require.NoError(t, err)
		assert.InDelta(t, 0.4, result.Score, 0.0001)
		assert.Equal(t, crm.RecommendNurture, result.Recommendation)
	})

	t.Run("no JSON object", func(t *testing.T) {
		_, err := parseResult("I cannot rate this lead.")
		var malformed *crm.AdvisorMalformedError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Detail, "no JSON object")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := parseResult(`{"score": 0.5, "recommendation":`)
		var malformed *crm.AdvisorMalformedError
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("score out of range", func(t *testing.T) {
		_, err := parseResult(`{"score": 1.2, "recommendation": "transfer_to_sales", "reason": "x"}`)
		var malformed *crm.AdvisorMalformedError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Detail, "outside [0, 1]")
	})

	t.Run("unknown recommendation", func(t *testing.T) {
		_, err := parseResult(`{"score": 0.5, "recommendation": "buy_now", "reason": "x"}`)
		var malformed *crm.AdvisorMalformedError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Detail, "buy_now")
	})

	t.Run("boundary scores pass", func(t *testing.T) {
		for _, raw := range []string{
			`{"score": 0.0, "recommendation": "lost", "reason": "dead"}`,
			`{"score": 1.0, "recommendation": "transfer_to_sales", "reason": "perfect"}`,
		} {
			_, err := parseResult(raw)
			require.NoError(t, err)
		}
	})
}

func TestRenderPromptEmbedsFeatures(t *testing.T) {
	prompt, err := renderPrompt(crm.LeadFeatures{
		Source:       crm.LeadSourcePartner,
		Stage:        crm.LeadStageQualified,
		MessageCount: 4,
		HasEmail:     true,
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(prompt, `"PARTNER"`))
	assert.True(t, strings.Contains(prompt, `"QUALIFIED"`))
	assert.Contains(t, prompt, "Respond with ONLY a JSON object")
}
