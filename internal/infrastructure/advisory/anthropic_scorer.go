package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/leadpipe/backend/internal/domain/crm"
	"go.uber.org/zap"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
)

// AnthropicScorer implements AdvisoryPort against the Anthropic messages
// API. Transient failures (network, 429, 5xx) surface as
// AdvisorUnavailableError so callers can fall back to the rule-based
// scorer; responses that arrive but cannot be interpreted surface as
// AdvisorMalformedError and are never silently retried into a fallback.
type AnthropicScorer struct {
	client  anthropic.Client
	model   anthropic.Model
	timeout time.Duration
	logger  *zap.Logger
}

// NewAnthropicScorer creates a new Anthropic-backed scorer
func NewAnthropicScorer(apiKey, model string, timeout time.Duration, logger *zap.Logger) (*AnthropicScorer, error) {
	if apiKey == "" {
		return nil, errors.New("advisory API key required")
	}
	return &AnthropicScorer{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   anthropic.Model(model),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Score asks the model to rate the lead's transfer readiness
func (s *AnthropicScorer) Score(ctx context.Context, features crm.LeadFeatures) (crm.AdvisoryResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	prompt, err := renderPrompt(features)
	if err != nil {
		return crm.AdvisoryResult{}, err
	}

	text, err := s.callWithRetry(ctx, prompt)
	if err != nil {
		return crm.AdvisoryResult{}, err
	}

	return parseResult(text)
}

func (s *AnthropicScorer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", &crm.AdvisorUnavailableError{Cause: ctx.Err()}
			}
		}

		message, err := s.client.Messages.New(ctx, params)
		if err == nil {
			if len(message.Content) == 0 {
				return "", &crm.AdvisorMalformedError{Detail: "response has no content blocks"}
			}
			content := message.Content[0]
			if content.Type != "text" {
				return "", &crm.AdvisorMalformedError{Detail: "response is not a text block, got " + string(content.Type)}
			}
			return content.Text, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", &crm.AdvisorUnavailableError{Cause: ctx.Err()}
		}
		if !isRetryable(err) {
			return "", &crm.AdvisorUnavailableError{Cause: err}
		}
		s.logger.Warn("advisory call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return "", &crm.AdvisorUnavailableError{
		Cause: fmt.Errorf("failed after %d attempts: %w", maxRetries+1, lastErr),
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}

func renderPrompt(features crm.LeadFeatures) (string, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(scorePromptTemplate, payload), nil
}

// parseResult extracts the JSON verdict from the model's reply. Anything
// that deviates from the contract is malformed, never unavailable.
func parseResult(text string) (crm.AdvisoryResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return crm.AdvisoryResult{}, &crm.AdvisorMalformedError{Detail: "no JSON object in response"}
	}

	var result crm.AdvisoryResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return crm.AdvisoryResult{}, &crm.AdvisorMalformedError{Detail: "invalid JSON: " + err.Error()}
	}
	if result.Score < 0 || result.Score > 1 {
		return crm.AdvisoryResult{}, &crm.AdvisorMalformedError{
			Detail: fmt.Sprintf("score %.3f outside [0, 1]", result.Score),
		}
	}
	if !result.Recommendation.IsValid() {
		return crm.AdvisoryResult{}, &crm.AdvisorMalformedError{
			Detail: "unknown recommendation: " + string(result.Recommendation),
		}
	}
	return result, nil
}

const scorePromptTemplate = `You are a lead qualification analyst for a B2B sales pipeline.
Rate how ready this cold lead is to be handed to the sales team.

Lead signals (JSON):
%s

Respond with ONLY a JSON object in exactly this shape, no prose around it:
{"score": <float 0.0-1.0>, "recommendation": "<transfer_to_sales|continue_nurturing|lost>", "reason": "<one sentence>"}`

var _ crm.AdvisoryPort = (*AnthropicScorer)(nil)
