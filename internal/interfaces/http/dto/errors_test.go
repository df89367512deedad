package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeAdvisoryFailed, http.StatusBadGateway},
		{crm.CodeStageSkip, http.StatusUnprocessableEntity},
		{crm.CodeTransferBlocked, http.StatusUnprocessableEntity},
		{crm.CodeDuplicateLead, http.StatusConflict},
		{crm.CodeInvalidStage, http.StatusBadRequest},
		{crm.CodeInvalidSource, http.StatusBadRequest},
		{crm.CodeInvalidAmount, http.StatusBadRequest},
		{crm.CodeInvalidLead, http.StatusBadRequest},
		{"SOMETHING_NOBODY_MAPPED", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GetHTTPStatus(tc.code), tc.code)
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Lead not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Lead not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "email", Message: "Invalid email format"},
		{Field: "max_leads", Message: "Must be at least 1"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "email", resp.Error.Details[0].Field)
}

func TestErrorResponseJSONShape(t *testing.T) {
	resp := NewErrorResponse(ErrCodeInternal, "boom")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	assert.NotContains(t, decoded, "meta")

	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, errObj, "request_id")
	assert.NotContains(t, errObj, "details")
}

func TestSuccessResponseWithMetaRoundsPagesUp(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 5, 1, 2)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
