package dto

import (
	"net/http"

	"github.com/leadpipe/backend/internal/domain/crm"
)

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when a well-formed request fails field validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeAdvisoryFailed is used when the scoring collaborator answered garbage
	ErrCodeAdvisoryFailed = "ERR_ADVISORY_FAILED"
)

// Resource error codes shared with the domain layer
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Domain rule
// violations are 422: the request was well-formed, the pipeline said no.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:        http.StatusInternalServerError,
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeAdvisoryFailed: http.StatusBadGateway,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	crm.CodeStageSkip:              http.StatusUnprocessableEntity,
	crm.CodeTerminalStageLocked:    http.StatusUnprocessableEntity,
	crm.CodeMandatoryFieldsMissing: http.StatusUnprocessableEntity,
	crm.CodeLostReasonRequired:     http.StatusUnprocessableEntity,
	crm.CodeLostReasonNotAllowed:   http.StatusUnprocessableEntity,
	crm.CodeRollbackNotAllowed:     http.StatusUnprocessableEntity,
	crm.CodeRollbackReasonTooShort: http.StatusUnprocessableEntity,
	crm.CodeTransferBlocked:        http.StatusUnprocessableEntity,
	crm.CodeCapacityExceeded:       http.StatusUnprocessableEntity,
	crm.CodeAgentInactive:          http.StatusUnprocessableEntity,
	crm.CodeDuplicateLead:          http.StatusConflict,

	crm.CodeInvalidStage:  http.StatusBadRequest,
	crm.CodeInvalidSource: http.StatusBadRequest,
	crm.CodeInvalidAmount: http.StatusBadRequest,
	crm.CodeInvalidLead:   http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
