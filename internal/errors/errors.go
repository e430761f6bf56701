package errors

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeMissingInput     = "missing_input"
	ErrCodeDatabase         = "database_error"
)

// Sentinels every error leaving a package should be marked with.
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrMissingInput     = new(ErrCodeMissingInput, "required input collection missing")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")
)

// kinds is checked in order, so an error marked with several sentinels
// resolves to the first listed.
var kinds = []struct {
	sentinel *InternalError
	status   int
}{
	{ErrMissingInput, http.StatusUnprocessableEntity},
	{ErrValidation, http.StatusBadRequest},
	{ErrInvalidOperation, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrDatabase, http.StatusInternalServerError},
	{ErrSystem, http.StatusInternalServerError},
}

const (
	detailsPrefix  = "__json__:"
	defaultDisplay = "An unexpected error occurred"
)

// InternalError is a sentinel carrying a machine readable code.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}
	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}
	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{Code: code, Message: message}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsMissingInput reports whether err names a structurally missing input table
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingInput)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// Code returns the code of the sentinel err is marked with, or
// ErrCodeSystemError for unmarked errors.
func Code(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.sentinel.Code
		}
	}
	return ErrCodeSystemError
}

func HTTPStatusFromErr(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the innermost non-empty hint of err.
func DisplayMessage(err error) string {
	// GetAllHints is a post-order traversal
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return defaultDisplay
}

// ReportableDetails merges every details map attached through
// ErrorBuilder.WithReportableDetails. Later keys win.
func ReportableDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			raw, ok := strings.CutPrefix(payload, detailsPrefix)
			if !ok {
				continue
			}
			var m map[string]any
			if json.Unmarshal([]byte(raw), &m) != nil {
				continue
			}
			for k, v := range m {
				details[k] = v
			}
		}
	}
	return details
}

// NewErrorResponse renders err the way API handlers return it.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    Code(err),
			Display: DisplayMessage(err),
			Details: ReportableDetails(err),
		},
	}
}
