package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestBuilder_MarksSentinel(t *testing.T) {
	err := NewError("required tables missing").
		WithHint("Transactions must be supplied").
		WithReportableDetails(map[string]any{"missing_tables": []string{"transactions"}}).
		Mark(ErrMissingInput)

	assert.True(t, IsMissingInput(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusFromErr(err))
	assert.Contains(t, errors.FlattenHints(err), "Transactions must be supplied")
}

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: NewError("bad").Mark(ErrValidation), want: http.StatusBadRequest},
		{name: "not_found", err: NewError("gone").Mark(ErrNotFound), want: http.StatusNotFound},
		{name: "database", err: WithError(errors.New("conn reset")).Mark(ErrDatabase), want: http.StatusInternalServerError},
		{name: "unmarked", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, ErrCodeMissingInput, Code(NewError("x").Mark(ErrMissingInput)))
	assert.Equal(t, ErrCodeNotFound, Code(NewError("x").Mark(ErrNotFound)))
	assert.Equal(t, ErrCodeSystemError, Code(errors.New("boom")))
}

func TestNewErrorResponse(t *testing.T) {
	err := NewError("bad date").
		WithHint("Date must be formatted as YYYY-MM-DD").
		WithReportableDetails(map[string]any{"date": "22-01-2024"}).
		Mark(ErrValidation)

	resp := NewErrorResponse(err)
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Date must be formatted as YYYY-MM-DD", resp.Error.Display)
	assert.Equal(t, map[string]any{"date": "22-01-2024"}, resp.Error.Details)
}

func TestDisplayMessage_NoHint(t *testing.T) {
	assert.Equal(t, defaultDisplay, DisplayMessage(errors.New("boom")))
	assert.Empty(t, ReportableDetails(errors.New("boom")))
}
