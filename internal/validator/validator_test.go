package validator

import (
	"testing"

	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/stretchr/testify/assert"
)

type runRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Limit int    `json:"limit" validate:"gte=0"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(runRequest{Date: "2024-11-22"}))

	err := ValidateRequest(runRequest{Date: "22-11-2024", Limit: -1})
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
