package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/apperr"
)

type contact struct {
	Email *string `json:"email" validate:"omitempty,email"`
}

type sample struct {
	Name    string   `json:"name" validate:"required,min=2"`
	Age     int      `json:"age" validate:"gte=18,lte=100"`
	Tags    []string `json:"tags" validate:"required,min=1"`
	Contact *contact `json:"contactInfo"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	bad := "not-an-email"
	err := Struct(&sample{Name: "A", Age: 12, Contact: &contact{Email: &bad}})
	require.Error(t, err)

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, []string{
		"age must be greater than or equal to 18",
		"contactInfo.email must be a valid email address",
		"name must be at least 2",
		"tags is required",
	}, ae.Details)
}

func TestStructAcceptsValidInput(t *testing.T) {
	assert.NoError(t, Struct(&sample{Name: "Ann", Age: 30, Tags: []string{"x"}}))
}
