package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("test_field", "test message", "test_value")

	assert.Equal(t, "test_field", err.Field)
	assert.Equal(t, "test message", err.Message)
	assert.Equal(t, "test_value", err.Value)
	assert.Equal(t, "validation error on field 'test_field': test message", err.Error())
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("field1", "message1", nil))
	assert.Equal(t, "validation failed: field1 message1", errs.Error())

	errs = append(errs, *NewValidationError("field2", "message2", nil))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

func TestToValidationErrors(t *testing.T) {
	type submission struct {
		AssignmentID uint              `validate:"required"`
		Answers      map[string]string `validate:"min=1"`
	}

	err := validator.New().Struct(submission{Answers: map[string]string{}})
	require.Error(t, err)

	errs := ToValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "AssignmentID", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
	assert.Equal(t, "required", errs[0].Rule)
	assert.Equal(t, "must be at least 1", errs[1].Message)

	assert.Empty(t, ToValidationErrors(assert.AnError))
}

func TestToValidationErrors_CustomRules(t *testing.T) {
	type upload struct {
		Format string `validate:"answer_key_format"`
	}

	v := validator.New()
	require.NoError(t, v.RegisterValidation("answer_key_format", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "csv"
	}))

	errs := ToValidationErrors(v.Struct(upload{Format: "pdf"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "must be csv or xlsx", errs[0].Message)
	assert.Equal(t, "pdf", errs[0].Value)
	assert.Equal(t, "validation failed: Format must be csv or xlsx", errs.Error())
}
