package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/homework-service/internal/errors"
	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps a go-playground validator with the homework tags registered
type Validator struct {
	structValidator *validator.Validate
}

func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags and returns the raw validator error
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}
	if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
		return errs
	}
	return err
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_key", validateQuestionKey)
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("answer_key_format", validateAnswerKeyFormat)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionKey(fl validator.FieldLevel) bool {
	_, _, err := grading.ParseQuestionKey(fl.Field().String())
	return err == nil
}

func validateQuestionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.TypeMultipleChoiceCheckbox, models.TypeFillBlankQuestion, models.TypeTimerSelector:
		return true
	default:
		return false
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleStudent,
		models.RoleTeacher,
		models.RoleAdmin,
		models.RoleParent,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func validateAnswerKeyFormat(fl validator.FieldLevel) bool {
	switch models.AnswerKeyFormat(fl.Field().String()) {
	case models.FormatCSV, models.FormatXLSX:
		return true
	default:
		return false
	}
}
