package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/homework-service/internal/errors"
)

var (
	ErrValidationFailed = errors.New("validation failed")

	// Identity
	ErrIdentityRequired        = errors.New("caller identity is required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// Homework and answer keys
	ErrHomeworkNotFound      = errors.New("homework not found")
	ErrUnsupportedFormat     = errors.New("unsupported answer key format")
	ErrAnswerKeyNotAvailable = errors.New("answer key not available")

	// Assignments
	ErrAssignmentNotFound         = errors.New("assignment not found")
	ErrAssignmentAlreadySubmitted = errors.New("assignment already submitted")
	ErrStudentAnswerNotFound      = errors.New("student answer not found")
)

type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// Unwrap lets errors.Is match ErrInsufficientPermissions.
func (pe *PermissionError) Unwrap() error {
	return ErrInsufficientPermissions
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrHomeworkNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrStudentAnswerNotFound) ||
		errors.Is(err, ErrAnswerKeyNotAvailable)
}

// IsUnauthorized covers both a missing identity and a denied action
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrIdentityRequired) ||
		errors.Is(err, ErrInsufficientPermissions)
}

func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrUnsupportedFormat) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrAssignmentAlreadySubmitted)
}
