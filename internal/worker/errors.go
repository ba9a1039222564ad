package worker

import (
	"errors"

	"github.com/SAP-F-2025/homework-service/internal/services"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

var (
	errMalformedCommand = errors.New("malformed command")
	errUnknownCommand   = errors.New("unknown command")
)

// retryable reports whether redelivering the message could succeed.
func retryable(err error) bool {
	var recovered middleware.RecoveredPanicError
	switch {
	case errors.Is(err, errMalformedCommand), errors.Is(err, errUnknownCommand):
		return false
	case errors.As(err, &recovered):
		return false
	case services.IsValidation(err),
		services.IsUnauthorized(err),
		services.IsNotFound(err),
		services.IsConflict(err):
		return false
	default:
		return true
	}
}
