package services

import (
	"fmt"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/validator"
)

// requireActor rejects calls without a complete identity. There is no
// default or anonymous caller.
func requireActor(v *validator.Validator, actor *models.Actor) error {
	if actor == nil {
		return ErrIdentityRequired
	}
	if err := v.Validate(actor); err != nil {
		return fmt.Errorf("%w: %w", ErrIdentityRequired, err)
	}
	return nil
}

// Students act only on their own assignments.
func canWorkOn(actor *models.Actor, assignment *models.HomeworkAssignment) bool {
	return actor.Role == models.RoleStudent && assignment.StudentID == actor.ID
}

// Staff manage homework of their own center.
func canManage(actor *models.Actor, centerID uint) bool {
	return actor.IsStaff() && actor.CenterID == centerID
}

// Parents have read-only access within their center.
func canView(actor *models.Actor, assignment *models.HomeworkAssignment) bool {
	switch actor.Role {
	case models.RoleStudent:
		return assignment.StudentID == actor.ID
	case models.RoleParent:
		return assignment.CenterID == actor.CenterID
	default:
		return canManage(actor, assignment.CenterID)
	}
}
