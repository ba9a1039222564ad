package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
	RoleParent  UserRole = "parent"
)

// Actor is the authenticated caller. It is always supplied explicitly by the
// transport layer; there is no default identity.
type Actor struct {
	ID       uint     `json:"id" validate:"required"`
	Role     UserRole `json:"role" validate:"required,user_role"`
	CenterID uint     `json:"center_id" validate:"required"`
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleTeacher || a.Role == RoleAdmin
}
