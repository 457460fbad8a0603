package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// Principal is the authenticated caller. Staff principals are scoped to one
// school and only see that school's projects; admins see everything.
type Principal struct {
	UserID   uuid.UUID
	SchoolID *uuid.UUID
	Role     Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal may read or write the project.
// An unscoped project is visible to everyone.
func (p Principal) CanAccess(project Project) bool {
	if p.IsAdmin() || p.SchoolID == nil || project.SchoolID == nil {
		return true
	}
	return *p.SchoolID == *project.SchoolID
}
