package service

import "strings"

// Roles recognised by the grading core. Every operation receives the acting
// user explicitly; there is no ambient session state.
const (
	RoleLecturer = "lecturer"
	RoleStudent  = "student"
)

// Actor identifies the authenticated user invoking a core operation.
type Actor struct {
	ID   uint
	Role string
}

// CanGrade reports whether the actor holds grading authority.
func (a Actor) CanGrade() bool {
	return strings.EqualFold(a.Role, RoleLecturer)
}
