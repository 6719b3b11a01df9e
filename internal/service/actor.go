package service

// Roles recognised by the grading pipeline. Authentication itself is an
// external collaborator; services only see the resolved actor.
const (
	RoleEducator = "educator"
	RoleAdmin    = "admin"
	RoleStudent  = "student"
)

// Actor identifies the authenticated user a request acts on behalf of.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsEducator reports whether the actor holds the educator role.
func (a Actor) IsEducator() bool {
	return a.Role == RoleEducator
}

// IsStudent reports whether the actor holds the student role.
func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}
