package model

// Role is the portal role carried in the auth token. The service only
// consumes the resolved role; identity and role resolution happen in
// the external auth collaborator.
type Role string

const (
	RoleStudent           Role = "student"
	RoleMentor            Role = "mentor"
	RoleCollegeAdmin      Role = "college_admin"
	RoleIncubationManager Role = "incubation_manager"
	RoleAdmin             Role = "admin"
)

// CollegeLevel reports whether the role may act on review-stage
// transitions (submitted, under_review and its outcomes).
func (r Role) CollegeLevel() bool {
	return r == RoleCollegeAdmin || r == RoleAdmin
}

// IncubationLevel reports whether the role may move ideas into and out
// of the nurture stage.
func (r Role) IncubationLevel() bool {
	return r == RoleIncubationManager || r == RoleAdmin
}
