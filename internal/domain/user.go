package domain

// UserRole is the coarse permission level of a user.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleTeacher UserRole = "TEACHER"
	RoleAdmin   UserRole = "ADMIN"
)

// User is the acting identity as provisioned by the external ID provider.
// Authentication and the user store itself live outside this service.
type User struct {
	UID      string   `json:"uid"`
	Username string   `json:"username"`
	Nickname string   `json:"nickname,omitempty"`
	Role     UserRole `json:"role"`
}

// UserName is the resolvable display name of a user.
type UserName struct {
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
}

// Display renders the name as shown in teacher lists.
func (n UserName) Display() string {
	if n.Nickname != "" {
		return n.Username + " (" + n.Nickname + ")"
	}
	return n.Username
}
