package model

import "time"

// Roles understood by the API.  The role is a trusted string chosen by the
// client; there is no credential behind it.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an entry in the user directory.
//
// Fields:
//
//	ID        – unique identifier (seed users use short numeric ids, new users a UUID).
//	Email     – unique email address.
//	Name      – display name.
//	Role      – admin or user.
//	CreatedAt – creation timestamp.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleUser
}
