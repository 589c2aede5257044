package domain

import "time"

// RoleName is the unique name of a role.
type RoleName string

const (
	RoleUser  RoleName = "user"
	RoleAdmin RoleName = "admin"
)

// IsValid reports whether r is one of the seeded roles.
func (r RoleName) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Role is a named permission grant. Users holding a role are loaded
// explicitly through the identity repository, never through this struct.
type Role struct {
	ID   int64    `json:"id"`
	Name RoleName `json:"name"`
}

// User is a registered account.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	Roles     []RoleName `json:"roles"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role RoleName) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
