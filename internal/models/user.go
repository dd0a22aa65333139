package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleTeacher    UserRole = "TEACHER"
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPERADMIN"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTeacher, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User is an application account stored in the users table. Teachers carry a
// set of assigned course IDs which scopes their visibility; admin and
// superadmin accounts always have an empty set.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	CourseIDs []int64 `db:"-" json:"course_ids"`
}
