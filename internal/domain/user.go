package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a user's authorization level.
type Role string

// Possible role values
const (
	RoleUser       Role = "User"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

// ParseRole resolves s case-insensitively.
func ParseRole(s string) (Role, error) {
	key := normalizeEnum(s)
	for _, r := range []Role{RoleUser, RoleAdmin, RoleSuperAdmin} {
		if normalizeEnum(string(r)) == key {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// IsElevated reports whether r bypasses assignee scoping.
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is the minimal view of an account the engine needs: identity and role.
// Credentials live with the authentication collaborator.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewUser creates a User with the given email and role.
func NewUser(email string, role Role, now time.Time) (*User, error) {
	u := &User{
		ID:        uuid.New(),
		Email:     strings.TrimSpace(email),
		Role:      role,
		CreatedAt: now.UTC(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyID
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}

// Principal returns the caller identity for u.
func (u *User) Principal() *Principal {
	return &Principal{UserID: u.ID, Role: u.Role}
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// IsElevated reports whether the principal is an admin or super admin.
// A nil principal is never elevated.
func (p *Principal) IsElevated() bool {
	return p != nil && p.Role.IsElevated()
}
