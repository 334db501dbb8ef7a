// Package auth provides the optional identity layer: a Postgres users table,
// bcrypt password hashes and HS256 bearer tokens.
//
// The first account created becomes an admin; every later signup is a
// regular user. Admins may read operational endpoints such as cache stats.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	// ErrUserNotFound is returned by a UserStore lookup that matches nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrMissingCredentials is returned when signup or login lacks a field.
	ErrMissingCredentials = errors.New("missing parameter: email and password required")

	// ErrInvalidEmail is returned when signup receives a malformed address.
	ErrInvalidEmail = errors.New("invalid parameter: email")

	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("invalid parameter: password exceeds 72 bytes")

	// ErrInvalidToken is returned for a bearer token that fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden is returned when a principal lacks the required role.
	ErrForbidden = errors.New("admin only")
)

// User is a stored account.
type User struct {
	ID           uuid.UUID
	Email        string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// Principal returns the public view of u.
func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID.String(), Email: u.Email, Role: u.Role}
}

// Principal is an authenticated caller.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether p holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
