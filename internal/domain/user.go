package domain

import (
	"fmt"
	"strings"
	"time"
)

// User is an account holder able to sign in.
type User struct {
	ID             string
	Email          string
	Name           string
	HashedPassword string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Credentials are the sign-in secrets a user re-enters for step-up checks.
type Credentials struct {
	Email    string
	Password string
}

// NormalizedEmail lowercases and trims the email for lookups.
func (c Credentials) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// Authentication errors
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInactiveUser       = fmt.Errorf("%w: user account is inactive", ErrUnauthorized)
	ErrCredentialMismatch = fmt.Errorf("%w: credentials do not belong to the caller", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrExpiredToken       = fmt.Errorf("%w: token has expired", ErrUnauthorized)
	ErrRevokedToken       = fmt.Errorf("%w: token has been revoked", ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("%w: user with this email already exists", ErrInvalidArgument)
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
)
