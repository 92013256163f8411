package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidAccountName = fmt.Errorf("%w: invalid account name", ErrInvalidArgument)
	ErrInvalidDescription = fmt.Errorf("%w: invalid description", ErrInvalidArgument)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email format", ErrInvalidArgument)
	ErrPasswordTooWeak    = fmt.Errorf("%w: password does not meet requirements", ErrInvalidArgument)
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxDescriptionLength = 200
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // bcrypt input limit

	DefaultPageSize = 50
	MaxPageSize     = 1000

	// MaxPageOffset is the largest offset postgres accepts as an int4 parameter.
	MaxPageOffset = math.MaxInt32
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasNumber  = regexp.MustCompile(`[0-9]`)
)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))

	if n < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if n > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateDescription validates a transaction description. Empty is allowed.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	return nil
}

// ValidateDateRange requires start to be on or before end.
func ValidateDateRange(start, end time.Time) error {
	if start.After(end) {
		return ErrInvalidDateRange
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	if !hasUpper.MatchString(password) || !hasLower.MatchString(password) || !hasNumber.MatchString(password) {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// NormalizePagination clamps page parameters to sane bounds.
func NormalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	if offset > MaxPageOffset {
		offset = MaxPageOffset
	}

	return limit, offset
}
