package domain

import (
	"errors"
	"strings"
	"time"
)

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrEmailTaken = errors.New("email already registered")
var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrUserNotFound = errors.New("user not found")
var ErrTokenExpired = errors.New("reset token expired")
var ErrTokenInvalid = errors.New("reset token invalid")
var ErrPasswordTooShort = errors.New("password too short")

// MinPasswordLength applies to new passwords on reset; it is checked before
// the reset token is verified.
const MinPasswordLength = 8

// NormalizeEmail lower-cases and trims an address. Every email entering the
// system goes through this before lookup or storage, so the unique
// constraint on users.email is case-insensitive in practice.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
