// Package users implements registration, login and email verification.
// Passwords are stored as bcrypt hashes; sessions are stateless JWTs.
package users

import "errors"

// User is an account row. PasswordHash never serializes.
type User struct {
	ID               int64  `json:"user_id"`
	Username         string `json:"username"`
	Email            string `json:"email,omitempty"`
	PasswordHash     string `json:"-"`
	RiskTolerance    string `json:"risk_tolerance"`
	VerificationCode string `json:"-"`
	Verified         bool   `json:"verified"`
	CreatedAt        string `json:"created_at"`
}

var (
	ErrUsernameTaken     = errors.New("users: username already taken")
	ErrEmailTaken        = errors.New("users: email already registered")
	ErrInvalidInput      = errors.New("users: invalid input")
	ErrInvalidCredential = errors.New("users: invalid username or password")
	ErrInvalidCode       = errors.New("users: invalid verification code")
)

// riskTolerances mirrors the CHECK constraint on the users table.
var riskTolerances = map[string]bool{
	"Low":    true,
	"Medium": true,
	"High":   true,
}
