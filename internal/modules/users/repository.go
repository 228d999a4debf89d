package users

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles user database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new user repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "users").Logger(),
	}
}

// Create inserts a new unverified user. Duplicate username/email surface as
// ErrUsernameTaken/ErrEmailTaken rather than raw constraint violations.
func (r *Repository) Create(u *User) (int64, error) {
	var existing int64
	err := r.db.QueryRow(`SELECT user_id FROM users WHERE username = ?`, u.Username).Scan(&existing)
	if err == nil {
		return 0, ErrUsernameTaken
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to check username: %w", err)
	}

	if u.Email != "" {
		err = r.db.QueryRow(`SELECT user_id FROM users WHERE email = ?`, u.Email).Scan(&existing)
		if err == nil {
			return 0, ErrEmailTaken
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("failed to check email: %w", err)
		}
	}

	res, err := r.db.Exec(
		`INSERT INTO users (username, email, password_hash, risk_tolerance, verification_code, verified)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, 0)`,
		u.Username, u.Email, u.PasswordHash, u.RiskTolerance, u.VerificationCode,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user id: %w", err)
	}
	return id, nil
}

// GetByUsername returns the user or nil when unknown
func (r *Repository) GetByUsername(username string) (*User, error) {
	return r.getOne(`WHERE username = ?`, username)
}

// GetByCode returns the user holding the verification code, nil when unknown
func (r *Repository) GetByCode(code string) (*User, error) {
	return r.getOne(`WHERE verification_code = ?`, code)
}

func (r *Repository) getOne(where string, arg interface{}) (*User, error) {
	var u User
	var email sql.NullString
	var verified int
	err := r.db.QueryRow(
		`SELECT user_id, username, email, password_hash, risk_tolerance,
		        COALESCE(verification_code, ''), verified, created_at
		 FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.RiskTolerance,
		&u.VerificationCode, &verified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Email = email.String
	u.Verified = verified != 0
	return &u, nil
}

// MarkVerified flips the verified flag and clears the verification code
func (r *Repository) MarkVerified(userID int64) error {
	_, err := r.db.Exec(
		`UPDATE users SET verified = 1, verification_code = NULL WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}
