package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// Mailer delivers verification codes. The default implementation only logs
// the code; a real SMTP mailer can be swapped in without touching the service.
type Mailer interface {
	SendVerificationCode(email, code string) error
}

// LogMailer writes verification codes to the log instead of sending mail
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

// SendVerificationCode logs the code
func (m *LogMailer) SendVerificationCode(email, code string) error {
	m.log.Info().Str("email", email).Str("code", code).Msg("Verification code issued")
	return nil
}

// Service orchestrates registration, verification and login
type Service struct {
	repo      *Repository
	mailer    Mailer
	jwtSecret []byte
	log       zerolog.Logger
}

// NewService creates a new user service
func NewService(repo *Repository, mailer Mailer, jwtSecret string, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		mailer:    mailer,
		jwtSecret: []byte(jwtSecret),
		log:       log.With().Str("service", "users").Logger(),
	}
}

// Register creates an unverified account and issues a verification code
func (s *Service) Register(username, email, password, riskTolerance string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if len(username) < 3 {
		return 0, fmt.Errorf("%w: username must be at least 3 characters", ErrInvalidInput)
	}
	if len(password) < 6 {
		return 0, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	if riskTolerance == "" {
		riskTolerance = "Medium"
	}
	if !riskTolerances[riskTolerance] {
		return 0, fmt.Errorf("%w: risk tolerance must be Low, Medium or High", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	code := uuid.New().String()
	id, err := s.repo.Create(&User{
		Username:         username,
		Email:            email,
		PasswordHash:     string(hash),
		RiskTolerance:    riskTolerance,
		VerificationCode: code,
	})
	if err != nil {
		return 0, err
	}

	if email != "" {
		if err := s.mailer.SendVerificationCode(email, code); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("Failed to send verification code")
		}
	}

	s.log.Info().Str("username", username).Int64("user_id", id).Msg("User registered")
	return id, nil
}

// Verify marks the account holding the code as verified
func (s *Service) Verify(code string) error {
	if code == "" {
		return ErrInvalidCode
	}

	user, err := s.repo.GetByCode(code)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCode
	}
	return s.repo.MarkVerified(user.ID)
}

// Login checks credentials and returns a signed session token. Unknown
// username and wrong password are indistinguishable to the caller.
func (s *Service) Login(username, password string) (string, error) {
	user, err := s.repo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredential
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredential
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns the user id it carries
func (s *Service) ParseToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredential
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, ErrInvalidCredential
	}

	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil || userID <= 0 {
		return 0, ErrInvalidCredential
	}
	return userID, nil
}
