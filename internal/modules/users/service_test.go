package users

import (
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalanis/folio/internal/database"
)

type recordingMailer struct {
	email string
	code  string
}

func (m *recordingMailer) SendVerificationCode(email, code string) error {
	m.email = email
	m.code = code
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingMailer) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.FolioSchema)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	svc := NewService(NewRepository(db, zerolog.Nop()), mailer, "test-secret", zerolog.Nop())
	return svc, mailer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, mailer := newTestService(t)

	id, err := svc.Register("alice", "alice@example.com", "hunter22", "Medium")
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, "alice@example.com", mailer.email)
	assert.NotEmpty(t, mailer.code)

	token, err := svc.Login("alice", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, userID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("al", "", "hunter22", "Medium")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register("alice", "", "short", "Medium")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register("alice", "", "hunter22", "Reckless")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "hunter22", "Medium")
	require.NoError(t, err)

	_, err = svc.Register("alice", "other@example.com", "hunter22", "Medium")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "hunter22", "Medium")
	require.NoError(t, err)

	_, err = svc.Register("bob", "alice@example.com", "hunter22", "Medium")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "", "hunter22", "Medium")
	require.NoError(t, err)

	_, err = svc.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login("nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerify(t *testing.T) {
	svc, mailer := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "hunter22", "Medium")
	require.NoError(t, err)

	require.NoError(t, svc.Verify(mailer.code))

	// The code is single use.
	assert.ErrorIs(t, svc.Verify(mailer.code), ErrInvalidCode)
	assert.ErrorIs(t, svc.Verify(""), ErrInvalidCode)
	assert.ErrorIs(t, svc.Verify("not-a-code"), ErrInvalidCode)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestService(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := forged.SignedString([]byte("different-secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc, _ := newTestService(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
