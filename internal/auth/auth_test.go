package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	userID int64
	err    error
}

func (p *stubParser) ParseToken(token string) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.userID, nil
}

func protected(t *testing.T, parser TokenParser) (http.Handler, *int64) {
	t.Helper()
	var seen int64
	handler := Middleware(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))
	return handler, &seen
}

func TestMiddlewareInjectsUserID(t *testing.T) {
	handler, seen := protected(t, &stubParser{userID: 42})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), *seen)
}

func TestMiddlewareMissingHeader(t *testing.T) {
	handler, _ := protected(t, &stubParser{userID: 42})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error": "Authorization required"}`, rec.Body.String())
}

func TestMiddlewareNotBearer(t *testing.T) {
	handler, _ := protected(t, &stubParser{userID: 42})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareInvalidToken(t *testing.T) {
	handler, _ := protected(t, &stubParser{err: errors.New("bad token")})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserIDAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserID(req.Context())
	assert.False(t, ok)
}
