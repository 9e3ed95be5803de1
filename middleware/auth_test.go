package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-backend/auth"
)

const testSecret = "middleware-test-secret"

func createTestHandler(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r.Context())
		if !ok {
			http.Error(w, "User ID not found in context", http.StatusInternalServerError)
			return
		}
		assert.Equal(t, wantUserID, userID)
		w.WriteHeader(http.StatusOK)
	})
}

func createTestToken(t *testing.T, secret, userID string, expiresAt time.Time) string {
	t.Helper()
	claims := auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func serve(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/note/allnotes", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(auth.NewTokens(testSecret))(createTestHandler(t, "user-42"))

	t.Run("Valid token", func(t *testing.T) {
		token, err := auth.NewTokens(testSecret).Issue("user-42")
		require.NoError(t, err)

		rr := serve(handler, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Missing Authorization header", func(t *testing.T) {
		rr := serve(handler, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Authorization header missing")
	})

	t.Run("Missing Bearer prefix", func(t *testing.T) {
		token := createTestToken(t, testSecret, "user-42", time.Now().Add(time.Hour))
		rr := serve(handler, token)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Invalid token format", func(t *testing.T) {
		rr := serve(handler, "Bearer InvalidToken")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid token format")
	})

	t.Run("Expired token", func(t *testing.T) {
		token := createTestToken(t, testSecret, "user-42", time.Now().Add(-24*time.Hour))
		rr := serve(handler, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Token with wrong signature", func(t *testing.T) {
		valid := strings.Split(createTestToken(t, testSecret, "user-42", time.Now().Add(time.Hour)), ".")
		forged := strings.Split(createTestToken(t, "another-secret", "user-42", time.Now().Add(time.Hour)), ".")
		tampered := valid[0] + "." + valid[1] + "." + forged[2]

		rr := serve(handler, "Bearer "+tampered)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Unsigned token", func(t *testing.T) {
		claims := auth.Claims{
			UserID:           "user-42",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		rr := serve(handler, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := UserID(req.Context())
	assert.False(t, ok)

	id, ok := UserID(WithUserID(req.Context(), "user-1"))
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}
