package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-backend/auth"
)

func TestRegister(t *testing.T) {
	store := setupTestDB(t)
	tokens := auth.NewTokens(testSecret)
	h := NewAuthHandler(store, tokens)
	createTestUser(t, store, "test@example.com", "testpassword")

	t.Run("Successful registration", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/user/register", map[string]string{
			"name":     "New User",
			"email":    "newuser@example.com",
			"password": "password123",
		})
		rr := call(h.Register, req)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		resp := decode[map[string]string](t, rr)
		assert.Equal(t, "User registered successfully", resp["message"])

		user, err := store.UserByEmail(context.Background(), "newuser@example.com")
		require.NoError(t, err)
		assert.Equal(t, "New User", user.Name)
		assert.NotEqual(t, "password123", user.PasswordHash)

		id, err := tokens.Parse(resp["token"])
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("User already exists", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/user/register", map[string]string{
			"name":     "Dup",
			"email":    "test@example.com",
			"password": "other",
		})
		rr := call(h.Register, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "User already exists", decode[map[string]string](t, rr)["message"])

		user, err := store.UserByEmail(context.Background(), "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Test User", user.Name, "existing user must not be replaced")
	})

	t.Run("Invalid email", func(t *testing.T) {
		for _, email := range []string{"not-an-email", "", "Bob <bob@example.com>", "a@b", "a@localhost."} {
			req := jsonRequest(t, http.MethodPost, "/api/user/register", map[string]string{
				"name":     "Bad",
				"email":    email,
				"password": "password123",
			})
			rr := call(h.Register, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code, email)
			assert.Equal(t, "Please enter a valid email", decode[map[string]string](t, rr)["message"])
		}
	})

	t.Run("Password rules", func(t *testing.T) {
		for _, password := range []string{"", strings.Repeat("p", 73)} {
			req := jsonRequest(t, http.MethodPost, "/api/user/register", map[string]string{
				"email":    "pw@example.com",
				"password": password,
			})
			rr := call(h.Register, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/user/register", nil)
		rr := call(h.Register, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogin(t *testing.T) {
	store := setupTestDB(t)
	tokens := auth.NewTokens(testSecret)
	h := NewAuthHandler(store, tokens)
	user := createTestUser(t, store, "test@example.com", "testpassword")

	t.Run("Successful login", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/user/login", map[string]string{
			"email":    "test@example.com",
			"password": "testpassword",
		})
		rr := call(h.Login, req)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decode[map[string]string](t, rr)
		assert.Equal(t, "Login successful", resp["message"])
		id, err := tokens.Parse(resp["token"])
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("Wrong password", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/user/login", map[string]string{
			"email":    "test@example.com",
			"password": "wrongpassword",
		})
		rr := call(h.Login, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid password", decode[map[string]string](t, rr)["message"])
	})

	t.Run("Unknown email", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/user/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "testpassword",
		})
		rr := call(h.Login, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "User not found", decode[map[string]string](t, rr)["message"])
	})
}
