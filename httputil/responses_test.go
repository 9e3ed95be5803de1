package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-backend/apperr"
)

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["message"]
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/note/x", nil)

	t.Run("Application error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, req, apperr.New(apperr.Forbidden, "Unauthorized"), "Failed")

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Equal(t, "Unauthorized", decodeMessage(t, rr))
	})

	t.Run("Unknown error hides cause", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, req, errors.New("dial tcp: connection refused"), "Failed to retrieve note")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to retrieve note", decodeMessage(t, rr))
	})
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Email string `json:"email"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "a@b.c", v.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	err := DecodeJSON(req, &v)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.From(err, "").Kind)
}
