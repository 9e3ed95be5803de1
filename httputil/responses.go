// Package httputil writes the JSON responses shared by handlers and middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"notes-backend/apperr"
)

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("encoding response")
	}
}

// WriteMessage writes a {"message": ...} body.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

// WriteError reports err to the client. Application errors keep their
// kind and message; anything else becomes a 500 with fallback as the
// message. Internal errors are logged with their cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	appErr := apperr.From(err, fallback)
	status := apperr.Status(appErr.Kind)
	if appErr.Kind == apperr.Internal {
		logrus.WithFields(logrus.Fields{
			"request_id": chimw.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(appErr.Err).Error(appErr.Message)
	} else {
		logrus.WithFields(logrus.Fields{
			"request_id": chimw.GetReqID(r.Context()),
			"status":     status,
		}).Debug(appErr.Message)
	}
	WriteMessage(w, status, appErr.Message)
}

// DecodeJSON decodes the request body into v, reporting malformed bodies
// as validation errors.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &apperr.Error{Kind: apperr.Validation, Message: "Invalid request body", Err: err}
	}
	return nil
}
