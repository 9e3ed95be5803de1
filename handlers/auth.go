package handlers

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"notes-backend/apperr"
	"notes-backend/auth"
	"notes-backend/db"
	"notes-backend/httputil"
	"notes-backend/models"
)

// bcrypt ignores everything past this many bytes.
const maxPasswordBytes = 72

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// AuthHandler serves registration and login.
type AuthHandler struct {
	store  db.Store
	tokens *auth.Tokens
	now    func() time.Time
}

func NewAuthHandler(store db.Store, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, now: now}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, "Registration failed")
		return
	}
	email := strings.TrimSpace(req.Email)

	_, err := h.store.UserByEmail(r.Context(), email)
	if err == nil {
		httputil.WriteError(w, r, apperr.New(apperr.Conflict, "User already exists"), "")
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		httputil.WriteError(w, r, err, "Registration failed")
		return
	}

	if !validEmail(email) {
		httputil.WriteError(w, r, apperr.New(apperr.Validation, "Please enter a valid email"), "")
		return
	}
	if req.Password == "" {
		httputil.WriteError(w, r, apperr.New(apperr.Validation, "Password is required"), "")
		return
	}
	if len(req.Password) > maxPasswordBytes {
		httputil.WriteError(w, r, apperr.New(apperr.Validation, "Password must be at most 72 bytes"), "")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, "Registration failed")
		return
	}

	ts := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Notes:        []string{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := h.store.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			err = apperr.New(apperr.Conflict, "User already exists")
		}
		httputil.WriteError(w, r, err, "Registration failed")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		httputil.WriteError(w, r, err, "Registration failed")
		return
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{Message: "User registered successfully", Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, "Login failed")
		return
	}

	user, err := h.store.UserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, db.ErrNotFound) {
		httputil.WriteError(w, r, apperr.New(apperr.NotFound, "User not found"), "")
		return
	}
	if err != nil {
		httputil.WriteError(w, r, err, "Login failed")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		httputil.WriteError(w, r, apperr.New(apperr.Unauthorized, "Invalid password"), "")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		httputil.WriteError(w, r, err, "Login failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Message: "Login successful", Token: token})
}

// validEmail accepts a bare address only; display-name forms such as
// "Bob <bob@example.com>" are rejected, and so are domains without a dot.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(strings.Trim(domain, "."), ".")
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
