package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"notes-backend/apperr"
	"notes-backend/db"
	"notes-backend/httputil"
	"notes-backend/middleware"
	"notes-backend/models"
)

var (
	errUserNotFound = apperr.New(apperr.NotFound, "User not found")
	errNoteNotFound = apperr.New(apperr.NotFound, "Note not found")
	errNotOwner     = apperr.New(apperr.Forbidden, "Unauthorized")
	errNoCaller     = apperr.New(apperr.Unauthorized, "Unauthorized")
	errBadQuery     = apperr.New(apperr.Validation, "Query parameter must be a string")
)

// NoteHandler serves the note routes. Every route expects RequireAuth to
// have placed the caller's user id in the request context.
type NoteHandler struct {
	store db.Store
	newID func() string
	now   func() time.Time
}

func NewNoteHandler(store db.Store) *NoteHandler {
	return &NoteHandler{store: store, newID: uuid.NewString, now: now}
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to create note"
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoCaller, failed)
		return
	}

	var in models.CreateNoteInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}

	if _, err := h.user(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	if err := models.CheckLabelCount(in.Labels); err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}

	note, err := models.NewNote(h.newID(), userID, in, h.now())
	if err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	if err := h.store.CreateNote(r.Context(), &note); err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	// The note and the user's note list are written separately; a failure
	// here leaves a note that is missing from its owner's list.
	if err := h.store.AppendUserNote(r.Context(), userID, note.ID); err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "note_id": note.ID}).Debug("Note created")
	httputil.WriteJSON(w, http.StatusCreated, note)
}

// GetNotes returns every note on the caller's list, trashed ones included.
func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.listed(r)
	if err != nil {
		httputil.WriteError(w, r, err, "Failed to retrieve notes")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notes)
}

// GetTrash returns only the caller's trashed notes.
func (h *NoteHandler) GetTrash(w http.ResponseWriter, r *http.Request) {
	notes, err := h.listed(r)
	if err != nil {
		httputil.WriteError(w, r, err, "Failed to retrieve notes")
		return
	}
	trashed := []models.Note{}
	for _, n := range notes {
		if n.Trashed() {
			trashed = append(trashed, n)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, trashed)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to retrieve note"
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoCaller, failed)
		return
	}

	note, err := h.ownedNote(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to search notes"
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoCaller, failed)
		return
	}

	// A missing or repeated parameter is not a single string.
	values := r.URL.Query()["query"]
	if len(values) != 1 {
		httputil.WriteError(w, r, errBadQuery, failed)
		return
	}

	notes, err := h.store.SearchNotes(r.Context(), userID, values[0])
	if err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to update note"
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoCaller, failed)
		return
	}

	var in models.UpdateNoteInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}

	note, err := h.ownedNote(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	if err := note.Apply(in, h.now()); err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	if err := h.store.UpdateNote(r.Context(), &note); err != nil {
		httputil.WriteError(w, r, notFoundAs(err, errNoteNotFound), failed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, note)
}

// DeleteNote moves the note to the trash. The record is kept.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to delete note"
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoCaller, failed)
		return
	}

	note, err := h.ownedNote(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteError(w, r, err, failed)
		return
	}
	deletedAt := h.now()
	note.DeletedAt = &deletedAt
	if err := h.store.UpdateNote(r.Context(), &note); err != nil {
		httputil.WriteError(w, r, notFoundAs(err, errNoteNotFound), failed)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Note moved to trash")
}

func (h *NoteHandler) listed(r *http.Request) ([]models.Note, error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		return nil, errNoCaller
	}
	if _, err := h.user(r.Context(), userID); err != nil {
		return nil, err
	}
	return h.store.UserNotes(r.Context(), userID)
}

func (h *NoteHandler) user(ctx context.Context, userID string) (models.User, error) {
	u, err := h.store.UserByID(ctx, userID)
	return u, notFoundAs(err, errUserNotFound)
}

// ownedNote loads a note and checks that userID owns it.
func (h *NoteHandler) ownedNote(ctx context.Context, id, userID string) (models.Note, error) {
	note, err := h.store.NoteByID(ctx, id)
	if err != nil {
		return models.Note{}, notFoundAs(err, errNoteNotFound)
	}
	if !models.SameOwner(note, userID) {
		return models.Note{}, errNotOwner
	}
	return note, nil
}

func notFoundAs(err error, appErr *apperr.Error) error {
	if errors.Is(err, db.ErrNotFound) {
		return appErr
	}
	return err
}
