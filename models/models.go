package models

import "time"

const (
	DefaultColor   = "#ffffff"
	MaxLabels      = 9
	MaxLabelLength = 20
)

type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Notes        []string  `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Note struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Color     string     `json:"color"`
	Labels    []string   `json:"labels"`
	Archived  bool       `json:"archived"`
	DeletedAt *time.Time `json:"deletedAt"`
	UserID    string     `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Trashed reports whether the note has been soft-deleted.
func (n Note) Trashed() bool {
	return n.DeletedAt != nil
}

// SameOwner is the only capability check notes need: the caller must be
// the note's owner.
func SameOwner(n Note, userID string) bool {
	return userID != "" && n.UserID == userID
}
