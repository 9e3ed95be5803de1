package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"notes-backend/apperr"
)

type CreateNoteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Color   string   `json:"color"`
	Labels  []string `json:"labels"`
}

// UpdateNoteInput overwrites every field that is present in the request
// body. Nil fields keep their stored value.
type UpdateNoteInput struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Color    *string   `json:"color"`
	Labels   *[]string `json:"labels"`
	Archived *bool     `json:"archived"`
}

var (
	errTooManyLabels = apperr.New(apperr.Validation, fmt.Sprintf("Cannot have more than %d labels per note", MaxLabels))
	errLabelTooLong  = apperr.New(apperr.Validation, fmt.Sprintf("Labels cannot be longer than %d characters", MaxLabelLength))
	errTitleRequired = apperr.New(apperr.Validation, "Title is required")
	errBodyRequired  = apperr.New(apperr.Validation, "Content is required")
)

// CheckLabelCount rejects label sets larger than MaxLabels.
func CheckLabelCount(labels []string) error {
	if len(labels) > MaxLabels {
		return errTooManyLabels
	}
	return nil
}

// NormalizeLabels trims every label and enforces the count and length
// limits. A nil input yields an empty, non-nil slice.
func NormalizeLabels(labels []string) ([]string, error) {
	if err := CheckLabelCount(labels); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if utf8.RuneCountInString(l) > MaxLabelLength {
			return nil, errLabelTooLong
		}
		out = append(out, l)
	}
	return out, nil
}

// NewNote validates in and builds the note owned by userID.
func NewNote(id, userID string, in CreateNoteInput, now time.Time) (Note, error) {
	labels, err := NormalizeLabels(in.Labels)
	if err != nil {
		return Note{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Note{}, errTitleRequired
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return Note{}, errBodyRequired
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultColor
	}
	return Note{
		ID:        id,
		Title:     title,
		Content:   content,
		Color:     color,
		Labels:    labels,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply overwrites n with the fields present in in and stamps UpdatedAt.
// n is left untouched when validation fails.
func (n *Note) Apply(in UpdateNoteInput, now time.Time) error {
	next := *n
	if in.Labels != nil {
		labels, err := NormalizeLabels(*in.Labels)
		if err != nil {
			return err
		}
		next.Labels = labels
	}
	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
		if next.Title == "" {
			return errTitleRequired
		}
	}
	if in.Content != nil {
		next.Content = strings.TrimSpace(*in.Content)
		if next.Content == "" {
			return errBodyRequired
		}
	}
	if in.Color != nil {
		next.Color = strings.TrimSpace(*in.Color)
		if next.Color == "" {
			next.Color = DefaultColor
		}
	}
	if in.Archived != nil {
		next.Archived = *in.Archived
	}
	next.UpdatedAt = now
	*n = next
	return nil
}
