package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"notes-backend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the data-access handle shared by all handlers. Implementations
// must be safe for concurrent use.
type Store interface {
	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// CreateUser inserts u. It returns ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	// AppendUserNote adds noteID to the end of the user's note list.
	AppendUserNote(ctx context.Context, userID, noteID string) error

	CreateNote(ctx context.Context, n *models.Note) error
	NoteByID(ctx context.Context, id string) (models.Note, error)
	// UserNotes returns the notes on the user's note list, in list order.
	// Trashed notes are included.
	UserNotes(ctx context.Context, userID string) ([]models.Note, error)
	// SearchNotes matches query case-insensitively against title or
	// content of the user's notes.
	SearchNotes(ctx context.Context, userID, query string) ([]models.Note, error)
	// UpdateNote overwrites every mutable field of n.
	UpdateNote(ctx context.Context, n *models.Note) error

	Close() error
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Open connects to the store selected by driver.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case DriverMySQL:
		return OpenMySQL(dsn)
	case DriverSQLite:
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

const likeEscape = "!"

// containsPattern turns query into a lower-cased LIKE pattern that matches
// it as a literal substring.
func containsPattern(query string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(strings.ToLower(query)) + "%"
}
