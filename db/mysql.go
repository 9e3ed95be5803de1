package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"notes-backend/models"
)

const mysqlDuplicateEntry = 1062

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS notes (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		color VARCHAR(32) NOT NULL,
		labels JSON NOT NULL,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_notes_user (user_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS user_notes (
		position BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		note_id CHAR(36) NOT NULL,
		UNIQUE KEY idx_user_note (user_id, note_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE
	);`,
}

const noteColumns = "id, user_id, title, content, color, labels, archived, deleted_at, created_at, updated_at"

// MySQLStore keeps users and notes in MySQL through database/sql.
type MySQLStore struct {
	db *sql.DB
}

// NormalizeMySQLDSN validates dsn and forces the options the store relies on.
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parsing mysql dsn")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func OpenMySQL(dsn string) (*MySQLStore, error) {
	dsn, err := NormalizeMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening mysql")
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "connecting to mysql")
	}
	return &MySQLStore{db: conn}, nil
}

func (s *MySQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "creating schema")
		}
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if isMySQLDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrapf(err, "inserting user %q", u.Email)
}

func (s *MySQLStore) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *MySQLStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

func (s *MySQLStore) userWhere(ctx context.Context, cond string, arg any) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE "+cond, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "loading user")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT note_id FROM user_notes WHERE user_id = ? ORDER BY position", u.ID)
	if err != nil {
		return models.User{}, errors.Wrap(err, "loading user notes")
	}
	defer rows.Close()
	u.Notes = []string{}
	for rows.Next() {
		var noteID string
		if err := rows.Scan(&noteID); err != nil {
			return models.User{}, errors.Wrap(err, "scanning note id")
		}
		u.Notes = append(u.Notes, noteID)
	}
	return u, errors.Wrap(rows.Err(), "loading user notes")
}

func (s *MySQLStore) AppendUserNote(ctx context.Context, userID, noteID string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO user_notes (user_id, note_id) VALUES (?, ?)", userID, noteID)
	return errors.Wrapf(err, "appending note %s to user %s", noteID, userID)
}

func (s *MySQLStore) CreateNote(ctx context.Context, n *models.Note) error {
	labels, err := json.Marshal(n.Labels)
	if err != nil {
		return errors.Wrap(err, "encoding labels")
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO notes ("+noteColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		n.ID, n.UserID, n.Title, n.Content, n.Color, string(labels), n.Archived, n.DeletedAt, n.CreatedAt, n.UpdatedAt)
	return errors.Wrap(err, "inserting note")
}

func (s *MySQLStore) NoteByID(ctx context.Context, id string) (models.Note, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return models.Note{}, ErrNotFound
	}
	return n, errors.Wrap(err, "loading note")
}

func (s *MySQLStore) UserNotes(ctx context.Context, userID string) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.user_id, n.title, n.content, n.color, n.labels, n.archived, n.deleted_at, n.created_at, n.updated_at
		FROM user_notes un JOIN notes n ON n.id = un.note_id
		WHERE un.user_id = ? ORDER BY un.position`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing notes")
	}
	return collectNotes(rows)
}

func (s *MySQLStore) SearchNotes(ctx context.Context, userID, query string) ([]models.Note, error) {
	pattern := containsPattern(query)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+noteColumns+` FROM notes
		WHERE user_id = ? AND (LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!')
		ORDER BY created_at`, userID, pattern, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "searching notes")
	}
	return collectNotes(rows)
}

func (s *MySQLStore) UpdateNote(ctx context.Context, n *models.Note) error {
	labels, err := json.Marshal(n.Labels)
	if err != nil {
		return errors.Wrap(err, "encoding labels")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, color = ?, labels = ?, archived = ?, deleted_at = ?, updated_at = ?
		WHERE id = ?`,
		n.Title, n.Content, n.Color, string(labels), n.Archived, n.DeletedAt, n.UpdatedAt, n.ID)
	if err != nil {
		return errors.Wrap(err, "updating note")
	}
	// MySQL reports zero affected rows when nothing changed, so only a
	// missing note is treated as an error.
	if affected, _ := res.RowsAffected(); affected == 0 {
		if _, err := s.NoteByID(ctx, n.ID); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (models.Note, error) {
	var (
		n         models.Note
		labels    []byte
		deletedAt sql.NullTime
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Color, &labels, &n.Archived, &deletedAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return models.Note{}, err
	}
	if err := json.Unmarshal(labels, &n.Labels); err != nil {
		return models.Note{}, errors.Wrapf(err, "decoding labels of note %s", n.ID)
	}
	if n.Labels == nil {
		n.Labels = []string{}
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		n.DeletedAt = &t
	}
	return n, nil
}

func collectNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning note")
		}
		notes = append(notes, n)
	}
	return notes, errors.Wrap(rows.Err(), "reading notes")
}

func isMySQLDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
