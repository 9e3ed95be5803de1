package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"notes-backend/models"
)

type userRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userRecord) TableName() string { return "users" }

type noteRecord struct {
	ID        string   `gorm:"primaryKey;size:36"`
	UserID    string   `gorm:"index;not null;size:36"`
	Title     string   `gorm:"not null"`
	Content   string   `gorm:"not null"`
	Color     string   `gorm:"not null"`
	Labels    []string `gorm:"serializer:json;not null"`
	Archived  bool     `gorm:"not null;default:false"`
	DeletedAt *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (noteRecord) TableName() string { return "notes" }

type userNoteRecord struct {
	Position uint   `gorm:"primaryKey;autoIncrement"`
	UserID   string `gorm:"uniqueIndex:idx_user_note;not null;size:36"`
	NoteID   string `gorm:"uniqueIndex:idx_user_note;not null;size:36"`
}

func (userNoteRecord) TableName() string { return "user_notes" }

// sqliteDriverName is go-sqlite3 with unicode_lower registered on every
// connection. SQLite's own LOWER only folds ASCII.
const sqliteDriverName = "sqlite3_notes"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// SQLiteStore keeps users and notes in a SQLite file through gorm. It is
// the store used for local development and tests.
type SQLiteStore struct {
	db *gorm.DB
}

func OpenSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: dsn}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	gormTables := []any{
		&userRecord{},
		&noteRecord{},
		&userNoteRecord{},
	}
	for _, t := range gormTables {
		if err := s.db.WithContext(ctx).AutoMigrate(t); err != nil {
			return errors.Wrap(err, "Failed to migrate")
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	rec := userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	err := s.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return errors.Wrapf(err, "inserting user %q", u.Email)
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

func (s *SQLiteStore) userWhere(ctx context.Context, cond string, arg any) (models.User, error) {
	var rec userRecord
	err := s.db.WithContext(ctx).Where(cond, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "loading user")
	}

	noteIDs := []string{}
	err = s.db.WithContext(ctx).Model(&userNoteRecord{}).
		Where("user_id = ?", rec.ID).
		Order("position").
		Pluck("note_id", &noteIDs).Error
	if err != nil {
		return models.User{}, errors.Wrap(err, "loading user notes")
	}
	if noteIDs == nil {
		noteIDs = []string{}
	}

	return models.User{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Notes:        noteIDs,
		CreatedAt:    rec.CreatedAt.UTC(),
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}, nil
}

func (s *SQLiteStore) AppendUserNote(ctx context.Context, userID, noteID string) error {
	err := s.db.WithContext(ctx).Create(&userNoteRecord{UserID: userID, NoteID: noteID}).Error
	return errors.Wrapf(err, "appending note %s to user %s", noteID, userID)
}

func (s *SQLiteStore) CreateNote(ctx context.Context, n *models.Note) error {
	rec := toNoteRecord(n)
	return errors.Wrap(s.db.WithContext(ctx).Create(&rec).Error, "inserting note")
}

func (s *SQLiteStore) NoteByID(ctx context.Context, id string) (models.Note, error) {
	var rec noteRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, errors.Wrap(err, "loading note")
	}
	return rec.toModel(), nil
}

func (s *SQLiteStore) UserNotes(ctx context.Context, userID string) ([]models.Note, error) {
	var recs []noteRecord
	err := s.db.WithContext(ctx).
		Select("notes.*").
		Joins("JOIN user_notes ON user_notes.note_id = notes.id").
		Where("user_notes.user_id = ?", userID).
		Order("user_notes.position").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing notes")
	}
	return toModels(recs), nil
}

func (s *SQLiteStore) SearchNotes(ctx context.Context, userID, query string) ([]models.Note, error) {
	pattern := containsPattern(query)
	var recs []noteRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("(unicode_lower(title) LIKE ? ESCAPE '!' OR unicode_lower(content) LIKE ? ESCAPE '!')", pattern, pattern).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "searching notes")
	}
	return toModels(recs), nil
}

func (s *SQLiteStore) UpdateNote(ctx context.Context, n *models.Note) error {
	rec := toNoteRecord(n)
	res := s.db.WithContext(ctx).Model(&noteRecord{ID: n.ID}).
		Select("title", "content", "color", "labels", "archived", "deleted_at", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return errors.Wrap(res.Error, "updating note")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func toNoteRecord(n *models.Note) noteRecord {
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	return noteRecord{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Color:     n.Color,
		Labels:    labels,
		Archived:  n.Archived,
		DeletedAt: n.DeletedAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (r noteRecord) toModel() models.Note {
	labels := r.Labels
	if labels == nil {
		labels = []string{}
	}
	n := models.Note{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Content:   r.Content,
		Color:     r.Color,
		Labels:    labels,
		Archived:  r.Archived,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.DeletedAt != nil {
		t := r.DeletedAt.UTC()
		n.DeletedAt = &t
	}
	return n
}

func toModels(recs []noteRecord) []models.Note {
	notes := make([]models.Note, 0, len(recs))
	for _, r := range recs {
		notes = append(notes, r.toModel())
	}
	return notes
}
