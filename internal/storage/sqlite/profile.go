// ABOUTME: Local profile store backed by SQLite
// ABOUTME: Offline stand-in for Charm KV with the same partial-merge semantics
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harper/confidant/internal/models"
	"github.com/harper/confidant/internal/storage"
)

// ProfileStore handles profile document persistence
type ProfileStore struct {
	db  *DB
	now func() time.Time
	mu  sync.Mutex // serialises read-modify-write merges
}

var _ storage.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore creates a new ProfileStore
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db, now: time.Now}
}

// OpenProfileStore opens the database at path and wraps it in a ProfileStore
func OpenProfileStore(path string) (*ProfileStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewProfileStore(db), nil
}

// ReadProfile retrieves the profile for userID
func (s *ProfileStore) ReadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := storage.ValidateUserID(userID); err != nil {
		return nil, err
	}

	doc, err := s.document(ctx, userID)
	if err != nil {
		return nil, err
	}
	return storage.DecodeProfile(userID, []byte(doc))
}

// WriteSummary merges lastConversationSummary into the user's document
func (s *ProfileStore) WriteSummary(ctx context.Context, userID, summary string) error {
	if err := storage.ValidateUserID(userID); err != nil {
		return err
	}
	return s.merge(ctx, userID, storage.SummaryFields(summary, s.now()))
}

// SaveProfile merges name and email into the user's document
func (s *ProfileStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if profile == nil {
		return errors.New("profile is nil")
	}
	if err := storage.ValidateUserID(profile.UserID); err != nil {
		return err
	}
	return s.merge(ctx, profile.UserID, storage.ProfileFields(profile, s.now()))
}

// ClearSummary removes the stored summary
func (s *ProfileStore) ClearSummary(ctx context.Context, userID string) error {
	return s.WriteSummary(ctx, userID, "")
}

// Close closes the underlying database
func (s *ProfileStore) Close() error {
	return s.db.Close()
}

func (s *ProfileStore) document(ctx context.Context, userID string) (string, error) {
	var doc string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT document FROM profiles WHERE user_id = ?`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrProfileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrStoreRead, err)
	}
	return doc, nil
}

func (s *ProfileStore) merge(ctx context.Context, userID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.document(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrProfileNotFound) {
		return fmt.Errorf("%w: %v", storage.ErrStoreWrite, err)
	}

	doc, err := storage.MergeDocument([]byte(existing), fields)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreWrite, err)
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO profiles (user_id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`, userID, string(doc), s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreWrite, err)
	}
	return nil
}
