// ABOUTME: Profile store contract shared by the Charm and SQLite backends
// ABOUTME: Documents are JSON objects keyed by user id; summary writes are partial merges
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/confidant/internal/models"
)

// ProfilePrefix namespaces profile documents in key-value backends
const ProfilePrefix = "profile:"

var (
	// ErrProfileNotFound is returned when no document exists for the user
	ErrProfileNotFound = errors.New("profile not found")
	// ErrStoreRead wraps backend failures while reading a profile
	ErrStoreRead = errors.New("profile store read failed")
	// ErrStoreWrite wraps backend failures while writing a profile
	ErrStoreWrite = errors.New("profile store write failed")
	// ErrNoUserID is returned when an operation is attempted without a user id
	ErrNoUserID = errors.New("user id is required")
)

// ProfileStore reads and partially updates per-user profile documents
type ProfileStore interface {
	ReadProfile(ctx context.Context, userID string) (*models.Profile, error)
	WriteSummary(ctx context.Context, userID, summary string) error
	SaveProfile(ctx context.Context, profile *models.Profile) error
	Close() error
}

// ProfileKey generates the key for a user's profile document
func ProfileKey(userID string) string {
	return ProfilePrefix + userID
}

// ValidateUserID rejects blank ids
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNoUserID
	}
	return nil
}

// DecodeProfile parses a stored document into a Profile
func DecodeProfile(userID string, doc []byte) (*models.Profile, error) {
	var profile models.Profile
	if err := json.Unmarshal(doc, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode profile %s: %v", ErrStoreRead, userID, err)
	}
	profile.UserID = userID
	return &profile, nil
}

// MergeDocument sets fields on an existing JSON object document, keeping every
// other field untouched. A nil or empty document starts a new object.
func MergeDocument(existing []byte, fields map[string]any) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(existing))) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("existing document is not a JSON object: %w", err)
		}
		if doc == nil {
			doc = map[string]json.RawMessage{}
		}
	}

	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %s: %w", k, err)
		}
		doc[k] = raw
	}

	return json.Marshal(doc)
}

// SummaryFields is the partial update written at each session boundary
func SummaryFields(summary string, now time.Time) map[string]any {
	return map[string]any{
		models.FieldSummary:   summary,
		models.FieldUpdatedAt: now.UTC(),
	}
}

// ProfileFields is the partial update for name and email; blank values are skipped
func ProfileFields(profile *models.Profile, now time.Time) map[string]any {
	fields := map[string]any{models.FieldUpdatedAt: now.UTC()}
	if profile.Name != "" {
		fields[models.FieldName] = profile.Name
	}
	if profile.Email != "" {
		fields[models.FieldEmail] = profile.Email
	}
	return fields
}
