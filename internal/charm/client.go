// ABOUTME: Charm KV client wrapper used as the remote profile store
// ABOUTME: Profiles sync to Charm Cloud and are keyed by user id, with automatic SSH key auth
package charm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"

	"github.com/harper/confidant/internal/models"
	"github.com/harper/confidant/internal/storage"
)

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig returns default configuration for charm client
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &Config{
		Host:     host,
		DBName:   "confidant",
		AutoSync: true,
	}
}

// kvStore is the subset of *kv.KV the client relies on
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	Close() error
}

// Client wraps charm KV for profile storage
type Client struct {
	kv     kvStore
	config *Config
	now    func() time.Time
	mu     sync.Mutex
}

var _ storage.ProfileStore = (*Client)(nil)

// NewClient opens the charm KV database with the given config
func NewClient(cfg *Config) (*Client, error) {
	// charm reads the host from the environment when opening KV
	os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := newClient(db, cfg)

	// Pull remote data on startup
	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

func newClient(store kvStore, cfg *Config) *Client {
	return &Client{
		kv:     store,
		config: cfg,
		now:    time.Now,
	}
}

// ErrClosed is returned by maintenance operations after Close
var ErrClosed = errors.New("charm client is closed")

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// syncIfEnabled syncs to cloud after writes
func (c *Client) syncIfEnabled() {
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
}

// ID returns the charm user ID, used as the default user identity
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// ReadProfile loads the profile document for userID
func (c *Client) ReadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := storage.ValidateUserID(userID); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return nil, fmt.Errorf("%w: client closed", storage.ErrStoreRead)
	}

	data, err := c.get(storage.ProfileKey(userID))
	if err != nil {
		return nil, err
	}
	return storage.DecodeProfile(userID, data)
}

// WriteSummary merges lastConversationSummary into the user's document
func (c *Client) WriteSummary(ctx context.Context, userID, summary string) error {
	if err := storage.ValidateUserID(userID); err != nil {
		return err
	}
	return c.merge(userID, storage.SummaryFields(summary, c.now()))
}

// SaveProfile merges name and email into the user's document
func (c *Client) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if profile == nil {
		return errors.New("profile is nil")
	}
	if err := storage.ValidateUserID(profile.UserID); err != nil {
		return err
	}
	return c.merge(profile.UserID, storage.ProfileFields(profile, c.now()))
}

// ClearSummary removes the stored summary so the next session starts with the default greeting
func (c *Client) ClearSummary(ctx context.Context, userID string) error {
	return c.WriteSummary(ctx, userID, "")
}

func (c *Client) merge(userID string, fields map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return fmt.Errorf("%w: client closed", storage.ErrStoreWrite)
	}

	key := storage.ProfileKey(userID)
	existing, err := c.get(key)
	if err != nil && !errors.Is(err, storage.ErrProfileNotFound) {
		return fmt.Errorf("%w: %v", storage.ErrStoreWrite, err)
	}

	doc, err := storage.MergeDocument(existing, fields)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreWrite, err)
	}

	if err := c.kv.Set([]byte(key), doc); err != nil {
		return fmt.Errorf("%w: failed to set key %s: %v", storage.ErrStoreWrite, key, err)
	}
	c.syncIfEnabled()
	return nil
}

// get must be called with c.mu held
func (c *Client) get(key string) ([]byte, error) {
	data, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && data == nil) {
		return nil, storage.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get key %s: %v", storage.ErrStoreRead, key, err)
	}
	return data, nil
}

// ListUsers returns the user ids that have a profile document
func (c *Client) ListUsers() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return nil, ErrClosed
	}

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		keyStr := string(key)
		if strings.HasPrefix(keyStr, storage.ProfilePrefix) {
			result = append(result, strings.TrimPrefix(keyStr, storage.ProfilePrefix))
		}
	}
	return result, nil
}

// DeleteProfile removes a user's profile document
func (c *Client) DeleteProfile(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return ErrClosed
	}

	key := storage.ProfileKey(userID)
	if err := c.kv.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	c.syncIfEnabled()
	return nil
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return ErrClosed
	}
	return c.kv.Sync()
}

// Reset wipes all local data (nuclear option)
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return ErrClosed
	}
	return c.kv.Reset()
}

// GetAuthorizedKeys returns the list of linked devices/keys
func (c *Client) GetAuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}
