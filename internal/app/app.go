// ABOUTME: Wires configuration into a ready session manager and its collaborators
// ABOUTME: Chooses the profile store backend and builds the completion client
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/confidant/internal/charm"
	"github.com/harper/confidant/internal/config"
	"github.com/harper/confidant/internal/core"
	"github.com/harper/confidant/internal/enrichment"
	"github.com/harper/confidant/internal/llm"
	"github.com/harper/confidant/internal/storage"
	"github.com/harper/confidant/internal/storage/sqlite"
	"github.com/harper/confidant/internal/telemetry"
)

// Store is the profile store surface used by the commands
type Store interface {
	storage.ProfileStore
	ClearSummary(ctx context.Context, userID string) error
}

// identity is implemented by stores that know who the local user is
type identity interface {
	ID() (string, error)
}

var (
	_ Store = (*charm.Client)(nil)
	_ Store = (*sqlite.ProfileStore)(nil)
)

// OpenStore opens the configured profile store backend
func OpenStore(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		return sqlite.OpenProfileStore(path)
	case config.StoreCharm:
		return charm.NewClient(&charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewCompleter builds the OpenAI completion client
func NewCompleter(cfg *config.Config) (*llm.OpenAIClient, error) {
	clientCfg := &llm.ClientConfig{
		APIKey:    cfg.OpenAIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		ChatModel: cfg.ChatModel,
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return llm.NewOpenAIClientWithConfig(clientCfg)
}

// NewEnrichment builds the recommendation source from the configured list
// plus any config-file recommendations. An empty list is a valid source with no data.
func NewEnrichment(cfg *config.Config) (*enrichment.StaticSource, error) {
	videos, err := enrichment.ParseVideos(cfg.Videos)
	if err != nil {
		return nil, fmt.Errorf("invalid video list: %w", err)
	}
	return enrichment.NewStaticSource(append(videos, cfg.Recommendations...)), nil
}

// App bundles everything a command needs
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Metrics *telemetry.Metrics
	Store   Store
	Manager *core.SessionManager
}

// New opens the store and builds the session manager. The caller owns Close.
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	completer, err := NewCompleter(cfg)
	if err != nil {
		return nil, err
	}
	videos, err := NewEnrichment(cfg)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	metrics := telemetry.NewMetrics()
	manager := core.NewSessionManager(core.Deps{
		Completer:  completer,
		Store:      store,
		Enrichment: videos,
		Logger:     logger,
		Metrics:    metrics,
	},
		core.WithEnrichmentProbability(cfg.EnrichmentProbability),
		core.WithDiscardStaleReplies(cfg.DiscardStaleReplies),
	)

	logger.Debug("app ready", "store", cfg.StoreBackend, "model", completer.Model())
	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Store:   store,
		Manager: manager,
	}, nil
}

// ResolveUserID picks the user: explicit flag, then configuration, then the
// store's own identity (the Charm account id)
func ResolveUserID(cfg *config.Config, store Store, flag string) (string, error) {
	if id := strings.TrimSpace(flag); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(cfg.UserID); id != "" {
		return id, nil
	}
	if ident, ok := store.(identity); ok {
		id, err := ident.ID()
		if err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrNoAuthenticatedUser, err)
		}
		if id != "" {
			return id, nil
		}
	}
	return "", core.ErrNoAuthenticatedUser
}

// Close releases the profile store
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
