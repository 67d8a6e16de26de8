package app

import (
	"fmt"
	"log/slog"

	"github.com/vidvault/client/internal/api"
	"github.com/vidvault/client/internal/config"
	"github.com/vidvault/client/internal/credstore"
	"github.com/vidvault/client/internal/playback"
	"github.com/vidvault/client/internal/session"
)

// Dependencies holds the wired client-side services the commands run against.
type Dependencies struct {
	Store    credstore.Store
	API      *api.Client
	Sessions *session.Manager
	Links    playback.Builder
	Surface  *playback.Surface
}

// buildDependencies wires together the concrete implementations used by the
// CLI commands. Without a keyphrase credentials live in memory only and are
// lost when the process exits.
func buildDependencies(cfg config.Config) (Dependencies, error) {
	var store credstore.Store
	if cfg.Keyphrase != "" {
		fileStore, err := credstore.NewFileStore(cfg.StateDir, cfg.Keyphrase)
		if err != nil {
			return Dependencies{}, fmt.Errorf("open credential store: %w", err)
		}
		store = fileStore
	} else {
		slog.Warn("no keyphrase configured, credentials will not persist across runs")
		store = credstore.NewInMemoryStore()
	}

	client, err := api.NewClient(cfg.APIBaseURL, store, api.Options{
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})
	if err != nil {
		return Dependencies{}, fmt.Errorf("build api client: %w", err)
	}

	restricted, err := playback.NewRestrictedClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if err != nil {
		return Dependencies{}, fmt.Errorf("build playback client: %w", err)
	}
	surface, err := playback.NewSurface(cfg.APIBaseURL, restricted)
	if err != nil {
		return Dependencies{}, fmt.Errorf("build playback surface: %w", err)
	}

	return Dependencies{
		Store:    store,
		API:      client,
		Sessions: session.NewManager(client, store),
		Links:    playback.NewBuilder(cfg.APIBaseURL),
		Surface:  surface,
	}, nil
}
