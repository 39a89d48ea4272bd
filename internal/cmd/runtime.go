package cmd

import (
	"github.com/felixgeelhaar/tasksync/internal/cache"
	"github.com/felixgeelhaar/tasksync/internal/client"
	"github.com/felixgeelhaar/tasksync/internal/config"
	"github.com/felixgeelhaar/tasksync/internal/engine"
	"github.com/felixgeelhaar/tasksync/internal/log"
	"github.com/felixgeelhaar/tasksync/internal/stream"
)

// newEngine wires an engine for one session from the configuration
func newEngine(cfg config.Config, sessionID string, logger *log.Logger) *engine.Engine {
	api := client.New(cfg.BaseURL, nil, logger)
	transport := stream.NewTransport(cfg.BaseURL, nil, logger)

	var store *cache.Store
	if cfg.CacheDir != "" {
		store = cache.NewStore(cfg.CacheDir, cfg.CacheTTL.Std(), logger)
	}

	return engine.New(sessionID, api, transport, store, engine.Options{
		PollInterval:    cfg.PollInterval.Std(),
		RefreshInterval: cfg.RefreshInterval.Std(),
		ReconnectBase:   cfg.ReconnectBase.Std(),
		ReconnectMax:    cfg.ReconnectMax.Std(),
	}, logger)
}
