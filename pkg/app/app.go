// Package app wires the configured components together for the binaries.
package app

import (
	"fmt"

	"agrilink/pkg/api"
	"agrilink/pkg/config"
	"agrilink/pkg/fetch"
	"agrilink/pkg/kv"
	"agrilink/pkg/netconfig"
	"agrilink/pkg/retry"
)

// App holds the shared client components.
type App struct {
	Config   *config.Config
	Store    kv.Store
	Endpoint *netconfig.Endpoint
	Client   *fetch.Client
	Resolver *netconfig.Resolver
	API      *api.Service
}

// New builds every component from cfg. An empty StatePath keeps state in memory.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store kv.Store
	if cfg.StatePath == "" {
		store = kv.NewMemoryStore()
	} else {
		sqliteStore, err := kv.NewSQLiteStore(cfg.StatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		store = sqliteStore
	}

	endpoint, err := netconfig.NewEndpoint(cfg.PrimaryOrigin)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client := fetch.New(endpoint, fetch.WithTimeout(cfg.RequestTimeout))
	prober := netconfig.NewHTTPProber(client, cfg.ProbeTimeout)

	return &App{
		Config:   cfg,
		Store:    store,
		Endpoint: endpoint,
		Client:   client,
		Resolver: netconfig.NewResolver(endpoint, cfg.Candidates, prober, store),
		API:      api.NewService(client, store, RetryPolicy(cfg.Retry)),
	}, nil
}

// RetryPolicy converts the retry settings into a policy.
func RetryPolicy(cfg config.RetryConfig) retry.Policy {
	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.WaitMin > 0 {
		policy.WaitMin = cfg.WaitMin
	}
	if cfg.WaitMax > 0 {
		policy.WaitMax = cfg.WaitMax
	}
	policy.Limiter = retry.NewLimiter(cfg.RequestsPerSecond)
	return policy
}

// Close drops idle backend connections and releases the state store.
func (a *App) Close() error {
	a.Client.CloseIdleConnections()
	return a.Store.Close()
}
