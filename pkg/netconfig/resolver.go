// Package netconfig owns the active backend origin: it switches between the
// online and offline origins, persists that choice, and probes the fixed
// candidate origins to find a reachable backend.
package netconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agrilink/pkg/kv"
	"agrilink/pkg/log"
	"agrilink/pkg/models"

	"github.com/rs/zerolog"
)

// Resolver probes candidate origins and switches the endpoint's mode.
type Resolver struct {
	endpoint   *Endpoint
	candidates []string
	prober     Prober
	store      kv.Store
	logger     zerolog.Logger
}

// NewResolver creates a resolver over a fixed, ordered candidate list.
// A nil store keeps the mode in memory only.
func NewResolver(endpoint *Endpoint, candidates []string, prober Prober, store kv.Store) *Resolver {
	if store == nil {
		store = kv.NewMemoryStore()
	}
	return &Resolver{
		endpoint:   endpoint,
		candidates: append([]string(nil), candidates...),
		prober:     prober,
		store:      store,
		logger:     log.For("netconfig"),
	}
}

// Endpoint returns the endpoint this resolver manages.
func (r *Resolver) Endpoint() *Endpoint {
	return r.endpoint
}

// Candidates returns a copy of the candidate list in probe order.
func (r *Resolver) Candidates() []string {
	return append([]string(nil), r.candidates...)
}

// Status describes the active configuration.
func (r *Resolver) Status() models.EndpointStatus {
	return models.EndpointStatus{
		BaseURL:       r.endpoint.BaseURL(),
		Mode:          r.endpoint.Mode(),
		PrimaryOrigin: r.endpoint.PrimaryOrigin(),
		Candidates:    r.Candidates(),
	}
}

// TestConnection probes every candidate. It never fails: each failure is
// recorded in that candidate's result.
func (r *Resolver) TestConnection(ctx context.Context) []models.ProbeResult {
	results := ProbeAll(ctx, r.candidates, r.prober)

	for _, result := range results {
		if result.OK() {
			r.logger.Info().
				Str("url", result.URL).
				Int64("latency_ms", result.LatencyMs).
				Msg("Candidate reachable")
			continue
		}
		r.logger.Warn().
			Str("url", result.URL).
			Str("error", result.Error).
			Msg("Candidate unreachable")
	}

	return results
}

// GetBestURL returns the first reachable candidate in list order. It does
// not change the endpoint; see ApplyBestURL.
func (r *Resolver) GetBestURL(ctx context.Context) (string, error) {
	results := r.TestConnection(ctx)

	failures := make([]string, 0, len(results))
	for _, result := range results {
		if result.OK() {
			return result.URL, nil
		}
		failures = append(failures, result.URL+": "+result.Error)
	}

	if len(failures) == 0 {
		return "", ErrNoReachableBackend
	}
	return "", fmt.Errorf("%w: %s", ErrNoReachableBackend, strings.Join(failures, "; "))
}

// ApplyBestURL probes the candidates, points the endpoint at the best one and
// persists it so RestoreMode picks it up in later processes. When persisting
// fails the endpoint still uses the candidate and best is returned with the error.
func (r *Resolver) ApplyBestURL(ctx context.Context) (string, error) {
	best, err := r.GetBestURL(ctx)
	if err != nil {
		return "", err
	}
	if err := r.endpoint.SetBaseURL(best); err != nil {
		return "", err
	}

	r.logger.Info().Str("base_url", best).Msg("Applied best candidate")

	if err := r.store.Set(ctx, kv.BaseURLKey, best); err != nil {
		r.logger.Error().Err(err).Str("base_url", best).Msg("Failed to persist base URL")
		return best, fmt.Errorf("failed to persist base url: %w", err)
	}
	return best, nil
}

// SetMode switches the endpoint to the mode's origin and persists the mode,
// dropping any applied candidate origin. When persisting fails the switch
// still holds for this process.
func (r *Resolver) SetMode(ctx context.Context, mode models.NetworkMode) error {
	origin, err := r.endpoint.applyMode(mode)
	if err != nil {
		return err
	}

	r.logger.Info().
		Str("mode", string(mode)).
		Str("base_url", origin).
		Msg("Network mode switched")

	if err := r.store.Set(ctx, kv.ModeKey, string(mode)); err != nil {
		r.logger.Error().Err(err).Str("mode", string(mode)).Msg("Failed to persist network mode")
		return fmt.Errorf("failed to persist network mode: %w", err)
	}
	if err := r.store.Delete(ctx, kv.BaseURLKey); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to clear applied base URL")
	}
	return nil
}

// GetMode returns the persisted mode, or online when none is stored or the
// stored value is unrecognized.
func (r *Resolver) GetMode(ctx context.Context) models.NetworkMode {
	raw, err := r.store.Get(ctx, kv.ModeKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			r.logger.Warn().Err(err).Msg("Failed to read network mode")
		}
		return models.ModeOnline
	}

	mode, ok := models.ParseNetworkMode(raw)
	if !ok {
		r.logger.Warn().Str("value", raw).Msg("Ignoring unrecognized network mode")
		return models.ModeOnline
	}
	return mode
}

// RestoreMode applies the persisted mode to the endpoint, then any candidate
// origin persisted by ApplyBestURL. Nothing restores the mode implicitly;
// callers opt in at startup.
func (r *Resolver) RestoreMode(ctx context.Context) (models.NetworkMode, error) {
	mode := r.GetMode(ctx)
	if _, err := r.endpoint.applyMode(mode); err != nil {
		return "", err
	}

	applied, err := r.store.Get(ctx, kv.BaseURLKey)
	switch {
	case err == nil:
		if setErr := r.endpoint.SetBaseURL(applied); setErr != nil {
			r.logger.Warn().Err(setErr).Str("value", applied).Msg("Ignoring invalid applied base URL")
		}
	case !errors.Is(err, kv.ErrNotFound):
		r.logger.Warn().Err(err).Msg("Failed to read applied base URL")
	}

	r.logger.Info().
		Str("mode", string(mode)).
		Str("base_url", r.endpoint.BaseURL()).
		Msg("Network mode restored")
	return mode, nil
}
