package netconfig

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"agrilink/pkg/models"
)

// hybridSuffix is appended to the primary origin in offline mode.
const hybridSuffix = "/hybrid"

// Endpoint holds the active backend origin. It replaces a process-wide
// variable: every fetch client reads the base URL through it.
type Endpoint struct {
	mu      sync.RWMutex
	primary string
	baseURL string
	mode    models.NetworkMode
}

// NewEndpoint creates an endpoint whose base URL starts at primary in online mode.
func NewEndpoint(primary string) (*Endpoint, error) {
	primary = strings.TrimRight(primary, "/")
	if err := ValidateOrigin(primary); err != nil {
		return nil, err
	}
	return &Endpoint{
		primary: primary,
		baseURL: primary,
		mode:    models.ModeOnline,
	}, nil
}

// ValidateOrigin checks that raw has an http(s) scheme and a host.
func ValidateOrigin(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidOrigin)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidOrigin, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidOrigin, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: %q: missing host", ErrInvalidOrigin, raw)
	}
	return nil
}

// OriginForMode maps a mode to its fixed origin: online is the primary
// origin, offline is the primary origin's hybrid variant.
func OriginForMode(primary string, mode models.NetworkMode) (string, error) {
	switch mode {
	case models.ModeOnline:
		return primary, nil
	case models.ModeOffline:
		return primary + hybridSuffix, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// BaseURL returns the active origin.
func (e *Endpoint) BaseURL() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.baseURL
}

// PrimaryOrigin returns the origin the endpoint was created with.
func (e *Endpoint) PrimaryOrigin() string {
	return e.primary
}

// Mode returns the mode last applied to this endpoint.
func (e *Endpoint) Mode() models.NetworkMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// SetBaseURL points the endpoint at an explicit origin, e.g. a probed candidate.
func (e *Endpoint) SetBaseURL(origin string) error {
	origin = strings.TrimRight(origin, "/")
	if err := ValidateOrigin(origin); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseURL = origin
	return nil
}

// applyMode switches the base URL to the mode's origin.
func (e *Endpoint) applyMode(mode models.NetworkMode) (string, error) {
	origin, err := OriginForMode(e.primary, mode)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseURL = origin
	e.mode = mode
	return origin, nil
}
