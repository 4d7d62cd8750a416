package netconfig

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agrilink/pkg/fetch"
	"agrilink/pkg/models"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultProbeTimeout bounds each candidate health check.
	DefaultProbeTimeout = 5 * time.Second

	// TimedOutMessage is recorded for probes that hit their timeout.
	TimedOutMessage = "Request timed out"
)

// Prober checks a single candidate origin.
type Prober interface {
	Probe(ctx context.Context, candidate string) models.ProbeResult
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, candidate string) models.ProbeResult

func (f ProberFunc) Probe(ctx context.Context, candidate string) models.ProbeResult {
	return f(ctx, candidate)
}

// ProbeAll probes every candidate concurrently and returns one result per
// candidate in candidate order, whatever order the probes finish in.
func ProbeAll(ctx context.Context, candidates []string, prober Prober) []models.ProbeResult {
	results := make([]models.ProbeResult, len(candidates))

	var group errgroup.Group
	for i, candidate := range candidates {
		i, candidate := i, candidate
		group.Go(func() error {
			results[i] = prober.Probe(ctx, candidate)
			results[i].URL = candidate
			return nil
		})
	}
	_ = group.Wait()

	return results
}

// HTTPProber issues GET <candidate>/ through the fetch client.
type HTTPProber struct {
	client  *fetch.Client
	timeout time.Duration
}

// NewHTTPProber creates a prober with the given per-probe timeout.
func NewHTTPProber(client *fetch.Client, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPProber{client: client, timeout: timeout}
}

// Probe bounds the whole exchange, headers and body, by the probe timeout.
func (p *HTTPProber) Probe(ctx context.Context, candidate string) models.ProbeResult {
	result := models.ProbeResult{URL: candidate}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	headers := http.Header{}
	headers.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(probeCtx, strings.TrimRight(candidate, "/")+"/", &fetch.Options{
		Method:  http.MethodGet,
		Headers: headers,
		Timeout: p.timeout,
	})
	if err == nil {
		var data any
		err = fetch.DecodeJSON(resp, &data)
		result.Data = data
	}
	result.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		result.Status = models.ProbeError
		result.Data = nil
		result.Error = probeErrorMessage(err)
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			result.Error = TimedOutMessage
		}
		return result
	}

	result.Status = models.ProbeSuccess
	return result
}

func probeErrorMessage(err error) string {
	if code := fetch.StatusCode(err); code != 0 {
		return fmt.Sprintf("HTTP %d", code)
	}
	if fetch.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return TimedOutMessage
	}
	var netErr *fetch.NetworkError
	if errors.As(err, &netErr) && netErr.Err != nil {
		return netErr.Err.Error()
	}
	return err.Error()
}
