package netconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agrilink/pkg/fetch"
	"agrilink/pkg/models"

	"github.com/stretchr/testify/suite"
)

// ProbeTestSuite checks HTTPProber against fake backends.
type ProbeTestSuite struct {
	suite.Suite
	healthy   *httptest.Server
	degraded  *httptest.Server
	slow      *httptest.Server
	notJSON   *httptest.Server
	stalled   *httptest.Server
	prober    *HTTPProber
	mu        sync.Mutex
	gotAccept string
	gotPath   string
}

func (s *ProbeTestSuite) SetupTest() {
	s.healthy = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.gotAccept = r.Header.Get("Accept")
		s.gotPath = r.URL.Path
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	s.degraded = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	s.slow = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	s.notJSON = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>captive portal</html>"))
	}))
	s.stalled = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":`))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))

	client := fetch.New(fetch.StaticBaseURL(testPrimary), fetch.WithHTTPClient(&http.Client{}))
	s.prober = NewHTTPProber(client, 100*time.Millisecond)
}

func (s *ProbeTestSuite) TearDownTest() {
	s.healthy.Close()
	s.degraded.Close()
	s.slow.Close()
	s.notJSON.Close()
	s.stalled.Close()
}

func (s *ProbeTestSuite) TestSuccess() {
	result := s.prober.Probe(context.Background(), s.healthy.URL)

	s.Equal(models.ProbeSuccess, result.Status)
	s.Equal(s.healthy.URL, result.URL)
	s.Equal(map[string]any{"status": "ok"}, result.Data)
	s.Empty(result.Error)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Equal("application/json", s.gotAccept)
	s.Equal("/", s.gotPath)
}

func (s *ProbeTestSuite) TestNon2xx() {
	result := s.prober.Probe(context.Background(), s.degraded.URL)

	s.Equal(models.ProbeError, result.Status)
	s.Equal("HTTP 503", result.Error)
	s.Nil(result.Data)
}

func (s *ProbeTestSuite) TestTimeout() {
	result := s.prober.Probe(context.Background(), s.slow.URL)

	s.Equal(models.ProbeError, result.Status)
	s.Equal(TimedOutMessage, result.Error)
}

func (s *ProbeTestSuite) TestStalledBodyTimesOut() {
	start := time.Now()
	result := s.prober.Probe(context.Background(), s.stalled.URL)

	s.Equal(models.ProbeError, result.Status)
	s.Equal(TimedOutMessage, result.Error)
	s.Nil(result.Data)
	s.Less(time.Since(start), time.Second)
}

func (s *ProbeTestSuite) TestSweepWithStalledCandidateSettles() {
	candidates := []string{s.stalled.URL, s.healthy.URL}

	start := time.Now()
	results := ProbeAll(context.Background(), candidates, s.prober)

	s.Less(time.Since(start), time.Second)
	s.Require().Len(results, 2)
	s.Equal(TimedOutMessage, results[0].Error)
	s.Equal(models.ProbeSuccess, results[1].Status)
}

func (s *ProbeTestSuite) TestInvalidJSON() {
	result := s.prober.Probe(context.Background(), s.notJSON.URL)

	s.Equal(models.ProbeError, result.Status)
	s.Contains(result.Error, "failed to parse JSON response")
}

func (s *ProbeTestSuite) TestConnectionRefused() {
	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	result := s.prober.Probe(context.Background(), url)

	s.Equal(models.ProbeError, result.Status)
	s.NotEmpty(result.Error)
	s.NotEqual(TimedOutMessage, result.Error)
}

func TestProbeSuite(t *testing.T) {
	suite.Run(t, new(ProbeTestSuite))
}

func TestProbeAllPreservesOrder(t *testing.T) {
	candidates := []string{"http://a:8000", "http://b:8000", "http://c:8000"}
	delays := map[string]time.Duration{
		"http://a:8000": 60 * time.Millisecond,
		"http://b:8000": 30 * time.Millisecond,
		"http://c:8000": 0,
	}

	finished := make(chan string, len(candidates))
	prober := ProberFunc(func(ctx context.Context, candidate string) models.ProbeResult {
		time.Sleep(delays[candidate])
		finished <- candidate
		return models.ProbeResult{Status: models.ProbeSuccess}
	})

	results := ProbeAll(context.Background(), candidates, prober)
	close(finished)

	if len(results) != len(candidates) {
		t.Fatalf("expected %d results, got %d", len(candidates), len(results))
	}
	for i, candidate := range candidates {
		if results[i].URL != candidate {
			t.Fatalf("result %d: expected %s, got %s", i, candidate, results[i].URL)
		}
	}
	if first := <-finished; first != "http://c:8000" {
		t.Fatalf("expected c to finish first, got %s", first)
	}
}

func TestProbeAllRunsConcurrently(t *testing.T) {
	candidates := []string{"http://a:8000", "http://b:8000", "http://c:8000", "http://d:8000"}
	prober := ProberFunc(func(ctx context.Context, candidate string) models.ProbeResult {
		time.Sleep(50 * time.Millisecond)
		return models.ProbeResult{Status: models.ProbeSuccess}
	})

	start := time.Now()
	ProbeAll(context.Background(), candidates, prober)

	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("probes appear sequential: %s", elapsed)
	}
}

func TestProbeAllEmpty(t *testing.T) {
	results := ProbeAll(context.Background(), nil, ProberFunc(func(context.Context, string) models.ProbeResult {
		t.Fatal("prober must not be called")
		return models.ProbeResult{}
	}))
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
