package netconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrilink/pkg/fetch"
	"agrilink/pkg/kv"
	"agrilink/pkg/models"

	"github.com/stretchr/testify/suite"
)

// ResolverTestSuite covers probing and mode switching.
type ResolverTestSuite struct {
	suite.Suite
	ctx      context.Context
	endpoint *Endpoint
	store    *kv.MemoryStore
}

func (s *ResolverTestSuite) SetupTest() {
	s.ctx = context.Background()
	var err error
	s.endpoint, err = NewEndpoint(testPrimary)
	s.Require().NoError(err)
	s.store = kv.NewMemoryStore()
}

// fakeProber answers from a fixed table; unknown candidates fail.
func fakeProber(reachable map[string]bool) Prober {
	return ProberFunc(func(ctx context.Context, candidate string) models.ProbeResult {
		if reachable[candidate] {
			return models.ProbeResult{URL: candidate, Status: models.ProbeSuccess, Data: map[string]any{"status": "ok"}}
		}
		return models.ProbeResult{URL: candidate, Status: models.ProbeError, Error: TimedOutMessage}
	})
}

func (s *ResolverTestSuite) resolver(candidates []string, prober Prober) *Resolver {
	return NewResolver(s.endpoint, candidates, prober, s.store)
}

func (s *ResolverTestSuite) TestTestConnectionOnePerCandidate() {
	candidates := []string{"http://a:8000", "http://b:8000", "http://c:8000"}
	resolver := s.resolver(candidates, fakeProber(map[string]bool{"http://b:8000": true}))

	results := resolver.TestConnection(s.ctx)

	s.Require().Len(results, 3)
	for i, candidate := range candidates {
		s.Equal(candidate, results[i].URL)
	}
	s.Equal(models.ProbeError, results[0].Status)
	s.Equal(models.ProbeSuccess, results[1].Status)
	s.Equal(models.ProbeError, results[2].Status)
}

func (s *ResolverTestSuite) TestGetBestURLFirstSuccessWins() {
	candidates := []string{"http://a:8000", "http://b:8000", "http://c:8000"}
	resolver := s.resolver(candidates, fakeProber(map[string]bool{"http://b:8000": true, "http://c:8000": true}))

	best, err := resolver.GetBestURL(s.ctx)

	s.Require().NoError(err)
	s.Equal("http://b:8000", best)
	s.Equal(testPrimary, s.endpoint.BaseURL(), "GetBestURL must not change the base URL")
}

func (s *ResolverTestSuite) TestGetBestURLNoneReachable() {
	resolver := s.resolver([]string{"http://a:8000", "http://b:8000"}, fakeProber(nil))

	best, err := resolver.GetBestURL(s.ctx)

	s.Empty(best)
	s.ErrorIs(err, ErrNoReachableBackend)
	s.Contains(err.Error(), "http://a:8000")
}

func (s *ResolverTestSuite) TestGetBestURLNoCandidates() {
	resolver := s.resolver(nil, fakeProber(nil))

	_, err := resolver.GetBestURL(s.ctx)
	s.ErrorIs(err, ErrNoReachableBackend)
}

func (s *ResolverTestSuite) TestApplyBestURL() {
	resolver := s.resolver([]string{"http://a:8000", "http://b:8000"}, fakeProber(map[string]bool{"http://b:8000": true}))

	best, err := resolver.ApplyBestURL(s.ctx)

	s.Require().NoError(err)
	s.Equal("http://b:8000", best)
	s.Equal("http://b:8000", s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestApplyBestURLFailureKeepsBaseURL() {
	resolver := s.resolver([]string{"http://a:8000"}, fakeProber(nil))

	_, err := resolver.ApplyBestURL(s.ctx)

	s.ErrorIs(err, ErrNoReachableBackend)
	s.Equal(testPrimary, s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestSetModeOffline() {
	resolver := s.resolver(nil, fakeProber(nil))

	s.Require().NoError(resolver.SetMode(s.ctx, models.ModeOffline))

	s.Equal(testPrimary+"/hybrid", s.endpoint.BaseURL())
	s.Equal(models.ModeOffline, s.endpoint.Mode())
	stored, err := s.store.Get(s.ctx, kv.ModeKey)
	s.Require().NoError(err)
	s.Equal("offline", stored)
}

func (s *ResolverTestSuite) TestSetModeRoundTrip() {
	resolver := s.resolver(nil, fakeProber(nil))
	before := s.endpoint.BaseURL()

	s.Require().NoError(resolver.SetMode(s.ctx, models.ModeOffline))
	s.Require().NoError(resolver.SetMode(s.ctx, models.ModeOnline))

	s.Equal(before, s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestSetModeIdempotent() {
	resolver := s.resolver(nil, fakeProber(nil))

	s.Require().NoError(resolver.SetMode(s.ctx, models.ModeOffline))
	first := s.endpoint.BaseURL()
	s.Require().NoError(resolver.SetMode(s.ctx, models.ModeOffline))

	s.Equal(first, s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestSetModeInvalid() {
	resolver := s.resolver(nil, fakeProber(nil))

	err := resolver.SetMode(s.ctx, models.NetworkMode("satellite"))

	s.ErrorIs(err, ErrInvalidMode)
	s.Equal(testPrimary, s.endpoint.BaseURL())
	_, getErr := s.store.Get(s.ctx, kv.ModeKey)
	s.ErrorIs(getErr, kv.ErrNotFound)
}

func (s *ResolverTestSuite) TestSetModePersistFailureKeepsSwitch() {
	resolver := s.resolver(nil, fakeProber(nil))
	s.store.Close()

	err := resolver.SetMode(s.ctx, models.ModeOffline)

	s.ErrorIs(err, kv.ErrClosed)
	s.Equal(testPrimary+"/hybrid", s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestGetModeDefaultsToOnline() {
	resolver := s.resolver(nil, fakeProber(nil))
	s.Equal(models.ModeOnline, resolver.GetMode(s.ctx))

	s.Require().NoError(s.store.Set(s.ctx, kv.ModeKey, "hybrid-ish"))
	s.Equal(models.ModeOnline, resolver.GetMode(s.ctx))

	s.Require().NoError(s.store.Set(s.ctx, kv.ModeKey, "offline"))
	s.Equal(models.ModeOffline, resolver.GetMode(s.ctx))
}

func (s *ResolverTestSuite) TestGetModeDoesNotApply() {
	s.Require().NoError(s.store.Set(s.ctx, kv.ModeKey, "offline"))
	resolver := s.resolver(nil, fakeProber(nil))

	s.Equal(models.ModeOffline, resolver.GetMode(s.ctx))
	s.Equal(testPrimary, s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestRestoreMode() {
	s.Require().NoError(s.store.Set(s.ctx, kv.ModeKey, "offline"))
	resolver := s.resolver(nil, fakeProber(nil))

	mode, err := resolver.RestoreMode(s.ctx)

	s.Require().NoError(err)
	s.Equal(models.ModeOffline, mode)
	s.Equal(testPrimary+"/hybrid", s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestApplyBestURLPersistsOrigin() {
	resolver := s.resolver([]string{"http://a:8000", "http://b:8000"}, fakeProber(map[string]bool{"http://b:8000": true}))

	best, err := resolver.ApplyBestURL(s.ctx)

	s.Require().NoError(err)
	s.Equal("http://b:8000", best)
	stored, err := s.store.Get(s.ctx, kv.BaseURLKey)
	s.Require().NoError(err)
	s.Equal("http://b:8000", stored)
}

func (s *ResolverTestSuite) TestApplyBestURLPersistFailureKeepsOrigin() {
	resolver := s.resolver([]string{"http://b:8000"}, fakeProber(map[string]bool{"http://b:8000": true}))
	s.store.Close()

	best, err := resolver.ApplyBestURL(s.ctx)

	s.ErrorIs(err, kv.ErrClosed)
	s.Equal("http://b:8000", best)
	s.Equal("http://b:8000", s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestRestoreModeAppliesPersistedOrigin() {
	s.Require().NoError(s.store.Set(s.ctx, kv.BaseURLKey, "http://10.0.2.2:8000"))
	resolver := s.resolver(nil, fakeProber(nil))

	mode, err := resolver.RestoreMode(s.ctx)

	s.Require().NoError(err)
	s.Equal(models.ModeOnline, mode)
	s.Equal("http://10.0.2.2:8000", s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestRestoreModeIgnoresInvalidOrigin() {
	s.Require().NoError(s.store.Set(s.ctx, kv.ModeKey, "offline"))
	s.Require().NoError(s.store.Set(s.ctx, kv.BaseURLKey, "not a url"))
	resolver := s.resolver(nil, fakeProber(nil))

	_, err := resolver.RestoreMode(s.ctx)

	s.Require().NoError(err)
	s.Equal(testPrimary+"/hybrid", s.endpoint.BaseURL())
}

func (s *ResolverTestSuite) TestSetModeClearsAppliedOrigin() {
	resolver := s.resolver([]string{"http://b:8000"}, fakeProber(map[string]bool{"http://b:8000": true}))
	_, err := resolver.ApplyBestURL(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(resolver.SetMode(s.ctx, models.ModeOnline))

	s.Equal(testPrimary, s.endpoint.BaseURL())
	_, getErr := s.store.Get(s.ctx, kv.BaseURLKey)
	s.ErrorIs(getErr, kv.ErrNotFound)
}

func (s *ResolverTestSuite) TestStatus() {
	resolver := s.resolver([]string{"http://a:8000"}, fakeProber(nil))

	status := resolver.Status()

	s.Equal(testPrimary, status.BaseURL)
	s.Equal(models.ModeOnline, status.Mode)
	s.Equal([]string{"http://a:8000"}, status.Candidates)

	status.Candidates[0] = "mutated"
	s.Equal("http://a:8000", resolver.Candidates()[0])
}

func (s *ResolverTestSuite) TestTimeoutThenHealthyScenario() {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer healthy.Close()

	client := fetch.New(s.endpoint, fetch.WithHTTPClient(&http.Client{}))
	resolver := s.resolver([]string{slow.URL, healthy.URL}, NewHTTPProber(client, 100*time.Millisecond))

	results := resolver.TestConnection(s.ctx)

	s.Require().Len(results, 2)
	s.Equal(slow.URL, results[0].URL)
	s.Equal(models.ProbeError, results[0].Status)
	s.Equal(TimedOutMessage, results[0].Error)
	s.Equal(healthy.URL, results[1].URL)
	s.Equal(models.ProbeSuccess, results[1].Status)
	s.Equal(map[string]any{"status": "ok"}, results[1].Data)

	best, err := resolver.GetBestURL(s.ctx)
	s.Require().NoError(err)
	s.Equal(healthy.URL, best)
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}
