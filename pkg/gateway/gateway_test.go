package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/sportsdata-gateway/internal/testutil"
	"github.com/Sternrassler/sportsdata-gateway/pkg/cache"
	"github.com/Sternrassler/sportsdata-gateway/pkg/clock"
	"github.com/Sternrassler/sportsdata-gateway/pkg/ratelimit"
)

var testNow = time.Date(2026, 10, 17, 19, 30, 0, 0, time.UTC)

// recorder captures gateway events.
type recorder struct {
	mu        sync.Mutex
	hits      []CacheHit
	successes []APISuccess
	errs      []APIError
}

func (r *recorder) OnCacheHit(e CacheHit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, e)
}

func (r *recorder) OnAPISuccess(e APISuccess) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, e)
}

func (r *recorder) OnAPIError(e APIError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, e)
}

func (r *recorder) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hits), len(r.successes), len(r.errs)
}

func newTestGateway(t *testing.T, mock *testutil.MockUpstream, mutate func(*Config)) (*Gateway, *clock.Fake, *recorder) {
	t.Helper()

	clk := clock.NewFake(testNow)
	cfg := DefaultConfig(mock.URL(), "test-key")
	cfg.Clock = clk
	cfg.MaxWait = 10 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rec := &recorder{}
	g.Subscribe(rec)

	return g, clk, rec
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		errorMsg string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("https://v3.football.api-sports.io", "key"),
		},
		{
			name:     "missing base url",
			config:   DefaultConfig("", "key"),
			errorMsg: "base url is required",
		},
		{
			name:     "missing api key",
			config:   DefaultConfig("https://v3.football.api-sports.io", ""),
			errorMsg: "api key is required",
		},
		{
			name: "zero timeout",
			config: func() Config {
				c := DefaultConfig("https://v3.football.api-sports.io", "key")
				c.Timeout = 0
				return c
			}(),
			errorMsg: "timeout must be > 0 (got 0s)",
		},
		{
			name: "invalid limits",
			config: func() Config {
				c := DefaultConfig("https://v3.football.api-sports.io", "key")
				c.Limits = ratelimit.Config{PerMinute: 0, PerDay: 10}
				return c
			}(),
			errorMsg: "create rate limiter: per-minute limit must be > 0 (got 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.config)
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if g == nil {
					t.Fatal("expected gateway")
				}
				return
			}
			if err == nil {
				t.Fatal("expected error but got nil")
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestFetch_CacheMissThenHit(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetPayload("/teams", []map[string]any{{"team": map[string]any{"id": 33, "name": "Manchester United"}}})

	g, clk, rec := newTestGateway(t, mock, nil)
	ctx := context.Background()
	ep := Endpoint{Path: "/teams", Class: cache.ClassStatic}

	first, err := g.Fetch(ctx, "teams", ep)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if mock.RequestCount() != 1 {
		t.Fatalf("upstream requests = %d, want 1", mock.RequestCount())
	}
	if hits, ok, _ := rec.counts(); hits != 0 || ok != 1 {
		t.Errorf("events after miss: hits=%d successes=%d, want 0/1", hits, ok)
	}

	clk.Advance(time.Second)

	second, err := g.Fetch(ctx, "teams", ep)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("cache hit must not reach upstream, requests = %d", mock.RequestCount())
	}
	if string(first) != string(second) {
		t.Errorf("payload mismatch: %s vs %s", first, second)
	}
	if hits, ok, errs := rec.counts(); hits != 1 || ok != 1 || errs != 0 {
		t.Errorf("events after hit: hits=%d successes=%d errors=%d, want 1/1/0", hits, ok, errs)
	}
	if got := g.RateLimitStatus().RequestsThisMinute; got != 1 {
		t.Errorf("cache hit must not touch the limiter, RequestsThisMinute = %d", got)
	}

	var teams []map[string]any
	if err := json.Unmarshal(second, &teams); err != nil {
		t.Fatalf("payload is not the unwrapped response: %v", err)
	}
	if len(teams) != 1 {
		t.Errorf("teams = %d, want 1", len(teams))
	}

	// static TTL is 24h
	clk.Advance(24 * time.Hour)
	if _, err := g.Fetch(ctx, "teams", ep); err != nil {
		t.Fatalf("refetch failed: %v", err)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("stale entry must be refetched, requests = %d", mock.RequestCount())
	}
}

func TestFetch_RateLimitedWithinMinute(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	var slept []time.Duration
	g, _, rec := newTestGateway(t, mock, func(c *Config) {
		c.Limits = ratelimit.Config{PerMinute: 25, PerDay: 1000}
	})
	g.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	ctx := context.Background()
	for i := 1; i <= 25; i++ {
		key := cache.Key("fixtures", "round", i)
		if _, err := g.Fetch(ctx, key, Endpoint{Path: "/fixtures", Class: cache.ClassFixtures}); err != nil {
			t.Fatalf("fetch %d failed: %v", i, err)
		}
	}

	_, err := g.Fetch(ctx, "fixtures_round_26", Endpoint{Path: "/fixtures", Class: cache.ClassFixtures})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("26th fetch error = %v, want ErrRateLimited", err)
	}

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatal("expected *Error")
	}
	if gwErr.Source != SourceLocal {
		t.Errorf("Source = %q, want %q", gwErr.Source, SourceLocal)
	}
	if gwErr.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", gwErr.RetryAfter)
	}
	if mock.RequestCount() != 25 {
		t.Errorf("upstream requests = %d, want 25 (26th must not be attempted)", mock.RequestCount())
	}
	if len(slept) != 1 || slept[0] != 10*time.Millisecond {
		t.Errorf("slept = %v, want a single wait bounded by MaxWait", slept)
	}
	if _, _, errs := rec.counts(); errs != 1 {
		t.Errorf("api-error events = %d, want 1", errs)
	}
	if rec.errs[0].Upstream {
		t.Error("locally rate-limited request must not be reported as reaching upstream")
	}
}

func TestFetch_WaitsOnceThenProceeds(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	g, clk, _ := newTestGateway(t, mock, func(c *Config) {
		c.Limits = ratelimit.Config{PerMinute: 1, PerDay: 1000}
		c.MaxWait = 2 * time.Minute
	})

	var waited time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		waited = d
		clk.Advance(d)
		return nil
	}

	ctx := context.Background()
	if _, err := g.Fetch(ctx, "standings", Endpoint{Path: "/standings", Class: cache.ClassStandings}); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := g.Fetch(ctx, "injuries", Endpoint{Path: "/injuries", Class: cache.ClassInjuries}); err != nil {
		t.Fatalf("second fetch should succeed after waiting: %v", err)
	}

	if waited != time.Minute {
		t.Errorf("waited %v, want 1m", waited)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("upstream requests = %d, want 2", mock.RequestCount())
	}
}

func TestFetch_WaitCancelled(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	g, _, _ := newTestGateway(t, mock, func(c *Config) {
		c.Limits = ratelimit.Config{PerMinute: 1, PerDay: 1000}
		c.MaxWait = time.Minute
	})

	ctx := context.Background()
	if _, err := g.Fetch(ctx, "teams", Endpoint{Path: "/teams"}); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Fetch(ctx, "standings", Endpoint{Path: "/standings"})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("an abandoned wait is not an upstream timeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want wrapped context.DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("wait must stop when the context is done")
	}
	if mock.RequestCount() != 1 {
		t.Errorf("upstream requests = %d, want 1", mock.RequestCount())
	}
}

func TestFetch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		response     testutil.MockResponse
		timeout      time.Duration
		wantKind     ErrorKind
		wantSentinel error
		wantStatus   int
		wantUpstream bool
	}{
		{
			name:         "upstream 429",
			response:     testutil.NewRateLimitResponse(),
			wantKind:     KindRateLimited,
			wantSentinel: ErrRateLimited,
			wantStatus:   http.StatusTooManyRequests,
			wantUpstream: true,
		},
		{
			name:         "server error",
			response:     testutil.NewServerErrorResponse(),
			wantKind:     KindUpstream,
			wantSentinel: ErrUpstream,
			wantStatus:   http.StatusInternalServerError,
			wantUpstream: true,
		},
		{
			name:         "not found",
			response:     testutil.MockResponse{StatusCode: http.StatusNotFound, Body: "missing"},
			wantKind:     KindUpstream,
			wantSentinel: ErrUpstream,
			wantStatus:   http.StatusNotFound,
			wantUpstream: true,
		},
		{
			name:         "missing envelope",
			response:     testutil.NewMalformedResponse(),
			wantKind:     KindDecode,
			wantSentinel: ErrDecode,
			wantStatus:   http.StatusOK,
			wantUpstream: true,
		},
		{
			name:         "invalid json",
			response:     testutil.MockResponse{StatusCode: http.StatusOK, Body: "<html>"},
			wantKind:     KindDecode,
			wantSentinel: ErrDecode,
			wantStatus:   http.StatusOK,
			wantUpstream: true,
		},
		{
			name:         "timeout",
			response:     testutil.NewSlowResponse(500 * time.Millisecond),
			timeout:      50 * time.Millisecond,
			wantKind:     KindTimeout,
			wantSentinel: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockUpstream()
			defer mock.Close()
			mock.SetResponse("/fixtures", tt.response)

			g, _, rec := newTestGateway(t, mock, func(c *Config) {
				if tt.timeout > 0 {
					c.Timeout = tt.timeout
				}
			})

			payload, err := g.Fetch(context.Background(), "fixtures_live", Endpoint{Path: "/fixtures", Class: cache.ClassLive})
			if payload != nil {
				t.Errorf("payload = %s, want nil", payload)
			}
			if !errors.Is(err, tt.wantSentinel) {
				t.Fatalf("error = %v, want %v", err, tt.wantSentinel)
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf = %q, want %q", got, tt.wantKind)
			}

			var gwErr *Error
			errors.As(err, &gwErr)
			if gwErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", gwErr.StatusCode, tt.wantStatus)
			}
			if gwErr.Resource != "fixtures_live" {
				t.Errorf("Resource = %q", gwErr.Resource)
			}

			_, successes, errs := rec.counts()
			if successes != 0 || errs != 1 {
				t.Fatalf("events: successes=%d errors=%d, want 0/1", successes, errs)
			}
			if rec.errs[0].Kind != tt.wantKind || rec.errs[0].Upstream != tt.wantUpstream {
				t.Errorf("api-error event = %+v", rec.errs[0])
			}
			if g.CacheStats().Entries != 0 {
				t.Error("failures must not be cached")
			}
		})
	}
}

func TestFetch_UpstreamErrorCarriesBody(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse("/players", testutil.MockResponse{StatusCode: http.StatusBadGateway, Body: "bad gateway upstream"})

	g, _, _ := newTestGateway(t, mock, nil)
	_, err := g.Fetch(context.Background(), "", Endpoint{Path: "/players", Query: url.Values{"id": {"276"}}})

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gwErr.Body != "bad gateway upstream" {
		t.Errorf("Body = %q", gwErr.Body)
	}
	if gwErr.Resource != "players_id_276" {
		t.Errorf("derived resource = %q, want players_id_276", gwErr.Resource)
	}
}

func TestFetch_NoStaleFallback(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetPayload("/fixtures", []int{1})

	g, clk, _ := newTestGateway(t, mock, nil)
	ctx := context.Background()
	ep := Endpoint{Path: "/fixtures", Class: cache.ClassLive}

	if _, err := g.Fetch(ctx, "fixtures_live", ep); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	clk.Advance(2 * time.Minute)
	mock.SetResponse("/fixtures", testutil.NewServerErrorResponse())

	if _, err := g.Fetch(ctx, "fixtures_live", ep); !errors.Is(err, ErrUpstream) {
		t.Errorf("error = %v, want hard ErrUpstream failure without stale data", err)
	}
}

func TestFetch_HeaderReconciliation(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse("/standings", testutil.NewEnvelopeResponse(testutil.Envelope([]int{}), 40, 100))

	g, _, _ := newTestGateway(t, mock, nil)
	if _, err := g.Fetch(context.Background(), "standings", Endpoint{Path: "/standings"}); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	state := g.RateLimitStatus()
	if state.RemainingDaily != 40 {
		t.Errorf("RemainingDaily = %d, want 40 (upstream truth)", state.RemainingDaily)
	}
	if state.RequestsThisMinute != 1 {
		t.Errorf("RequestsThisMinute = %d, want 1", state.RequestsThisMinute)
	}
}

func TestFetch_RequestShape(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	g, _, _ := newTestGateway(t, mock, func(c *Config) {
		c.Host = "v3.football.api-sports.io"
	})

	ep := Endpoint{Path: "fixtures", Query: url.Values{"league": {"39"}, "season": {"2025"}}}
	if _, err := g.Fetch(context.Background(), "", ep); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	headers := mock.LastRequestHeader()
	if got := headers.Get("x-apisports-key"); got != "test-key" {
		t.Errorf("api key header = %q", got)
	}
	if got := headers.Get("x-rapidapi-host"); got != "v3.football.api-sports.io" {
		t.Errorf("host header = %q", got)
	}
	if got := headers.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
	if q := mock.LastQuery(); q["league"] != "39" || q["season"] != "2025" {
		t.Errorf("query = %v", q)
	}
	if mock.RequestsFor("/fixtures") != 1 {
		t.Errorf("path not joined correctly, requests = %d", mock.RequestsFor("/fixtures"))
	}
	if keys := g.CacheStats().Keys; len(keys) != 1 || keys[0] != "fixtures_league_39_season_2025" {
		t.Errorf("cache keys = %v", keys)
	}
}

func TestFetch_TTLOverride(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	g, clk, _ := newTestGateway(t, mock, nil)
	ctx := context.Background()
	ep := Endpoint{Path: "/teams", Class: cache.ClassStatic, TTL: 5 * time.Minute}

	g.Fetch(ctx, "teams", ep)
	clk.Advance(6 * time.Minute)
	g.Fetch(ctx, "teams", ep)

	if mock.RequestCount() != 2 {
		t.Errorf("upstream requests = %d, want 2 (TTL override must apply)", mock.RequestCount())
	}
}

func TestFetch_ConcurrentCallersRespectBudget(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	g, _, _ := newTestGateway(t, mock, func(c *Config) {
		c.Limits = ratelimit.Config{PerMinute: 10, PerDay: 1000}
		c.MaxWait = 0
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.Fetch(context.Background(), fmt.Sprintf("players_team_%d", i), Endpoint{Path: "/players/squads"})
		}(i)
	}
	wg.Wait()

	if got := mock.RequestCount(); got != 10 {
		t.Errorf("upstream requests = %d, want exactly 10", got)
	}
}

// fakeCounter is an in-memory quota.Counter.
type fakeCounter struct {
	mu       sync.Mutex
	allow    bool
	err      error
	reserved int
	released int
}

func (f *fakeCounter) Reserve(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.allow {
		f.reserved++
	}
	return f.allow, nil
}

func (f *fakeCounter) Release(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

func TestFetch_SharedCounter(t *testing.T) {
	tests := []struct {
		name         string
		counter      *fakeCounter
		wantErr      error
		wantRequests int
		wantToday    int
	}{
		{name: "shared budget available", counter: &fakeCounter{allow: true}, wantRequests: 1, wantToday: 1},
		{name: "shared budget exhausted", counter: &fakeCounter{allow: false}, wantErr: ErrRateLimited, wantRequests: 0, wantToday: 0},
		{name: "shared store down", counter: &fakeCounter{err: errors.New("connection refused")}, wantRequests: 1, wantToday: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockUpstream()
			defer mock.Close()
			mock.SetResponse("/teams", testutil.MockResponse{StatusCode: http.StatusOK, Body: testutil.Envelope([]int{})})

			g, _, _ := newTestGateway(t, mock, func(c *Config) {
				c.Shared = tt.counter
			})

			_, err := g.Fetch(context.Background(), "teams", Endpoint{Path: "/teams"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				var gwErr *Error
				errors.As(err, &gwErr)
				if gwErr.Source != SourceShared {
					t.Errorf("Source = %q, want %q", gwErr.Source, SourceShared)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if mock.RequestCount() != tt.wantRequests {
				t.Errorf("upstream requests = %d, want %d", mock.RequestCount(), tt.wantRequests)
			}
			if got := g.RateLimitStatus().RequestsToday; got != tt.wantToday {
				t.Errorf("RequestsToday = %d, want %d (denied reservations are released)", got, tt.wantToday)
			}
		})
	}
}

func TestFetch_ValidateRejectsBeforeCaching(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetPayload("/injuries", map[string]any{"unexpected": true})

	g, _, rec := newTestGateway(t, mock, nil)
	ep := Endpoint{
		Path:  "/injuries",
		Class: cache.ClassInjuries,
		Validate: func(raw json.RawMessage) error {
			var list []map[string]any
			return json.Unmarshal(raw, &list)
		},
	}

	for i := range 2 {
		_, err := g.Fetch(context.Background(), "injuries", ep)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("fetch %d: error = %v, want ErrDecode", i+1, err)
		}
	}

	if mock.RequestCount() != 2 {
		t.Errorf("upstream requests = %d, want 2 (rejected payload must not be cached)", mock.RequestCount())
	}
	if g.CacheStats().Entries != 0 {
		t.Errorf("cache entries = %d, want 0", g.CacheStats().Entries)
	}

	hits, ok, errs := rec.counts()
	if hits != 0 || ok != 0 || errs != 2 {
		t.Errorf("events: hits=%d successes=%d errors=%d, want 0/0/2", hits, ok, errs)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.errs[0].Upstream || rec.errs[0].StatusCode != http.StatusOK {
		t.Errorf("error event = %+v, want upstream 200", rec.errs[0])
	}
}

func TestFetch_UnsentRequestReleasesBudget(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	counter := &fakeCounter{allow: true}
	g, _, rec := newTestGateway(t, mock, func(c *Config) {
		c.Shared = counter
	})

	_, err := g.Fetch(context.Background(), "teams", Endpoint{Path: "/teams\n"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}

	if mock.RequestCount() != 0 {
		t.Errorf("upstream requests = %d, want 0", mock.RequestCount())
	}
	if got := g.RateLimitStatus().RequestsToday; got != 0 {
		t.Errorf("RequestsToday = %d, want 0", got)
	}
	if counter.reserved != 1 || counter.released != 1 {
		t.Errorf("shared reserved=%d released=%d, want 1/1", counter.reserved, counter.released)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 1 || rec.errs[0].Upstream {
		t.Errorf("error events = %+v, want one that did not reach upstream", rec.errs)
	}
}

func TestListenerFuncs(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	g, _, _ := newTestGateway(t, mock, nil)

	var successes int
	g.Subscribe(ListenerFuncs{APISuccess: func(APISuccess) { successes++ }})

	ctx := context.Background()
	g.Fetch(ctx, "teams", Endpoint{Path: "/teams"})
	g.Fetch(ctx, "teams", Endpoint{Path: "/teams"})

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
}

func TestHasErrors(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "", want: false},
		{raw: "[]", want: false},
		{raw: "{}", want: false},
		{raw: " null ", want: false},
		{raw: `{"token":"Error/Missing application key"}`, want: true},
		{raw: `["bad season"]`, want: true},
	}

	for _, tt := range tests {
		if got := hasErrors(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("hasErrors(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
