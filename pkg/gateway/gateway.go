// Package gateway provides the quota-aware caching façade in front of the
// upstream sports-data API. Every fetch consults the cache first, then the
// dual-window rate limiter, and only then spends upstream quota.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/sportsdata-gateway/pkg/cache"
	"github.com/Sternrassler/sportsdata-gateway/pkg/clock"
	"github.com/Sternrassler/sportsdata-gateway/pkg/logging"
	"github.com/Sternrassler/sportsdata-gateway/pkg/quota"
	"github.com/Sternrassler/sportsdata-gateway/pkg/ratelimit"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 16 << 20

// Endpoint describes one upstream request.
type Endpoint struct {
	// Path is appended to the configured base URL (e.g. "/fixtures").
	Path string

	// Query holds the request parameters.
	Query url.Values

	// Class selects the cache TTL.
	Class cache.Class

	// TTL overrides the class TTL when > 0.
	TTL time.Duration

	// Validate, when set, checks the unwrapped payload before it is cached.
	// A failure is returned as a decode error and nothing is stored.
	Validate func(json.RawMessage) error
}

// Config holds the gateway configuration.
type Config struct {
	// BaseURL of the upstream API (REQUIRED)
	BaseURL string

	// APIKey sent with every request (REQUIRED)
	APIKey string

	// APIKeyHeader names the header carrying APIKey.
	APIKeyHeader string

	// Host is sent in HostHeader when set (marketplace deployments).
	Host       string
	HostHeader string

	UserAgent string

	// Timeout bounds each upstream request.
	Timeout time.Duration

	// MaxWait bounds the single sleep while waiting for rate limit headroom.
	MaxWait time.Duration

	Limits ratelimit.Config
	TTLs   cache.TTLTable

	// SweepInterval is how often stale cache entries are purged.
	SweepInterval time.Duration

	// WindowNudgeInterval rolls idle rate limit windows (0 disables).
	WindowNudgeInterval time.Duration

	// Shared is an optional cross-process daily counter.
	Shared quota.Counter

	// Clock and HTTPClient are injectable for tests.
	Clock      clock.Clock
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration sized for a constrained free tier.
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL:             baseURL,
		APIKey:              apiKey,
		APIKeyHeader:        "x-apisports-key",
		HostHeader:          "x-rapidapi-host",
		UserAgent:           "sportsdata-gateway/0.1.0",
		Timeout:             10 * time.Second,
		MaxWait:             65 * time.Second,
		Limits:              ratelimit.DefaultConfig(),
		TTLs:                cache.DefaultTTLs(),
		SweepInterval:       5 * time.Minute,
		WindowNudgeInterval: 30 * time.Second,
	}
}

// Gateway mediates all access to the upstream API.
type Gateway struct {
	httpClient *http.Client
	cache      *cache.Store
	limiter    *ratelimit.Limiter
	shared     quota.Counter
	clock      clock.Clock
	config     Config
	logger     zerolog.Logger

	mu        sync.RWMutex
	listeners []Listener

	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a gateway with its own cache store and rate limiter.
func New(cfg Config) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "x-apisports-key"
	}
	if cfg.TTLs == nil {
		cfg.TTLs = cache.DefaultTTLs()
	}
	if cfg.MaxWait < 0 {
		cfg.MaxWait = 0
	}

	logger := logging.NewLogger("gateway")
	clk := clock.OrReal(cfg.Clock)

	limiter, err := ratelimit.New(cfg.Limits, clk, logger.With().Str("subcomponent", "ratelimit").Logger())
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Gateway{
		httpClient: httpClient,
		cache:      cache.NewStore(clk, logger.With().Str("subcomponent", "cache").Logger()),
		limiter:    limiter,
		shared:     cfg.Shared,
		clock:      clk,
		config:     cfg,
		logger:     logger,
		sleep:      sleepContext,
	}, nil
}

// Start launches the cache sweeper and the window nudger. Both stop when
// ctx is cancelled.
func (g *Gateway) Start(ctx context.Context) {
	g.cache.StartSweeper(ctx, g.config.SweepInterval)
	g.limiter.StartWindowNudger(ctx, g.config.WindowNudgeInterval)
}

// Fetch returns the payload for resourceKey, from cache when valid and from
// the upstream otherwise. An empty resourceKey is derived from the endpoint.
//
// Failures are *Error values of kind rate_limited, upstream, timeout or
// decode. Fetch never retries and never serves stale data.
func (g *Gateway) Fetch(ctx context.Context, resourceKey string, ep Endpoint) (json.RawMessage, error) {
	if resourceKey == "" {
		resourceKey = cache.QueryKey(ep.Path, ep.Query)
	}

	// Step 1: Check Cache
	if data, ok := g.cache.Get(resourceKey); ok {
		if payload, ok := data.(json.RawMessage); ok {
			g.emitCacheHit(CacheHit{Resource: resourceKey, At: g.clock.Now()})
			return payload, nil
		}
		g.logger.Warn().Str("resource", resourceKey).Msg("Ignoring cache entry with unexpected payload type")
	}

	// Step 2: Reserve rate limit budget
	sharedHeld, err := g.reserve(ctx, resourceKey)
	if err != nil {
		return nil, g.fail(err, false)
	}

	req, err := g.newRequest(ctx, ep)
	if err != nil {
		// nothing was sent, so the budget is handed back
		g.release(ctx, resourceKey, sharedHeld)
		return nil, g.fail(&Error{Kind: KindUpstream, Resource: resourceKey, Err: err}, false)
	}

	// Step 3: Execute upstream request
	start := time.Now()
	payload, status, err := g.do(ctx, resourceKey, ep, req)
	duration := time.Since(start)
	if err != nil {
		return nil, g.fail(err, true)
	}

	if ep.Validate != nil {
		if err := ep.Validate(payload); err != nil {
			return nil, g.fail(&Error{
				Kind:       KindDecode,
				Resource:   resourceKey,
				StatusCode: status,
				Body:       truncate(payload),
				Err:        err,
			}, true)
		}
	}

	// Step 4: Cache and report
	ttl := ep.TTL
	if ttl <= 0 {
		ttl = g.config.TTLs.For(ep.Class)
	}
	g.cache.Put(resourceKey, payload, ttl)

	g.logger.Info().
		Str("resource", resourceKey).
		Str("endpoint", ep.Path).
		Int("status_code", status).
		Dur("duration", duration).
		Dur("ttl", ttl).
		Msg("Upstream request succeeded")

	g.emitAPISuccess(APISuccess{
		Resource:   resourceKey,
		StatusCode: status,
		Duration:   duration,
		At:         g.clock.Now(),
	})

	return payload, nil
}

// reserve obtains local (and, when configured, shared) budget for one
// request. A blocked request waits once, bounded by MaxWait, then re-checks.
// sharedHeld reports whether the shared counter counted the request.
func (g *Gateway) reserve(ctx context.Context, resource string) (sharedHeld bool, err error) {
	ok, wait := g.limiter.TryReserve()
	if !ok {
		if wait > g.config.MaxWait {
			wait = g.config.MaxWait
		}

		g.logger.Warn().
			Str("resource", resource).
			Dur("wait", wait).
			Msg("Waiting for rate limit headroom")

		waitStart := time.Now()
		if err := g.sleep(ctx, wait); err != nil {
			return false, &Error{
				Kind:     KindRateLimited,
				Resource: resource,
				Source:   SourceLocal,
				Err:      fmt.Errorf("wait for rate limit: %w", err),
			}
		}
		rateLimitWaitSeconds.Observe(time.Since(waitStart).Seconds())

		ok, wait = g.limiter.TryReserve()
		if !ok {
			return false, &Error{Kind: KindRateLimited, Resource: resource, Source: SourceLocal, RetryAfter: wait}
		}
	}

	if g.shared == nil {
		return false, nil
	}

	allowed, err := g.shared.Reserve(ctx)
	if err != nil {
		// shared store unavailable: local windows still apply
		g.logger.Warn().Err(err).Str("resource", resource).Msg("Shared quota check failed")
		return false, nil
	}
	if !allowed {
		g.limiter.Release()
		return false, &Error{Kind: KindRateLimited, Resource: resource, Source: SourceShared}
	}

	return true, nil
}

// release hands back the reservations of a request that was never sent.
func (g *Gateway) release(ctx context.Context, resource string, sharedHeld bool) {
	g.limiter.Release()
	if !sharedHeld {
		return
	}
	if err := g.shared.Release(ctx); err != nil {
		g.logger.Warn().Err(err).Str("resource", resource).Msg("Failed to release shared quota")
	}
}

// do sends req under the per-call timeout and unwraps the response envelope.
func (g *Gateway) do(ctx context.Context, resource string, ep Endpoint, req *http.Request) (json.RawMessage, int, error) {
	class := string(ep.Class)
	if class == "" {
		class = "unclassified"
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.httpClient.Do(req.WithContext(reqCtx))
	upstreamRequestDuration.WithLabelValues(class).Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(reqCtx, err) {
			upstreamRequestsTotal.WithLabelValues(class, "timeout").Inc()
			return nil, 0, &Error{Kind: KindTimeout, Resource: resource, Err: err}
		}
		upstreamRequestsTotal.WithLabelValues(class, "network_error").Inc()
		return nil, 0, &Error{Kind: KindUpstream, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(class, strconv.Itoa(resp.StatusCode)).Inc()

	// Reconcile the daily budget with upstream truth
	if err := g.limiter.SyncFromHeaders(resp.Header); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to sync rate limit from headers")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(reqCtx, err) {
			return nil, resp.StatusCode, &Error{Kind: KindTimeout, Resource: resource, StatusCode: resp.StatusCode, Err: err}
		}
		return nil, resp.StatusCode, &Error{Kind: KindUpstream, Resource: resource, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, &Error{
			Kind:       KindRateLimited,
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Source:     SourceUpstream,
			Body:       truncate(body),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, &Error{
			Kind:       KindUpstream,
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Body:       truncate(body),
		}
	}

	payload, err := g.unwrap(resource, body)
	if err != nil {
		return nil, resp.StatusCode, &Error{Kind: KindDecode, Resource: resource, StatusCode: resp.StatusCode, Body: truncate(body), Err: err}
	}

	return payload, resp.StatusCode, nil
}

func (g *Gateway) newRequest(ctx context.Context, ep Endpoint) (*http.Request, error) {
	target := strings.TrimRight(g.config.BaseURL, "/") + "/" + strings.TrimLeft(ep.Path, "/")
	if len(ep.Query) > 0 {
		target += "?" + ep.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(g.config.APIKeyHeader, g.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if g.config.Host != "" && g.config.HostHeader != "" {
		req.Header.Set(g.config.HostHeader, g.config.Host)
	}
	if g.config.UserAgent != "" {
		req.Header.Set("User-Agent", g.config.UserAgent)
	}

	return req, nil
}

// envelope is the upstream response wrapper.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Errors   json.RawMessage `json:"errors"`
}

// unwrap extracts the payload from the { "response": ... } envelope.
func (g *Gateway) unwrap(resource string, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("envelope has no response field")
	}

	if hasErrors(env.Errors) {
		g.logger.Warn().
			Str("resource", resource).
			RawJSON("upstream_errors", env.Errors).
			Msg("Upstream reported errors alongside a response")
	}

	return env.Response, nil
}

// fail records and reports a failure. reached is true when the request hit
// the upstream.
func (g *Gateway) fail(err error, reached bool) error {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		gwErr = &Error{Kind: KindUpstream, Err: err}
	}

	gatewayErrorsTotal.WithLabelValues(string(gwErr.Kind)).Inc()

	event := g.logger.Error()
	if gwErr.Kind == KindRateLimited {
		event = g.logger.Warn()
	}
	event.
		Str("resource", gwErr.Resource).
		Str("error_kind", string(gwErr.Kind)).
		Int("status_code", gwErr.StatusCode).
		Str("source", gwErr.Source).
		Err(gwErr.Err).
		Msg("Gateway fetch failed")

	g.emitAPIError(APIError{
		Resource:   gwErr.Resource,
		Kind:       gwErr.Kind,
		StatusCode: gwErr.StatusCode,
		At:         g.clock.Now(),
		Upstream:   reached && gwErr.StatusCode != 0,
	})

	return gwErr
}

// RateLimitStatus returns the limiter snapshot.
func (g *Gateway) RateLimitStatus() ratelimit.State {
	return g.limiter.Status()
}

// CacheStats returns the cache snapshot.
func (g *Gateway) CacheStats() cache.Stats {
	return g.cache.Stats()
}

// Cache returns the cache store (for testing and warm-up).
func (g *Gateway) Cache() *cache.Store {
	return g.cache
}

// Limiter returns the rate limiter (for testing).
func (g *Gateway) Limiter() *ratelimit.Limiter {
	return g.limiter
}

func hasErrors(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch string(trimmed) {
	case "null", "[]", "{}", `""`:
		return false
	}
	return true
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
