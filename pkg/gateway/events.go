package gateway

import (
	"time"
)

// CacheHit is emitted when a request is served from the cache.
type CacheHit struct {
	Resource string
	At       time.Time
}

// APISuccess is emitted after a successful upstream request.
type APISuccess struct {
	Resource   string
	StatusCode int
	Duration   time.Duration
	At         time.Time
}

// APIError is emitted when a cache miss ends in a failure.
type APIError struct {
	Resource   string
	Kind       ErrorKind
	StatusCode int
	At         time.Time

	// Upstream is true when the request reached the upstream and so
	// consumed quota.
	Upstream bool
}

// Listener observes gateway events. Implementations must not block; they
// run on the request path.
type Listener interface {
	OnCacheHit(CacheHit)
	OnAPISuccess(APISuccess)
	OnAPIError(APIError)
}

// ListenerFuncs adapts optional functions to a Listener.
type ListenerFuncs struct {
	CacheHit   func(CacheHit)
	APISuccess func(APISuccess)
	APIError   func(APIError)
}

// OnCacheHit calls f.CacheHit if set.
func (f ListenerFuncs) OnCacheHit(e CacheHit) {
	if f.CacheHit != nil {
		f.CacheHit(e)
	}
}

// OnAPISuccess calls f.APISuccess if set.
func (f ListenerFuncs) OnAPISuccess(e APISuccess) {
	if f.APISuccess != nil {
		f.APISuccess(e)
	}
}

// OnAPIError calls f.APIError if set.
func (f ListenerFuncs) OnAPIError(e APIError) {
	if f.APIError != nil {
		f.APIError(e)
	}
}

// Subscribe registers a listener for all future events.
func (g *Gateway) Subscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

func (g *Gateway) snapshotListeners() []Listener {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Listener(nil), g.listeners...)
}

func (g *Gateway) emitCacheHit(e CacheHit) {
	for _, l := range g.snapshotListeners() {
		l.OnCacheHit(e)
	}
}

func (g *Gateway) emitAPISuccess(e APISuccess) {
	for _, l := range g.snapshotListeners() {
		l.OnAPISuccess(e)
	}
}

func (g *Gateway) emitAPIError(e APIError) {
	for _, l := range g.snapshotListeners() {
		l.OnAPIError(e)
	}
}
