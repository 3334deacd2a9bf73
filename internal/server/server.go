// Package server exposes the gateway over HTTP: the read-only operator
// endpoints and the typed data endpoints used by the application.
package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/sportsdata-gateway/pkg/gateway"
	"github.com/Sternrassler/sportsdata-gateway/pkg/metrics"
	"github.com/Sternrassler/sportsdata-gateway/pkg/sportsdata"
	"github.com/Sternrassler/sportsdata-gateway/pkg/usage"
)

// unavailableMessage is the only failure detail end users see.
const unavailableMessage = "data temporarily unavailable"

// Server wires the gateway, typed client and usage monitor to routes.
type Server struct {
	gateway *gateway.Gateway
	data    *sportsdata.Client
	monitor *usage.Monitor
	logger  zerolog.Logger

	// RequestTimeout bounds each request, rate limit wait included.
	RequestTimeout time.Duration
}

// New creates a server.
func New(gw *gateway.Gateway, data *sportsdata.Client, monitor *usage.Monitor, logger zerolog.Logger) *Server {
	return &Server{
		gateway:        gw,
		data:           data,
		monitor:        monitor,
		logger:         logger,
		RequestTimeout: 90 * time.Second,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.RequestTimeout))

	r.Get("/health", s.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/status", func(r chi.Router) {
		r.Get("/ratelimit", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.gateway.RateLimitStatus())
		})
		r.Get("/cache", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.gateway.CacheStats())
		})
		r.Get("/usage", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.monitor.Stats())
		})
		r.Get("/quota", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.monitor.QuotaStatus())
		})
		r.Get("/alerts", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.monitor.Alerts())
		})
		r.Get("/report", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.monitor.DailyReport())
		})
	})
	r.Get("/simulate", s.simulate)

	r.Route("/api", func(r chi.Router) {
		r.Get("/fixtures/live", s.liveFixtures)
		r.Get("/fixtures/{round}", s.fixtures)
		r.Get("/teams", s.teams)
		r.Get("/table", s.table)
		r.Get("/standings", s.standings)
		r.Get("/injuries", s.injuries)
		r.Get("/players", s.allPlayers)
		r.Get("/players/team/{teamID}", s.playersByTeam)
		r.Get("/players/{playerID}/stats", s.playerStats)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			return
		}
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	users, err := strconv.Atoi(r.URL.Query().Get("users"))
	if err != nil || users <= 0 {
		writeError(w, http.StatusBadRequest, "users must be a positive integer")
		return
	}
	writeJSON(w, http.StatusOK, s.monitor.SimulateTrafficSurge(users))
}

func (s *Server) fixtures(w http.ResponseWriter, r *http.Request) {
	round, ok := intParam(w, r, "round")
	if !ok {
		return
	}
	list, err := s.data.FixtureList(r.Context(), round)
	s.respond(w, r, list, err)
}

func (s *Server) liveFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures, err := s.data.LiveFixtures(r.Context())
	s.respond(w, r, fixtures, err)
}

func (s *Server) teams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.data.Teams(r.Context())
	s.respond(w, r, teams, err)
}

func (s *Server) table(w http.ResponseWriter, r *http.Request) {
	table, err := s.data.TeamTable(r.Context())
	s.respond(w, r, table, err)
}

func (s *Server) standings(w http.ResponseWriter, r *http.Request) {
	rows, err := s.data.Standings(r.Context())
	s.respond(w, r, rows, err)
}

func (s *Server) injuries(w http.ResponseWriter, r *http.Request) {
	injuries, err := s.data.Injuries(r.Context())
	s.respond(w, r, injuries, err)
}

func (s *Server) allPlayers(w http.ResponseWriter, r *http.Request) {
	roster, err := s.data.AllPlayers(r.Context())
	for _, f := range roster.Failed {
		s.logger.Warn().Err(f.Err).Int("team_id", f.TeamID).Msg("Squad missing from player list")
	}
	s.respond(w, r, roster, err)
}

func (s *Server) playersByTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := intParam(w, r, "teamID")
	if !ok {
		return
	}
	squad, err := s.data.PlayersByTeam(r.Context(), teamID)
	s.respond(w, r, squad, err)
}

func (s *Server) playerStats(w http.ResponseWriter, r *http.Request) {
	playerID, ok := intParam(w, r, "playerID")
	if !ok {
		return
	}
	profile, found, err := s.data.PlayerStats(r.Context(), playerID)
	if err == nil && !found {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	s.respond(w, r, profile, err)
}

// respond writes v, or maps err to a status with a generic body. The
// detail only goes to the log.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}

	status := StatusFor(err)
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(gwErr.RetryAfter.Seconds()))))
	}

	s.logger.Warn().
		Err(err).
		Str("path", r.URL.Path).
		Str("error_kind", string(gateway.KindOf(err))).
		Int("status", status).
		Msg("Data request failed")

	writeError(w, status, unavailableMessage)
}

// StatusFor maps a gateway failure to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, gateway.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gateway.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, strings.ToLower(name)+" must be a positive integer")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
