// Package sportsdata provides typed operations over the gateway for an
// API-Football style upstream: fixtures, teams, standings, squads,
// injuries and player statistics, plus shaped views for the application.
//
// Every call goes through gateway.Gateway, so caching, rate limiting and
// usage accounting apply per upstream resource.
package sportsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/sportsdata-gateway/pkg/batch"
	"github.com/Sternrassler/sportsdata-gateway/pkg/cache"
	"github.com/Sternrassler/sportsdata-gateway/pkg/gateway"
	"github.com/Sternrassler/sportsdata-gateway/pkg/logging"
)

// Fetcher is the part of gateway.Gateway the client needs.
type Fetcher interface {
	Fetch(ctx context.Context, resourceKey string, ep gateway.Endpoint) (json.RawMessage, error)
}

// Config selects the competition.
type Config struct {
	League int
	Season int
	Batch  batch.Config
}

// DefaultConfig returns the Premier League 2026 season.
func DefaultConfig() Config {
	return Config{
		League: 39,
		Season: 2026,
		Batch:  batch.DefaultConfig(),
	}
}

// Client issues typed requests for one league and season.
type Client struct {
	fetcher Fetcher
	batches *batch.Orchestrator
	league  int
	season  int
	logger  zerolog.Logger
}

// New creates a client.
func New(f Fetcher, cfg Config) (*Client, error) {
	if f == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.League <= 0 {
		return nil, fmt.Errorf("league must be > 0 (got %d)", cfg.League)
	}
	if cfg.Season <= 0 {
		return nil, fmt.Errorf("season must be > 0 (got %d)", cfg.Season)
	}

	return &Client{
		fetcher: f,
		batches: batch.New(cfg.Batch),
		league:  cfg.League,
		season:  cfg.Season,
		logger:  logging.NewLogger("sportsdata"),
	}, nil
}

func (c *Client) leagueQuery() url.Values {
	q := url.Values{}
	q.Set("league", strconv.Itoa(c.league))
	q.Set("season", strconv.Itoa(c.season))
	return q
}

// get fetches one resource and decodes the unwrapped payload into T.
// Fresh payloads are decoded before the gateway caches them, so a payload
// of the wrong shape is never served from cache.
func get[T any](ctx context.Context, c *Client, key string, ep gateway.Endpoint) (T, error) {
	var out T

	decoded := false
	ep.Validate = func(raw json.RawMessage) error {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode %s payload: %w", ep.Path, err)
		}
		decoded = true
		return nil
	}

	raw, err := c.fetcher.Fetch(ctx, key, ep)
	if err != nil {
		var zero T
		return zero, err
	}
	if decoded {
		return out, nil
	}

	// cache hit
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &gateway.Error{
			Kind:     gateway.KindDecode,
			Resource: key,
			Err:      fmt.Errorf("decode %s payload: %w", ep.Path, err),
		}
	}

	return out, nil
}

// RoundName is the upstream label of a regular season round.
func RoundName(round int) string {
	return "Regular Season - " + strconv.Itoa(round)
}

// Fixtures returns the fixtures of one round.
func (c *Client) Fixtures(ctx context.Context, round int) ([]Fixture, error) {
	if round <= 0 {
		return nil, fmt.Errorf("round must be > 0 (got %d)", round)
	}
	q := c.leagueQuery()
	q.Set("round", RoundName(round))

	return get[[]Fixture](ctx, c, cache.Key("fixtures", "round", round), gateway.Endpoint{
		Path:  "/fixtures",
		Query: q,
		Class: cache.ClassFixtures,
	})
}

// LiveFixtures returns the league's matches in progress.
func (c *Client) LiveFixtures(ctx context.Context) ([]Fixture, error) {
	q := url.Values{}
	q.Set("live", "all")
	q.Set("league", strconv.Itoa(c.league))

	return get[[]Fixture](ctx, c, cache.Key("fixtures", "live"), gateway.Endpoint{
		Path:  "/fixtures",
		Query: q,
		Class: cache.ClassLive,
	})
}

// Teams returns every team in the league season.
func (c *Client) Teams(ctx context.Context) ([]TeamEntry, error) {
	return get[[]TeamEntry](ctx, c, cache.Key("teams"), gateway.Endpoint{
		Path:  "/teams",
		Query: c.leagueQuery(),
		Class: cache.ClassStatic,
	})
}

// Standings returns the table rows of every group, in upstream order.
func (c *Client) Standings(ctx context.Context) ([]Standing, error) {
	entries, err := get[[]standingsEntry](ctx, c, cache.Key("standings"), gateway.Endpoint{
		Path:  "/standings",
		Query: c.leagueQuery(),
		Class: cache.ClassStandings,
	})
	if err != nil {
		return nil, err
	}

	var rows []Standing
	for _, e := range entries {
		for _, group := range e.League.Standings {
			rows = append(rows, group...)
		}
	}
	return rows, nil
}

// PlayersByTeam returns the current squad of one team.
func (c *Client) PlayersByTeam(ctx context.Context, teamID int) (Squad, error) {
	q := url.Values{}
	q.Set("team", strconv.Itoa(teamID))

	squads, err := get[[]Squad](ctx, c, cache.Key("players", "team", teamID), gateway.Endpoint{
		Path:  "/players/squads",
		Query: q,
		Class: cache.ClassPlayers,
	})
	if err != nil {
		return Squad{}, err
	}
	if len(squads) == 0 {
		return Squad{Team: TeamRef{ID: teamID}}, nil
	}
	return squads[0], nil
}

// TeamFailure records a team whose squad could not be fetched.
type TeamFailure struct {
	TeamID   int    `json:"team_id"`
	TeamName string `json:"team_name"`
	Err      error  `json:"-"`
}

// RosterPlayer is a squad player with the team it belongs to.
type RosterPlayer struct {
	SquadPlayer
	TeamID   int    `json:"team_id"`
	TeamName string `json:"team_name"`
}

// Roster is the league-wide player list. Failed lists the teams whose
// squads are missing from Players.
type Roster struct {
	Players []RosterPlayer `json:"players"`
	Failed  []TeamFailure  `json:"failed,omitempty"`
}

// AllPlayers fetches the squad of every team in throttled batches. A team
// that fails is reported in Failed; only a failure to list the teams
// themselves is returned as an error.
func (c *Client) AllPlayers(ctx context.Context) (Roster, error) {
	teams, err := c.Teams(ctx)
	if err != nil {
		return Roster{}, err
	}

	results := batch.Run(ctx, c.batches, teams, func(ctx context.Context, t TeamEntry) (Squad, error) {
		return c.PlayersByTeam(ctx, t.Team.ID)
	})

	var roster Roster
	for _, r := range results {
		if !r.OK() {
			roster.Failed = append(roster.Failed, TeamFailure{
				TeamID:   r.Parent.Team.ID,
				TeamName: r.Parent.Team.Name,
				Err:      r.Err,
			})
			continue
		}
		for _, p := range r.Value.Players {
			roster.Players = append(roster.Players, RosterPlayer{
				SquadPlayer: p,
				TeamID:      r.Parent.Team.ID,
				TeamName:    r.Parent.Team.Name,
			})
		}
	}

	if len(roster.Failed) > 0 {
		c.logger.Warn().
			Int("teams", len(teams)).
			Int("failed", len(roster.Failed)).
			Msg("Player list is incomplete")
	}

	return roster, nil
}

// Injuries returns current injuries in the league season.
func (c *Client) Injuries(ctx context.Context) ([]Injury, error) {
	return get[[]Injury](ctx, c, cache.Key("injuries"), gateway.Endpoint{
		Path:  "/injuries",
		Query: c.leagueQuery(),
		Class: cache.ClassInjuries,
	})
}

// PlayerStats returns one player's season statistics. ok is false when
// the upstream knows no such player.
func (c *Client) PlayerStats(ctx context.Context, playerID int) (profile PlayerProfile, ok bool, err error) {
	q := url.Values{}
	q.Set("id", strconv.Itoa(playerID))
	q.Set("season", strconv.Itoa(c.season))

	profiles, err := get[[]PlayerProfile](ctx, c, cache.Key("player_stats", playerID), gateway.Endpoint{
		Path:  "/players",
		Query: q,
		Class: cache.ClassPlayerStats,
	})
	if err != nil || len(profiles) == 0 {
		return PlayerProfile{}, false, err
	}
	return profiles[0], true, nil
}
