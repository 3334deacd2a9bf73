package sportsdata

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"
)

// SideSummary is one side of a fixture with a display code.
type SideSummary struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortCode string `json:"short_code"`
	Logo      string `json:"logo,omitempty"`
}

// FixtureSummary is the flattened fixture view used by the application.
type FixtureSummary struct {
	ID        int         `json:"id"`
	Kickoff   time.Time   `json:"kickoff"`
	Status    string      `json:"status"`
	Round     string      `json:"round"`
	Home      SideSummary `json:"home"`
	Away      SideSummary `json:"away"`
	HomeGoals *int        `json:"home_goals"`
	AwayGoals *int        `json:"away_goals"`
}

// TeamSummary is a team merged with its table row.
type TeamSummary struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortCode string `json:"short_code"`
	Logo      string `json:"logo,omitempty"`
	Venue     string `json:"venue,omitempty"`

	// Rank is 0 for teams without a standing.
	Rank     int    `json:"rank"`
	Points   int    `json:"points"`
	Played   int    `json:"played"`
	GoalDiff int    `json:"goal_diff"`
	Form     string `json:"form,omitempty"`
}

// ShortCode returns code when set, otherwise the first three letters of
// name upper-cased.
func ShortCode(code, name string) string {
	if code != "" {
		return code
	}

	var b strings.Builder
	n := 0
	for _, r := range name {
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if n++; n == 3 {
			break
		}
	}
	return b.String()
}

// ShapeFixtures flattens fixtures, resolving short codes from teams.
func ShapeFixtures(fixtures []Fixture, teams []TeamEntry) []FixtureSummary {
	codes := make(map[int]string, len(teams))
	for _, t := range teams {
		codes[t.Team.ID] = t.Team.Code
	}

	side := func(ref TeamRef) SideSummary {
		return SideSummary{
			ID:        ref.ID,
			Name:      ref.Name,
			ShortCode: ShortCode(codes[ref.ID], ref.Name),
			Logo:      ref.Logo,
		}
	}

	out := make([]FixtureSummary, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, FixtureSummary{
			ID:        f.Fixture.ID,
			Kickoff:   f.Fixture.Date,
			Status:    f.Fixture.Status.Short,
			Round:     f.League.Round,
			Home:      side(f.Teams.Home),
			Away:      side(f.Teams.Away),
			HomeGoals: f.Goals.Home,
			AwayGoals: f.Goals.Away,
		})
	}
	return out
}

// MergeStandings joins teams with their table rows, ordered by rank with
// unranked teams last by name.
func MergeStandings(teams []TeamEntry, standings []Standing) []TeamSummary {
	rows := make(map[int]Standing, len(standings))
	for _, s := range standings {
		if _, seen := rows[s.Team.ID]; !seen {
			rows[s.Team.ID] = s
		}
	}

	out := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		ts := TeamSummary{
			ID:        t.Team.ID,
			Name:      t.Team.Name,
			ShortCode: ShortCode(t.Team.Code, t.Team.Name),
			Logo:      t.Team.Logo,
			Venue:     t.Venue.Name,
		}
		if s, ok := rows[t.Team.ID]; ok {
			ts.Rank = s.Rank
			ts.Points = s.Points
			ts.Played = s.All.Played
			ts.GoalDiff = s.GoalsDiff
			ts.Form = s.Form
		}
		out = append(out, ts)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Rank == 0 && b.Rank == 0:
			return a.Name < b.Name
		case a.Rank == 0:
			return false
		case b.Rank == 0:
			return true
		default:
			return a.Rank < b.Rank
		}
	})
	return out
}

// FixtureList returns the shaped fixtures of one round.
func (c *Client) FixtureList(ctx context.Context, round int) ([]FixtureSummary, error) {
	fixtures, err := c.Fixtures(ctx, round)
	if err != nil {
		return nil, err
	}
	teams, err := c.Teams(ctx)
	if err != nil {
		return nil, err
	}
	return ShapeFixtures(fixtures, teams), nil
}

// TeamTable returns all teams merged with the current standings.
func (c *Client) TeamTable(ctx context.Context) ([]TeamSummary, error) {
	teams, err := c.Teams(ctx)
	if err != nil {
		return nil, err
	}
	standings, err := c.Standings(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStandings(teams, standings), nil
}
