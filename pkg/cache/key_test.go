package cache

import (
	"net/url"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		params   []any
		want     string
	}{
		{name: "bare resource", resource: "teams", want: "teams"},
		{name: "round parameter", resource: "fixtures", params: []any{"round", 12}, want: "fixtures_round_12"},
		{name: "mixed case and spaces", resource: "Players", params: []any{"Team", " Man Utd "}, want: "players_team_man-utd"},
		{name: "empty parameter skipped", resource: "injuries", params: []any{""}, want: "injuries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.resource, tt.params...); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryKey_Deterministic(t *testing.T) {
	q1 := url.Values{"season": {"2025"}, "league": {"39"}}
	q2 := url.Values{"league": {"39"}, "season": {"2025"}}

	k1 := QueryKey("/teams", q1)
	k2 := QueryKey("teams/", q2)

	if k1 != k2 {
		t.Errorf("QueryKey not deterministic: %q != %q", k1, k2)
	}
	if want := "teams_league_39_season_2025"; k1 != want {
		t.Errorf("QueryKey() = %q, want %q", k1, want)
	}
	if got := QueryKey("/players/squads", url.Values{"team": {"33"}}); got != "players_squads_team_33" {
		t.Errorf("QueryKey() nested path = %q", got)
	}
}

func TestTTLTable(t *testing.T) {
	ttls := DefaultTTLs()

	if ttls.For(ClassStatic) < ttls.For(ClassLive) {
		t.Error("static resources should outlive live resources")
	}
	if got := ttls.For(Class("unknown")); got != DefaultTTL {
		t.Errorf("For(unknown) = %v, want %v", got, DefaultTTL)
	}

	merged := ttls.Merge(map[Class]time.Duration{
		ClassLive:     30 * time.Second,
		ClassFixtures: 0,
	})
	if got := merged.For(ClassLive); got != 30*time.Second {
		t.Errorf("merged live TTL = %v, want 30s", got)
	}
	if got := merged.For(ClassFixtures); got != time.Hour {
		t.Errorf("zero override should be ignored, got %v", got)
	}
	if ttls.For(ClassLive) != time.Minute {
		t.Error("Merge must not mutate the receiver")
	}
}
