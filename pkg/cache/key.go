package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key builds a deterministic resource key from a resource name and its
// parameters.
//
// Example:
//
//	Key("fixtures", "round", 12) // fixtures_round_12
func Key(resource string, params ...any) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, normalize(resource))

	for _, p := range params {
		if s := normalize(fmt.Sprint(p)); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, "_")
}

// QueryKey derives a resource key from an upstream path and query.
// Query parameters are sorted for determinism.
//
// Example:
//
//	QueryKey("/teams", url.Values{"season": {"2025"}, "league": {"39"}}) // teams_league_39_season_2025
func QueryKey(path string, query url.Values) string {
	params := make([]any, 0, len(query)*2)

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		params = append(params, k, query.Get(k))
	}

	return Key(strings.ReplaceAll(strings.Trim(path, "/"), "/", "_"), params...)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}
