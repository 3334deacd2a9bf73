package cache

import "time"

// Class groups resources that share a staleness tolerance.
type Class string

const (
	// ClassStatic covers near-static data such as team and league metadata.
	ClassStatic Class = "static"

	// ClassStandings covers league tables.
	ClassStandings Class = "standings"

	// ClassFixtures covers scheduled fixtures for a round.
	ClassFixtures Class = "fixtures"

	// ClassPlayers covers squad lists.
	ClassPlayers Class = "players"

	// ClassInjuries covers injury and suspension lists.
	ClassInjuries Class = "injuries"

	// ClassPlayerStats covers per-player season statistics.
	ClassPlayerStats Class = "player_stats"

	// ClassLive covers in-progress fixtures.
	ClassLive Class = "live"
)

// DefaultTTL is used for classes missing from a TTLTable.
const DefaultTTL = time.Hour

// TTLTable maps resource classes to their time-to-live.
type TTLTable map[Class]time.Duration

// DefaultTTLs returns the built-in TTL for every resource class.
func DefaultTTLs() TTLTable {
	return TTLTable{
		ClassStatic:      24 * time.Hour,
		ClassStandings:   6 * time.Hour,
		ClassFixtures:    time.Hour,
		ClassPlayers:     12 * time.Hour,
		ClassInjuries:    2 * time.Hour,
		ClassPlayerStats: time.Hour,
		ClassLive:        time.Minute,
	}
}

// For returns the TTL configured for class c.
func (t TTLTable) For(c Class) time.Duration {
	if ttl, ok := t[c]; ok && ttl > 0 {
		return ttl
	}
	return DefaultTTL
}

// Merge returns a copy of t with every positive override applied.
func (t TTLTable) Merge(overrides map[Class]time.Duration) TTLTable {
	merged := make(TTLTable, len(t)+len(overrides))
	for c, ttl := range t {
		merged[c] = ttl
	}
	for c, ttl := range overrides {
		if ttl > 0 {
			merged[c] = ttl
		}
	}
	return merged
}
