// Package cache holds upstream payloads in memory, each with a TTL chosen by
// its resource class.
//
// Near-static resources (team metadata) are kept for hours while volatile
// resources (live fixtures) expire after a minute. A read never extends an
// entry's life; only Put writes. Stale entries are reported as misses and are
// removed by Sweep, which StartSweeper runs periodically.
//
// # Basic Usage
//
//	store := cache.NewStore(nil, logger)
//	store.StartSweeper(ctx, 5*time.Minute)
//
//	key := cache.Key("fixtures", "round", 12) // fixtures_round_12
//	if data, ok := store.Get(key); ok {
//		return data
//	}
//
//	ttls := cache.DefaultTTLs()
//	store.Put(key, payload, ttls.For(cache.ClassFixtures))
//
// # Metrics
//
//   - sportsgate_cache_hits_total - Cache hits
//   - sportsgate_cache_misses_total - Cache misses (absent or stale)
//   - sportsgate_cache_entries - Stored entries
//   - sportsgate_cache_evictions_total - Entries removed by the sweeper
//
// State lives only in process memory and is lost on restart.
package cache
