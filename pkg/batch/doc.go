// Package batch stages aggregate upstream operations into small concurrent
// batches separated by a fixed delay.
//
// An aggregate such as "every squad in the league" needs one upstream call per
// team. Issued back-to-back those calls would burst far above the per-minute
// budget, so Run splits the parents into batches (default 5), runs each batch
// concurrently, and sleeps (default 2s) between batches. Every per-parent call
// still goes through the gateway, so caching and rate limiting apply per call.
//
// Example usage:
//
//	o := batch.New(batch.DefaultConfig())
//	results := batch.Run(ctx, o, teamIDs, func(ctx context.Context, id int) ([]Player, error) {
//		return client.PlayersByTeam(ctx, id)
//	})
//	players := batch.Values(results)
//	for _, f := range batch.Failed(results) {
//		log.Warn().Err(f.Err).Int("team", f.Parent).Msg("squad unavailable")
//	}
//
// A failing parent never aborts the aggregate: each parent gets its own
// Result carrying either a value or an error.
package batch
