package batch

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/sportsdata-gateway/pkg/logging"
)

var (
	batchParentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportsgate_batch_parents_total",
		Help: "Total per-parent fetches run by the batch orchestrator by outcome",
	}, []string{"outcome"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sportsgate_batch_duration_seconds",
		Help:    "Duration of complete batch runs",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120},
	})
)

// Config holds orchestrator configuration.
type Config struct {
	// Size is the number of parents fetched concurrently per batch.
	Size int

	// Delay is the pause between consecutive batches.
	Delay time.Duration
}

// DefaultConfig returns the default batching: 5 parents, 2 seconds apart.
func DefaultConfig() Config {
	return Config{
		Size:  5,
		Delay: 2 * time.Second,
	}
}

// Orchestrator runs aggregate fetches in throttled batches.
type Orchestrator struct {
	config Config
	logger zerolog.Logger

	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator. Non-positive settings fall back to defaults.
func New(config Config) *Orchestrator {
	defaults := DefaultConfig()
	if config.Size <= 0 {
		config.Size = defaults.Size
	}
	if config.Delay < 0 {
		config.Delay = 0
	}

	return &Orchestrator{
		config: config,
		logger: logging.NewLogger("batch"),
		sleep:  sleepContext,
	}
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.config
}

// Result is the outcome for one parent.
type Result[P, R any] struct {
	Parent P
	Value  R
	Err    error
}

// OK reports whether the parent's fetch succeeded.
func (r Result[P, R]) OK() bool {
	return r.Err == nil
}

// Run fetches every parent, batch by batch, and returns one Result per
// parent in input order. If ctx is cancelled between batches, the parents
// not yet started carry ctx.Err().
func Run[P, R any](ctx context.Context, o *Orchestrator, parents []P, fetch func(context.Context, P) (R, error)) []Result[P, R] {
	start := time.Now()
	results := make([]Result[P, R], len(parents))
	for i, p := range parents {
		results[i].Parent = p
	}

	size := o.config.Size
	batches := (len(parents) + size - 1) / size

	o.logger.Info().
		Int("parents", len(parents)).
		Int("batches", batches).
		Int("batch_size", size).
		Dur("delay", o.config.Delay).
		Msg("Starting batched fetch")

	for b := 0; b < batches; b++ {
		lo := b * size
		hi := min(lo+size, len(parents))

		if b > 0 {
			if err := o.sleep(ctx, o.config.Delay); err != nil {
				for i := lo; i < len(parents); i++ {
					results[i].Err = err
				}
				batchParentsTotal.WithLabelValues("cancelled").Add(float64(len(parents) - lo))
				o.logger.Warn().
					Err(err).
					Int("completed", lo).
					Int("total", len(parents)).
					Msg("Batched fetch cancelled - returning partial results")
				break
			}
		}

		// each parent records its own error; the group only waits
		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				value, err := fetch(ctx, parents[i])
				results[i].Value = value
				results[i].Err = err
				return nil
			})
		}
		g.Wait()

		failed := 0
		for i := lo; i < hi; i++ {
			if results[i].Err != nil {
				failed++
				o.logger.Warn().
					Err(results[i].Err).
					Int("batch", b+1).
					Int("index", i).
					Msg("Parent fetch failed")
			}
		}
		batchParentsTotal.WithLabelValues("success").Add(float64(hi - lo - failed))
		batchParentsTotal.WithLabelValues("failure").Add(float64(failed))

		o.logger.Debug().
			Int("batch", b+1).
			Int("of", batches).
			Int("failed", failed).
			Msg("Batch complete")
	}

	batchDuration.Observe(time.Since(start).Seconds())

	return results
}

// Values returns the values of successful results, in order.
func Values[P, R any](results []Result[P, R]) []R {
	values := make([]R, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			values = append(values, r.Value)
		}
	}
	return values
}

// Failed returns the failed results, in order.
func Failed[P, R any](results []Result[P, R]) []Result[P, R] {
	var failed []Result[P, R]
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
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
