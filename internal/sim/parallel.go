package sim

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/triple-play-labs/diamondx/internal/random"
)

// Factory builds the model for run i. Every call must return a fresh model;
// runs never share model state.
type Factory func(i int) (Simulation, error)

// ParallelConfig configures RunParallel.
type ParallelConfig struct {
	Runs     int
	BaseSeed int64

	// Workers bounds concurrency; <= 0 means GOMAXPROCS.
	Workers int

	// Config is the per-run template. Seed and RunID are overwritten per run.
	// Observers in the template are shared by all runs and must be safe for
	// concurrent use.
	Config Config

	// OnResult, if set, is called once per finished run from the worker
	// goroutine that ran it.
	OnResult func(Result)
}

// Batch aggregates the results of a parallel execution.
type Batch struct {
	BaseSeed int64
	Seeds    []int64
	Results  []Result
	Elapsed  time.Duration

	mu sync.Mutex
}

func (b *Batch) add(r Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Results = append(b.Results, r)
}

// Count returns the number of results with status s.
func (b *Batch) Count(s Status) int {
	n := 0
	for _, r := range b.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

// Errors returns the results whose status is StatusError.
func (b *Batch) Errors() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Status == StatusError {
			out = append(out, r)
		}
	}
	return out
}

// RunParallel executes pc.Runs independent runs on a bounded worker pool.
//
// Per-run seeds are DeriveSeeds(pc.BaseSeed, pc.Runs), so a batch is
// reproducible from its base seed. A failing run (factory error, step error,
// panic) is recorded as that run's Error result and never aborts the batch.
// Only cancellation of ctx makes RunParallel return an error; results for
// runs that finished are still returned.
//
// Results are ordered by Index.
func RunParallel(ctx context.Context, factory Factory, pc ParallelConfig) (*Batch, error) {
	if factory == nil {
		return nil, fmt.Errorf("run parallel: factory is required")
	}
	if pc.Runs < 0 {
		return nil, fmt.Errorf("run parallel: negative run count %d", pc.Runs)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "sim.run_parallel")
	defer span.End()
	span.SetAttributes(
		attribute.Int("runs", pc.Runs),
		attribute.Int64("base_seed", pc.BaseSeed),
	)

	workers := pc.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	seeds := random.DeriveSeeds(pc.BaseSeed, pc.Runs)
	batch := &Batch{
		BaseSeed: pc.BaseSeed,
		Seeds:    seeds,
		Results:  make([]Result, 0, pc.Runs),
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, seed := range seeds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := runOne(gctx, factory, pc.Config, i, seed)
			batch.add(res)
			if pc.OnResult != nil {
				pc.OnResult(res)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	batch.Elapsed = time.Since(start)
	sort.Slice(batch.Results, func(i, j int) bool { return batch.Results[i].Index < batch.Results[j].Index })

	if err != nil {
		return batch, fmt.Errorf("run parallel: %w", err)
	}
	return batch, nil
}

func runOne(ctx context.Context, factory Factory, tmpl Config, index int, seed int64) Result {
	cfg := tmpl
	cfg.Seed = seed
	cfg.RunID = ""
	cfg.Params = tmpl.Params.Clone()

	model, err := factory(index)
	if err != nil {
		return Result{
			Index:  index,
			Seed:   seed,
			Status: StatusError,
			Reason: "factory failed",
			Err:    fmt.Errorf("build run %d: %w", index, err),
		}
	}

	res := Run(ctx, model, cfg)
	res.Index = index
	return res
}
