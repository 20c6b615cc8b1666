package services

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driving"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Ensure Bootstrap implements the interface.
var _ driving.BootstrapService = (*Bootstrap)(nil)

// Bootstrap defaults.
const (
	// DefaultReplicates is the recommended replicate count.
	DefaultReplicates = 1000

	// DefaultChunkSize is how many replicates run between yields. The
	// engine is CPU-bound arithmetic; chunking keeps a long interval
	// computation from stalling a TUI or other concurrent work sharing
	// the run.
	DefaultChunkSize = 50
)

// BootstrapConfig tunes the resampling engine.
type BootstrapConfig struct {
	// ChunkSize is the replicates-per-yield granularity.
	ChunkSize int

	// Seed fixes the RNG for reproducible intervals. Zero means seed
	// from the clock.
	Seed int64
}

// Bootstrap estimates a 95% confidence interval for F1 by resampling
// stored match results. Resampling happens at the file level, and when a
// file has multiple runs one run is drawn uniformly per replicate, so the
// interval reflects both across-file and across-run variance.
type Bootstrap struct {
	chunkSize int
	seed      int64
}

// NewBootstrap creates a bootstrap engine.
func NewBootstrap(cfg BootstrapConfig) *Bootstrap {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Bootstrap{chunkSize: cfg.ChunkSize, seed: cfg.Seed}
}

// ConfidenceInterval runs the full procedure and returns the final
// interval.
func (b *Bootstrap) ConfidenceInterval(
	ctx context.Context, groups map[string][]domain.FileResult, replicates int,
) (domain.Interval, error) {
	if len(groups) == 0 {
		return domain.Interval{}, errors.New("bootstrap: no file results to resample")
	}

	var last driving.IntervalEstimate
	var got bool
	for est := range b.Stream(ctx, groups, replicates) {
		last = est
		got = true
	}
	if err := ctx.Err(); err != nil && !got {
		return domain.Interval{}, err
	}
	return last.Interval, nil
}

// Stream runs the resampling cooperatively: after each chunk of
// replicates the current percentile interval is sent, so consumers see
// the estimate converge. Cancelling ctx just stops issuing chunks -
// partial results are already valid estimates.
func (b *Bootstrap) Stream(
	ctx context.Context, groups map[string][]domain.FileResult, replicates int,
) <-chan driving.IntervalEstimate {
	if replicates <= 0 {
		replicates = DefaultReplicates
	}

	ch := make(chan driving.IntervalEstimate, 1)
	go func() {
		defer close(ch)
		if len(groups) == 0 {
			return
		}

		// Deterministic iteration order for a given seed.
		fileIDs := make([]string, 0, len(groups))
		for id := range groups {
			fileIDs = append(fileIDs, id)
		}
		sort.Strings(fileIDs)

		point := pointEstimate(groups)

		seed := b.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))

		f1s := make([]float64, 0, replicates)
		for len(f1s) < replicates {
			n := b.chunkSize
			if remaining := replicates - len(f1s); n > remaining {
				n = remaining
			}
			for i := 0; i < n; i++ {
				f1s = append(f1s, replicate(rng, fileIDs, groups))
			}

			est := driving.IntervalEstimate{
				Completed: len(f1s),
				Total:     replicates,
				Point:     point,
				Interval:  percentileInterval(f1s),
			}
			select {
			case ch <- est:
			case <-ctx.Done():
				return
			}
		}
		logger.Debug("Bootstrap complete: %d replicates over %d files", replicates, len(fileIDs))
	}()
	return ch
}

// replicate draws len(fileIDs) file ids with replacement, one uniformly
// random run per drawn file, and micro-averages to a single F1.
func replicate(rng *rand.Rand, fileIDs []string, groups map[string][]domain.FileResult) float64 {
	var totals domain.Totals
	for range fileIDs {
		runs := groups[fileIDs[rng.Intn(len(fileIDs))]]
		r := runs[rng.Intn(len(runs))]
		totals = totals.Add(r.Totals())
	}
	return totals.Score().F1
}

// pointEstimate micro-averages across every stored (file, run) artifact.
func pointEstimate(groups map[string][]domain.FileResult) domain.Metrics {
	var totals domain.Totals
	for _, runs := range groups {
		for _, r := range runs {
			totals = totals.Add(r.Totals())
		}
	}
	return totals.Score()
}

// percentileInterval takes the values at the 2.5th and 97.5th
// percentiles of the sorted replicate distribution.
func percentileInterval(f1s []float64) domain.Interval {
	sorted := make([]float64, len(f1s))
	copy(sorted, f1s)
	sort.Float64s(sorted)

	n := len(sorted)
	lo := int(math.Floor(0.025 * float64(n)))
	hi := int(math.Floor(0.975 * float64(n)))
	if hi >= n {
		hi = n - 1
	}
	return domain.Interval{Lower: sorted[lo], Upper: sorted[hi]}
}
