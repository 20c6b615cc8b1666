package driving

import (
	"context"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

// EvalService evaluates model predictions against ground truth.
type EvalService interface {
	// EvaluateFile matches one prediction document against one ground
	// truth document and stores the resulting artifact. Judge failures
	// on individual pairs zero those pairs but never abort the file;
	// partial results are always producible.
	EvaluateFile(ctx context.Context, modelID, fileID string,
		groundTruth, prediction domain.EditDocument) (*domain.FileResult, error)

	// EvaluateModel evaluates every ground-truth file that has a
	// matching prediction. Files with schema errors fail individually
	// and are reported in the joined error; ground-truth files without a
	// prediction are skipped with a warning and excluded from the
	// aggregate. A nil ModelResult is returned only when the judge is
	// misconfigured (fatal).
	EvaluateModel(ctx context.Context, modelID string,
		groundTruth, predictions map[string]domain.EditDocument) (*domain.ModelResult, error)
}

// IntervalEstimate is a partial or final bootstrap result, emitted after
// each chunk of replicates so long-running interval computations never
// stall their consumers.
type IntervalEstimate struct {
	// Completed is the number of replicates finished so far.
	Completed int

	// Total is the requested replicate count.
	Total int

	// Point is the micro-averaged point estimate the interval is
	// anchored to.
	Point domain.Metrics

	// Interval is the current percentile interval over completed
	// replicates.
	Interval domain.Interval
}

// Done reports whether this is the final estimate.
func (e IntervalEstimate) Done() bool {
	return e.Completed >= e.Total
}

// BootstrapService computes resampled confidence intervals over stored
// evaluation artifacts.
type BootstrapService interface {
	// ConfidenceInterval runs the full resampling procedure and returns
	// the final 95% interval for F1.
	ConfidenceInterval(ctx context.Context,
		groups map[string][]domain.FileResult, replicates int) (domain.Interval, error)

	// Stream runs the same procedure cooperatively, sending an estimate
	// after each chunk of replicates. The channel is closed when all
	// replicates are done or ctx is cancelled; the last value received
	// is always a valid estimate.
	Stream(ctx context.Context,
		groups map[string][]domain.FileResult, replicates int) <-chan IntervalEstimate
}

// LeaderboardOptions filters and configures leaderboard construction.
type LeaderboardOptions struct {
	// Shots filters to models with this shot count; nil means all.
	Shots *int

	// Replicates enables bootstrap intervals with this replicate count
	// when > 0.
	Replicates int
}

// LeaderboardService ranks model summaries from stored artifacts.
type LeaderboardService interface {
	// Build returns ranked entries: F1 descending, precision descending,
	// model id ascending. Models marked excluded in the registry are
	// omitted; their raw artifacts remain in storage.
	Build(ctx context.Context, opts LeaderboardOptions) ([]domain.LeaderboardEntry, error)
}
