package driven

import (
	"context"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

// Judgement is a judge's verdict on one (ground truth, prediction) pair.
type Judgement struct {
	// Score is the partial-credit match score in [0,1]. 1.0 means the
	// prediction fully captures the ground-truth correction; fractional
	// values grade close-but-imperfect captures.
	Score float64

	// Correct is the judge's binary verdict before any line penalty.
	Correct bool

	// Reasoning is the judge's explanation of the decision.
	Reasoning string
}

// Judge decides whether a predicted edit describes the same correction as
// a ground-truth edit and assigns a partial-credit score. It is a remote,
// non-deterministic, fallible function: the matcher treats a failed call
// as a non-match for that pair and continues.
//
// Implementations are expected to ignore line numbers; the matcher applies
// the line-distance penalty itself.
type Judge interface {
	// Score judges one candidate pair.
	Score(ctx context.Context, expected, predicted domain.Edit) (Judgement, error)

	// ModelName returns the judge model's technical name.
	ModelName() string

	// Ping validates the service is reachable and credentialed. Called
	// once before an evaluation run; a failure here is a fatal
	// configuration error, not a per-pair failure.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
