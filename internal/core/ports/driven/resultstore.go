package driven

import (
	"context"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

// ResultStore persists evaluation artifacts. A stored FileResult is the
// unit of durable truth: aggregation always recomputes metrics from
// stored match lists, never from cached ratios.
//
// Artifacts are immutable. Save assigns the next run number for the
// (model, file) pair; there is no update path, so concurrent readers can
// never observe a half-written artifact replacing an older one.
type ResultStore interface {
	// Save stores a new artifact. When r.ID is empty a fresh id is
	// assigned; when r.Run is zero the next per-(model, file) run number
	// is assigned. Saving an (model, file, run) triple that already
	// exists fails with domain.ErrImmutableResult.
	Save(ctx context.Context, r *domain.FileResult) error

	// Get retrieves one artifact.
	Get(ctx context.Context, modelID, fileID string, run int) (*domain.FileResult, error)

	// ListByModel returns all artifacts for a model, ordered by file id
	// then run number.
	ListByModel(ctx context.Context, modelID string) ([]domain.FileResult, error)

	// Models returns the distinct model ids present in the store.
	Models(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
