package driven

import (
	"context"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

// AnnotationStore loads ground-truth and prediction documents from
// storage. Both share the same page schema and are validated on load,
// failing fast on schema violations.
type AnnotationStore interface {
	// Load reads and validates a single page document.
	Load(ctx context.Context, path string) (*domain.EditDocument, error)

	// LoadDir reads every page document in a directory, keyed by file id
	// (the filename without extension).
	LoadDir(ctx context.Context, dir string) (map[string]domain.EditDocument, error)
}
