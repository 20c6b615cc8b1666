package driven

import "github.com/proofbench/proofbench-cli/internal/core/domain"

// ModelRegistry resolves model identifiers to API configuration. The
// judge adapter consumes only the resolved endpoint/model/key triple and
// is agnostic to how it was resolved.
type ModelRegistry interface {
	// Resolve returns the configuration for a model id, with credentials
	// expanded and inheritance applied. Returns domain.ErrModelNotFound
	// for unknown ids.
	Resolve(id string) (domain.ModelConfig, error)

	// IDs lists all configured model ids in sorted order.
	IDs() []string
}
