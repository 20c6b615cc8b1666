package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
)

// Ensure ResultStore implements the interface.
var _ driven.ResultStore = (*ResultStore)(nil)

// ResultStore is an in-memory implementation of driven.ResultStore,
// used in tests and for one-shot evaluations that do not need a
// database on disk.
type ResultStore struct {
	mu sync.RWMutex
	// results maps model id to stored artifacts, in insertion order.
	results map[string][]domain.FileResult
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string][]domain.FileResult)}
}

// Save stores a new artifact, assigning an id and run number if unset.
func (s *ResultStore) Save(_ context.Context, r *domain.FileResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Run == 0 {
		r.Run = s.nextRun(r.ModelID, r.FileID)
	} else {
		for _, existing := range s.results[r.ModelID] {
			if existing.FileID == r.FileID && existing.Run == r.Run {
				return fmt.Errorf("%w: %s/%s run %d",
					domain.ErrImmutableResult, r.ModelID, r.FileID, r.Run)
			}
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	s.results[r.ModelID] = append(s.results[r.ModelID], copyResult(*r))
	return nil
}

// Get retrieves one artifact.
func (s *ResultStore) Get(_ context.Context, modelID, fileID string, run int) (*domain.FileResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results[modelID] {
		if r.FileID == fileID && r.Run == run {
			out := copyResult(r)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListByModel returns all artifacts for a model, ordered by file id then
// run number.
func (s *ResultStore) ListByModel(_ context.Context, modelID string) ([]domain.FileResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.results[modelID]
	out := make([]domain.FileResult, 0, len(stored))
	for _, r := range stored {
		out = append(out, copyResult(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FileID != out[j].FileID {
			return out[i].FileID < out[j].FileID
		}
		return out[i].Run < out[j].Run
	})
	return out, nil
}

// Models returns the distinct model ids present in the store.
func (s *ResultStore) Models(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]string, 0, len(s.results))
	for id := range s.results {
		if len(s.results[id]) > 0 {
			models = append(models, id)
		}
	}
	sort.Strings(models)
	return models, nil
}

// Close is a no-op for the in-memory store.
func (s *ResultStore) Close() error {
	return nil
}

// nextRun returns one past the highest stored run for the pair.
// Callers must hold the write lock.
func (s *ResultStore) nextRun(modelID, fileID string) int {
	max := 0
	for _, r := range s.results[modelID] {
		if r.FileID == fileID && r.Run > max {
			max = r.Run
		}
	}
	return max + 1
}

// copyResult deep-copies an artifact so callers cannot mutate stored
// match lists through returned slices.
func copyResult(r domain.FileResult) domain.FileResult {
	matches := make([]domain.EditMatch, len(r.Matches))
	copy(matches, r.Matches)
	r.Matches = matches
	return r
}
