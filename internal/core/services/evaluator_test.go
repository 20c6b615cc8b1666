package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofbench/proofbench-cli/internal/adapters/driven/storage/memory"
	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

// mockRegistry is a test double for driven.ModelRegistry.
type mockRegistry struct {
	configs map[string]domain.ModelConfig
}

func (m *mockRegistry) Resolve(id string) (domain.ModelConfig, error) {
	cfg, ok := m.configs[id]
	if !ok {
		return domain.ModelConfig{}, domain.ErrModelNotFound
	}
	return cfg, nil
}

func (m *mockRegistry) IDs() []string {
	ids := make([]string, 0, len(m.configs))
	for id := range m.configs {
		ids = append(ids, id)
	}
	return ids
}

func document(edits ...domain.Edit) domain.EditDocument {
	return domain.EditDocument{
		Image:      "page_001.jpg",
		PageNumber: 1,
		Edits:      edits,
	}
}

// TestEvaluateFile tests that a single file evaluation stores an
// artifact with an assigned run number.
func TestEvaluateFile(t *testing.T) {
	store := memory.NewResultStore()
	evaluator := NewEvaluator(&mockJudge{}, store, nil, EvaluatorConfig{})

	gt := document(edit(domain.EditReplacement, "teh", "the", 5))
	pred := document(edit(domain.EditReplacement, "teh", "the", 5))

	result, err := evaluator.EvaluateFile(context.Background(), "gpt-4o", "page_001", gt, pred)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1, result.Run)

	metrics := domain.ScoreMatches(result.Matches)
	assert.Equal(t, 1.0, metrics.F1)

	stored, err := store.Get(context.Background(), "gpt-4o", "page_001", 1)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
}

// TestEvaluateFile_SchemaError tests fail-fast validation of both
// documents.
func TestEvaluateFile_SchemaError(t *testing.T) {
	evaluator := NewEvaluator(&mockJudge{}, nil, nil, EvaluatorConfig{})
	ctx := context.Background()

	valid := document(edit(domain.EditInsertion, "", "a", 1))
	invalid := domain.EditDocument{PageNumber: 1, Edits: []domain.Edit{}}

	_, err := evaluator.EvaluateFile(ctx, "gpt-4o", "page_001", invalid, valid)
	assert.ErrorIs(t, err, domain.ErrSchema)

	_, err = evaluator.EvaluateFile(ctx, "gpt-4o", "page_001", valid, invalid)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

// TestEvaluateModel tests a multi-file run with a missing prediction.
func TestEvaluateModel(t *testing.T) {
	store := memory.NewResultStore()
	evaluator := NewEvaluator(&mockJudge{}, store, nil, EvaluatorConfig{})

	groundTruth := map[string]domain.EditDocument{
		"page_001": document(edit(domain.EditReplacement, "teh", "the", 5)),
		"page_002": document(edit(domain.EditDeletion, "very", "", 3)),
		"page_003": document(edit(domain.EditInsertion, "", "a", 7)),
	}
	predictions := map[string]domain.EditDocument{
		"page_001": document(edit(domain.EditReplacement, "teh", "the", 5)),
		"page_002": document(edit(domain.EditDeletion, "very", "", 3)),
		// page_003 missing: skipped, not counted against the model.
	}

	summary, err := evaluator.EvaluateModel(context.Background(), "gpt-4o", groundTruth, predictions)
	require.NoError(t, err)
	require.Len(t, summary.Files, 2)
	assert.Equal(t, "page_001", summary.Files[0].FileID)
	assert.Equal(t, "page_002", summary.Files[1].FileID)
	assert.Equal(t, 1.0, summary.Metrics.F1)
	assert.Equal(t, "GPT-4o", summary.DisplayName)

	models, err := store.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o"}, models)
}

// TestEvaluateModel_RegistryEnrichment tests display name and shot
// count from the registry.
func TestEvaluateModel_RegistryEnrichment(t *testing.T) {
	registry := &mockRegistry{configs: map[string]domain.ModelConfig{
		"gpt-4o": {ID: "gpt-4o", LogicalName: "GPT-4o (2-shot)", Shots: 2},
	}}
	evaluator := NewEvaluator(&mockJudge{}, memory.NewResultStore(), registry, EvaluatorConfig{})

	groundTruth := map[string]domain.EditDocument{
		"page_001": document(edit(domain.EditInsertion, "", "a", 1)),
	}
	predictions := map[string]domain.EditDocument{
		"page_001": document(edit(domain.EditInsertion, "", "a", 1)),
	}

	summary, err := evaluator.EvaluateModel(context.Background(), "gpt-4o", groundTruth, predictions)
	require.NoError(t, err)
	assert.Equal(t, "GPT-4o (2-shot)", summary.DisplayName)
	assert.Equal(t, 2, summary.Shots)
}

// TestEvaluateModel_PartialFailure tests that one bad file does not
// discard the others.
func TestEvaluateModel_PartialFailure(t *testing.T) {
	evaluator := NewEvaluator(&mockJudge{}, memory.NewResultStore(), nil, EvaluatorConfig{})

	groundTruth := map[string]domain.EditDocument{
		"page_001": document(edit(domain.EditInsertion, "", "a", 1)),
		"page_002": {PageNumber: 2, Edits: []domain.Edit{}}, // missing image
	}
	predictions := map[string]domain.EditDocument{
		"page_001": document(edit(domain.EditInsertion, "", "a", 1)),
		"page_002": document(),
	}

	summary, err := evaluator.EvaluateModel(context.Background(), "gpt-4o", groundTruth, predictions)
	assert.ErrorIs(t, err, domain.ErrSchema)
	require.NotNil(t, summary)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, "page_001", summary.Files[0].FileID)
}

// TestEvaluateModel_JudgeUnavailable tests that an unreachable judge is
// fatal for the whole run.
func TestEvaluateModel_JudgeUnavailable(t *testing.T) {
	groundTruth := map[string]domain.EditDocument{
		"page_001": document(edit(domain.EditInsertion, "", "a", 1)),
	}

	evaluator := NewEvaluator(nil, nil, nil, EvaluatorConfig{})
	_, err := evaluator.EvaluateModel(context.Background(), "gpt-4o", groundTruth, nil)
	assert.ErrorIs(t, err, domain.ErrJudgeUnavailable)

	down := &mockJudge{pingErr: assert.AnError}
	evaluator = NewEvaluator(down, nil, nil, EvaluatorConfig{})
	_, err = evaluator.EvaluateModel(context.Background(), "gpt-4o", groundTruth, nil)
	assert.ErrorIs(t, err, domain.ErrJudgeUnavailable)
}
