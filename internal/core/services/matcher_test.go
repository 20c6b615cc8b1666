package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
)

// mockJudge is a test double for driven.Judge.
type mockJudge struct {
	mu      sync.Mutex
	calls   int
	scoreFn func(expected, predicted domain.Edit) (driven.Judgement, error)
	pingErr error
}

func (m *mockJudge) Score(_ context.Context, expected, predicted domain.Edit) (driven.Judgement, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.scoreFn != nil {
		return m.scoreFn(expected, predicted)
	}
	return driven.Judgement{Score: 1, Correct: true}, nil
}

func (m *mockJudge) ModelName() string { return "mock-judge" }

func (m *mockJudge) Ping(_ context.Context) error { return m.pingErr }

func (m *mockJudge) Close() error { return nil }

func (m *mockJudge) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func edit(t domain.EditType, original, corrected string, line int) domain.Edit {
	return domain.Edit{
		Type:          t,
		OriginalText:  original,
		CorrectedText: corrected,
		LineNumber:    line,
	}
}

// TestMatch_PerfectMatch tests a fully correct prediction.
func TestMatch_PerfectMatch(t *testing.T) {
	judge := &mockJudge{}
	matcher := NewMatcher(judge, MatcherConfig{})

	predicted := []domain.Edit{edit(domain.EditReplacement, "teh", "the", 5)}
	groundTruth := []domain.Edit{edit(domain.EditReplacement, "teh", "the", 5)}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.True(t, m.Matched())
	assert.Equal(t, 1.0, m.TP)
	assert.Equal(t, 0.0, m.FP)
	assert.Equal(t, 0.0, m.FN)
	require.NotNil(t, m.LineDiff)
	assert.Equal(t, 0, *m.LineDiff)
	assert.Equal(t, 0.0, m.LineNumberPenalty)
	assert.Equal(t, 1, judge.callCount())
}

// TestMatch_PartialCredit tests the fractional tp/fp/fn split for a
// partially correct pair.
func TestMatch_PartialCredit(t *testing.T) {
	judge := &mockJudge{
		scoreFn: func(_, _ domain.Edit) (driven.Judgement, error) {
			return driven.Judgement{Score: 0.8, Correct: true, Reasoning: "close enough"}, nil
		},
	}
	matcher := NewMatcher(judge, MatcherConfig{})

	predicted := []domain.Edit{edit(domain.EditInsertion, "", "very", 3)}
	groundTruth := []domain.Edit{edit(domain.EditInsertion, "", "vary", 3)}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.InDelta(t, 0.8, m.TP, 1e-9)
	assert.InDelta(t, 0.1, m.FP, 1e-9)
	assert.InDelta(t, 0.1, m.FN, 1e-9)
	assert.Equal(t, "close enough", m.Judgement)
}

// TestMatch_LinePenalty tests that line-number distance reduces the
// matched weight quadratically.
func TestMatch_LinePenalty(t *testing.T) {
	judge := &mockJudge{}
	matcher := NewMatcher(judge, MatcherConfig{})

	predicted := []domain.Edit{edit(domain.EditDeletion, "very", "", 7)}
	groundTruth := []domain.Edit{edit(domain.EditDeletion, "very", "", 5)}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	require.Len(t, matches, 1)
	m := matches[0]
	require.NotNil(t, m.LineDiff)
	assert.Equal(t, 2, *m.LineDiff)
	assert.InDelta(t, 0.4, m.LineNumberPenalty, 1e-9)
	assert.InDelta(t, 0.6, m.TP, 1e-9)
	assert.InDelta(t, 0.2, m.FP, 1e-9)
	assert.InDelta(t, 0.2, m.FN, 1e-9)
}

// TestMatch_BelowThreshold tests that a low judge score leaves both
// edits unmatched.
func TestMatch_BelowThreshold(t *testing.T) {
	judge := &mockJudge{
		scoreFn: func(_, _ domain.Edit) (driven.Judgement, error) {
			return driven.Judgement{Score: 0.4}, nil
		},
	}
	matcher := NewMatcher(judge, MatcherConfig{})

	predicted := []domain.Edit{edit(domain.EditCapitalization, "london", "London", 2)}
	groundTruth := []domain.Edit{edit(domain.EditCapitalization, "paris", "Paris", 2)}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	require.Len(t, matches, 2)
	assert.Equal(t, 1.0, matches[0].FP)
	assert.Equal(t, 0.0, matches[0].TP)
	assert.Equal(t, 1.0, matches[1].FN)
}

// TestMatch_JudgeFailure tests that a judge error zeroes the pair
// without aborting the file.
func TestMatch_JudgeFailure(t *testing.T) {
	judge := &mockJudge{
		scoreFn: func(_, _ domain.Edit) (driven.Judgement, error) {
			return driven.Judgement{}, errors.New("rate limited")
		},
	}
	matcher := NewMatcher(judge, MatcherConfig{})

	predicted := []domain.Edit{edit(domain.EditItalicize, "Dombey and Son", "", 9)}
	groundTruth := []domain.Edit{edit(domain.EditItalicize, "Dombey and Son", "", 9)}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	require.Len(t, matches, 2)
	var totals domain.Totals
	for _, m := range matches {
		totals = totals.Add(domain.Totals{TP: m.TP, FP: m.FP, FN: m.FN})
	}
	assert.Equal(t, 0.0, totals.TP)
	assert.Equal(t, 1.0, totals.FP)
	assert.Equal(t, 1.0, totals.FN)
}

// TestMatch_Prefilter tests that pairs with mismatched types or distant
// line numbers never reach the judge.
func TestMatch_Prefilter(t *testing.T) {
	judge := &mockJudge{}
	matcher := NewMatcher(judge, MatcherConfig{})

	predicted := []domain.Edit{
		edit(domain.EditInsertion, "", "the", 5),
		edit(domain.EditDeletion, "the", "", 20),
	}
	groundTruth := []domain.Edit{
		edit(domain.EditDeletion, "the", "", 5), // type mismatch with pred 0
		edit(domain.EditDeletion, "the", "", 10), // 10 lines from pred 1
	}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	assert.Equal(t, 0, judge.callCount())
	require.Len(t, matches, 4)
	for _, m := range matches {
		assert.False(t, m.Matched())
	}
}

// TestMatch_TypeCaseInsensitive tests that type comparison ignores case.
func TestMatch_TypeCaseInsensitive(t *testing.T) {
	judge := &mockJudge{}
	matcher := NewMatcher(judge, MatcherConfig{})

	predicted := []domain.Edit{edit(domain.EditType("Insertion"), "", "a", 1)}
	groundTruth := []domain.Edit{edit(domain.EditInsertion, "", "a", 1)}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	require.Len(t, matches, 1)
	assert.True(t, matches[0].Matched())
}

// TestMatch_NoDoubleConsumption tests that one ground-truth edit is
// never credited to two predictions.
func TestMatch_NoDoubleConsumption(t *testing.T) {
	judge := &mockJudge{}
	matcher := NewMatcher(judge, MatcherConfig{})

	// Both predictions are plausible partners for the single ground-truth
	// edit; only the closer one may match.
	predicted := []domain.Edit{
		edit(domain.EditReplacement, "teh", "the", 5),
		edit(domain.EditReplacement, "teh", "the", 6),
	}
	groundTruth := []domain.Edit{edit(domain.EditReplacement, "teh", "the", 5)}

	matches := matcher.Match(context.Background(), predicted, groundTruth)

	require.Len(t, matches, 2)
	assert.True(t, matches[0].Matched())
	require.NotNil(t, matches[0].ObservedEditNum)
	assert.Equal(t, 0, *matches[0].ObservedEditNum)
	assert.Equal(t, 1.0, matches[0].TP)

	assert.False(t, matches[1].Matched())
	assert.Equal(t, 1.0, matches[1].FP)
}

// TestMatch_DeterministicTieBreak tests that equally scored pairings
// always resolve the same way.
func TestMatch_DeterministicTieBreak(t *testing.T) {
	judge := &mockJudge{}

	predicted := []domain.Edit{
		edit(domain.EditPunctuation, ",", ";", 4),
		edit(domain.EditPunctuation, ",", ";", 4),
	}
	groundTruth := []domain.Edit{
		edit(domain.EditPunctuation, ",", ";", 4),
		edit(domain.EditPunctuation, ",", ";", 4),
	}

	for i := 0; i < 10; i++ {
		matcher := NewMatcher(judge, MatcherConfig{})
		matches := matcher.Match(context.Background(), predicted, groundTruth)

		require.Len(t, matches, 2)
		require.NotNil(t, matches[0].ObservedEditNum)
		require.NotNil(t, matches[0].ExpectedEditNum)
		assert.Equal(t, 0, *matches[0].ObservedEditNum)
		assert.Equal(t, 0, *matches[0].ExpectedEditNum)
		assert.Equal(t, 1, *matches[1].ObservedEditNum)
		assert.Equal(t, 1, *matches[1].ExpectedEditNum)
	}
}

// TestMatch_Empty tests the degenerate empty-input cases.
func TestMatch_Empty(t *testing.T) {
	judge := &mockJudge{}
	matcher := NewMatcher(judge, MatcherConfig{})
	ctx := context.Background()

	assert.Empty(t, matcher.Match(ctx, nil, nil))

	fpOnly := matcher.Match(ctx, []domain.Edit{edit(domain.EditInsertion, "", "a", 1)}, nil)
	require.Len(t, fpOnly, 1)
	assert.Equal(t, 1.0, fpOnly[0].FP)

	fnOnly := matcher.Match(ctx, nil, []domain.Edit{edit(domain.EditInsertion, "", "a", 1)})
	require.Len(t, fnOnly, 1)
	assert.Equal(t, 1.0, fnOnly[0].FN)
}

// TestLinePenalty tests the quadratic penalty curve.
func TestLinePenalty(t *testing.T) {
	assert.Equal(t, 0.0, linePenalty(0))
	assert.InDelta(t, 0.1, linePenalty(1), 1e-9)
	assert.InDelta(t, 0.4, linePenalty(2), 1e-9)
	assert.InDelta(t, 0.9, linePenalty(3), 1e-9)
	assert.Equal(t, 1.0, linePenalty(4))
}
