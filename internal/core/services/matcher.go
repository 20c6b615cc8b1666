package services

import (
	"context"
	"strings"
	"sync"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Default matching parameters.
const (
	// DefaultThreshold is the minimum judge score for a candidate pair
	// to stay in the assignment.
	DefaultThreshold = 0.5

	// DefaultMaxLineDiff is the candidate prefilter tolerance: a
	// ground-truth edit is only considered a candidate partner when the
	// predicted line is within this many lines. The judge remains the
	// authority on whether the pair describes the same correction.
	DefaultMaxLineDiff = 3

	// DefaultJudgeConcurrency bounds in-flight judge calls per matcher.
	DefaultJudgeConcurrency = 4
)

// MatcherConfig tunes the matching algorithm. Zero values fall back to
// the defaults above.
type MatcherConfig struct {
	// Threshold is the acceptance threshold for judge scores.
	Threshold float64

	// MaxLineDiff is the candidate prefilter line tolerance.
	MaxLineDiff int

	// Concurrency bounds concurrent judge calls.
	Concurrency int
}

// Matcher aligns a model's predicted edits against ground truth for one
// file, producing a match list with fractional tp/fp/fn weights.
//
// Judge calls for independent candidate pairs run concurrently behind a
// bounded gate; the final assignment is a single-threaded reduction that
// only starts once every candidate score has resolved, which guarantees
// no edit is consumed by more than one accepted pair.
type Matcher struct {
	judge       driven.Judge
	threshold   float64
	maxLineDiff int
	gate        chan struct{}
}

// NewMatcher creates a matcher backed by the given judge.
func NewMatcher(judge driven.Judge, cfg MatcherConfig) *Matcher {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MaxLineDiff <= 0 {
		cfg.MaxLineDiff = DefaultMaxLineDiff
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultJudgeConcurrency
	}
	return &Matcher{
		judge:       judge,
		threshold:   cfg.Threshold,
		maxLineDiff: cfg.MaxLineDiff,
		gate:        make(chan struct{}, cfg.Concurrency),
	}
}

// candidate is one plausible (predicted, ground-truth) pairing with its
// resolved weight.
type candidate struct {
	pred      int
	gt        int
	weight    float64
	lineDiff  int
	penalty   float64
	reasoning string
}

// Match produces exactly one EditMatch per accepted pairing, one fp-only
// entry per unpaired prediction, and one fn-only entry per unpaired
// ground-truth edit. A judge failure on a pair is recorded as a warning
// and treated as a non-match; it never aborts the rest of the file.
func (m *Matcher) Match(ctx context.Context, predicted, groundTruth []domain.Edit) []domain.EditMatch {
	logger.Section("Edit Matching")
	logger.Debug("Predicted: %d edits, ground truth: %d edits", len(predicted), len(groundTruth))

	candidates := m.collectCandidates(predicted, groundTruth)
	logger.Debug("Candidate pairs after prefilter: %d", len(candidates))

	m.scoreCandidates(ctx, candidates, predicted, groundTruth)

	// Single-threaded reduction over all resolved scores.
	accepted := m.assign(candidates, len(predicted), len(groundTruth))
	logger.Info("Accepted %d of %d candidate pairs", len(accepted), len(candidates))

	return buildMatchList(accepted, predicted, groundTruth)
}

// collectCandidates applies the location prefilter: same edit type and
// line numbers within tolerance.
func (m *Matcher) collectCandidates(predicted, groundTruth []domain.Edit) []*candidate {
	var out []*candidate
	for i, p := range predicted {
		for j, g := range groundTruth {
			if !strings.EqualFold(string(p.Type), string(g.Type)) {
				continue
			}
			diff := p.LineNumber - g.LineNumber
			if diff < 0 {
				diff = -diff
			}
			if diff > m.maxLineDiff {
				continue
			}
			out = append(out, &candidate{pred: i, gt: j, lineDiff: diff})
		}
	}
	return out
}

// scoreCandidates judges every candidate pair concurrently and resolves
// each pair's weight: the judge score reduced by the line penalty,
// floored at zero. Pairs under the acceptance threshold, or with a full
// line penalty, are discarded (weight 0).
func (m *Matcher) scoreCandidates(ctx context.Context, candidates []*candidate, predicted, groundTruth []domain.Edit) {
	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		go func(c *candidate) {
			defer wg.Done()

			m.gate <- struct{}{}
			defer func() { <-m.gate }()

			judgement, err := m.judge.Score(ctx, groundTruth[c.gt], predicted[c.pred])
			if err != nil {
				// Recovered locally: this pair scores 0, matching continues.
				logger.Warn("Judge failed for pair (pred %d, gt %d): %v", c.pred, c.gt, err)
				return
			}

			c.penalty = linePenalty(c.lineDiff)
			c.reasoning = judgement.Reasoning
			if judgement.Score < m.threshold || c.penalty >= 1 {
				return
			}
			c.weight = judgement.Score - c.penalty
			if c.weight < 0 {
				c.weight = 0
			}
		}(c)
	}
	wg.Wait()
}

// assign resolves the many-to-many candidate graph into a one-to-one
// assignment maximising total matched score.
func (m *Matcher) assign(candidates []*candidate, nPred, nGT int) []*candidate {
	if len(candidates) == 0 {
		return nil
	}

	weights := make([][]float64, nPred)
	byPair := make(map[[2]int]*candidate, len(candidates))
	for i := range weights {
		weights[i] = make([]float64, nGT)
	}
	for _, c := range candidates {
		if c.weight > 0 {
			weights[c.pred][c.gt] = c.weight
			byPair[[2]int{c.pred, c.gt}] = c
		}
	}

	assigned := maximumWeightAssignment(weights)

	var accepted []*candidate
	for i, j := range assigned {
		if j == unassigned {
			continue
		}
		if c, ok := byPair[[2]int{i, j}]; ok {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

// buildMatchList emits accepted pairs in predicted-index order, then
// fp-only entries for leftover predictions, then fn-only entries for
// leftover ground-truth edits. A matched pair with weight s contributes
// tp=s, fp=(1-s)/2, fn=(1-s)/2 so partial correctness gives fractional
// credit to both denominators.
func buildMatchList(accepted []*candidate, predicted, groundTruth []domain.Edit) []domain.EditMatch {
	matches := make([]domain.EditMatch, 0, len(predicted)+len(groundTruth))
	usedPred := make([]bool, len(predicted))
	usedGT := make([]bool, len(groundTruth))

	for _, c := range accepted {
		usedPred[c.pred] = true
		usedGT[c.gt] = true

		pred := predicted[c.pred]
		predIdx, gtIdx := c.pred, c.gt
		line, diff := pred.LineNumber, c.lineDiff
		matches = append(matches, domain.EditMatch{
			ExpectedEditNum:    &gtIdx,
			ObservedEditNum:    &predIdx,
			TP:                 c.weight,
			FP:                 (1 - c.weight) / 2,
			FN:                 (1 - c.weight) / 2,
			Type:               pred.Type,
			OriginalText:       pred.OriginalText,
			CorrectedText:      pred.CorrectedText,
			ObservedLineNumber: &line,
			LineDiff:           &diff,
			LineNumberPenalty:  c.penalty,
			Judgement:          c.reasoning,
		})
	}

	for i, p := range predicted {
		if usedPred[i] {
			continue
		}
		idx, line := i, p.LineNumber
		matches = append(matches, domain.EditMatch{
			ObservedEditNum:    &idx,
			FP:                 1,
			Type:               p.Type,
			OriginalText:       p.OriginalText,
			CorrectedText:      p.CorrectedText,
			ObservedLineNumber: &line,
			Judgement:          "False positive: no matching ground truth edit found",
		})
	}

	for j, g := range groundTruth {
		if usedGT[j] {
			continue
		}
		idx := j
		matches = append(matches, domain.EditMatch{
			ExpectedEditNum: &idx,
			FN:              1,
			Type:            g.Type,
			OriginalText:    g.OriginalText,
			CorrectedText:   g.CorrectedText,
			Judgement:       "False negative: ground truth edit not found in prediction",
		})
	}

	return matches
}

// linePenalty grades line-number distance: 0.1 * diff^2, capped at 1.0.
// One line off costs 0.1, two cost 0.4, three cost 0.9, beyond that the
// pair is fully penalised.
func linePenalty(diff int) float64 {
	p := 0.1 * float64(diff*diff)
	if p > 1 {
		return 1
	}
	return p
}
