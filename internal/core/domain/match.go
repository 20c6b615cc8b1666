package domain

import "time"

// EditMatch records the outcome of pairing one predicted edit with one
// ground-truth edit, or of leaving either side unpaired.
//
// TP is a fractional true-positive weight in [0,1]: 1.0 for an exact or
// fully judged match, a partial value for a close match (reduced by the
// line-number penalty), 0 for no match. FP and FN are complementary so a
// partially correct prediction contributes fractional credit to both the
// precision and recall denominators instead of counting as a full miss
// plus a full spurious hit. For any single match, tp+fp <= 1 and
// tp+fn <= 1.
type EditMatch struct {
	// ExpectedEditNum indexes the ground-truth edit list. Nil when the
	// match is a spurious prediction with no ground-truth partner.
	ExpectedEditNum *int `json:"expected_edit_num,omitempty"`

	// ObservedEditNum indexes the predicted edit list. Nil when the
	// ground-truth edit was missed entirely.
	ObservedEditNum *int `json:"observed_edit_num,omitempty"`

	TP float64 `json:"tp"`
	FP float64 `json:"fp"`
	FN float64 `json:"fn"`

	// Type and texts describe the edit content, taken from the prediction
	// for matches and false positives, from ground truth for misses.
	Type          EditType `json:"type,omitempty"`
	OriginalText  string   `json:"original_text,omitempty"`
	CorrectedText string   `json:"corrected_text,omitempty"`

	// ObservedLineNumber is the line number in the prediction, when any.
	ObservedLineNumber *int `json:"observed_line_number,omitempty"`

	// LineDiff is the absolute difference between predicted and expected
	// line numbers for matched pairs.
	LineDiff *int `json:"line_diff,omitempty"`

	// LineNumberPenalty is the score reduction applied for the line
	// difference (0.1 * diff^2, capped at 1.0).
	LineNumberPenalty float64 `json:"line_number_penalty"`

	// Judgement is the judge's reasoning, or a fixed explanation for
	// unpaired entries.
	Judgement string `json:"judgement,omitempty"`
}

// Matched reports whether this entry pairs a prediction with ground truth.
func (m EditMatch) Matched() bool {
	return m.ExpectedEditNum != nil && m.ObservedEditNum != nil
}

// FileResult is the durable evaluation artifact for one (file, run) pair:
// the complete match list plus identifying metadata. Artifacts are written
// exactly once and never mutated; forced re-evaluation creates a new run
// with the next per-(model, file) run number.
type FileResult struct {
	// ID is the artifact's unique identifier.
	ID string `json:"id"`

	// ModelID identifies the evaluated model.
	ModelID string `json:"model_id"`

	// FileID identifies the ground-truth page.
	FileID string `json:"file_id"`

	// Run is the run number, monotonically increasing per (model, file)
	// starting at 1. Not globally ordered.
	Run int `json:"run_id"`

	// Date is when the evaluation was produced.
	Date time.Time `json:"date"`

	// Matches is the ordered match list.
	Matches []EditMatch `json:"matches"`
}

// Totals sums the fractional tp/fp/fn weights of this file's matches.
func (r FileResult) Totals() Totals {
	return SumMatches(r.Matches)
}

// ModelResult is the derived, recomputable summary for one model across
// all evaluated files and runs. The underlying FileResult artifacts are
// the source of truth; this is never persisted as authoritative state.
type ModelResult struct {
	// ModelID identifies the model.
	ModelID string `json:"model_id"`

	// DisplayName is the human-readable model name.
	DisplayName string `json:"display_name"`

	// Shots is the few-shot example count the predictions used.
	Shots int `json:"shots"`

	// Metrics is the micro-averaged point estimate over Files.
	Metrics Metrics `json:"metrics"`

	// Interval is the bootstrap confidence interval, when computed.
	Interval *Interval `json:"interval,omitempty"`

	// Files holds every (file, run) artifact contributing to the summary.
	Files []FileResult `json:"files"`
}
