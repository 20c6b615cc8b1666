package tui

import (
	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driving"
)

// EntriesLoaded carries freshly built leaderboard entries.
type EntriesLoaded struct {
	Entries []domain.LeaderboardEntry
	Err     error
}

// IntervalProgress carries a partial bootstrap estimate for one model.
// The bootstrap engine emits one of these per chunk of replicates, so
// the board can show intervals converging instead of freezing until
// the full computation finishes.
type IntervalProgress struct {
	ModelID  string
	Estimate driving.IntervalEstimate
}

// ResultsChanged is sent when the results database file changes on
// disk; the board rebuilds itself in response.
type ResultsChanged struct{}
