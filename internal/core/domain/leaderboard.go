package domain

import "sort"

// FileMetrics is drill-down metrics for one (file, run) artifact.
type FileMetrics struct {
	FileID  string  `json:"file_id"`
	Run     int     `json:"run_id"`
	Metrics Metrics `json:"metrics"`
}

// LeaderboardEntry is one ranked row. It carries the raw tp/fp/fn sums
// (inside Metrics.Totals) and per-file detail so any presentation layer
// can recompute precision/recall/F1 independently without re-running the
// matcher.
type LeaderboardEntry struct {
	ModelID     string  `json:"model_id"`
	DisplayName string  `json:"display_name"`
	Shots       int     `json:"shots"`
	Metrics     Metrics `json:"metrics"`

	// Interval is the bootstrap confidence interval for F1, if computed.
	Interval *Interval `json:"interval,omitempty"`

	// Files holds per-(file, run) drill-down metrics.
	Files []FileMetrics `json:"files"`
}

// SortEntries orders entries by F1 descending, ties broken by precision
// descending, then model id ascending.
func SortEntries(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Metrics.F1 != entries[j].Metrics.F1 {
			return entries[i].Metrics.F1 > entries[j].Metrics.F1
		}
		if entries[i].Metrics.Precision != entries[j].Metrics.Precision {
			return entries[i].Metrics.Precision > entries[j].Metrics.Precision
		}
		return entries[i].ModelID < entries[j].ModelID
	})
}
