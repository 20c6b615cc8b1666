package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driving"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Ensure Leaderboard implements the interface.
var _ driving.LeaderboardService = (*Leaderboard)(nil)

// Leaderboard reduces stored evaluation artifacts to ranked model
// summaries. It is purely derived state: every number it reports is
// recomputed from stored match lists.
type Leaderboard struct {
	results   driven.ResultStore
	registry  driven.ModelRegistry
	bootstrap driving.BootstrapService
}

// NewLeaderboard creates a leaderboard service. The registry and
// bootstrap engine are optional; without a registry models keep derived
// display names, and without a bootstrap engine no intervals are
// computed.
func NewLeaderboard(
	results driven.ResultStore,
	registry driven.ModelRegistry,
	bootstrap driving.BootstrapService,
) *Leaderboard {
	return &Leaderboard{results: results, registry: registry, bootstrap: bootstrap}
}

// Build returns ranked entries for all non-excluded models.
func (l *Leaderboard) Build(
	ctx context.Context, opts driving.LeaderboardOptions,
) ([]domain.LeaderboardEntry, error) {
	models, err := l.results.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	sort.Strings(models)

	entries := make([]domain.LeaderboardEntry, 0, len(models))
	for _, modelID := range models {
		entry, ok, err := l.buildEntry(ctx, modelID, opts)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}

	domain.SortEntries(entries)
	return entries, nil
}

// buildEntry computes one model's summary, reporting ok=false when the
// model is excluded or filtered out.
func (l *Leaderboard) buildEntry(
	ctx context.Context, modelID string, opts driving.LeaderboardOptions,
) (domain.LeaderboardEntry, bool, error) {
	displayName := domain.DisplayName(modelID)
	shots := 0
	if l.registry != nil {
		cfg, err := l.registry.Resolve(modelID)
		switch {
		case err == nil:
			if cfg.Excluded {
				logger.Debug("Model %s excluded from ranking", modelID)
				return domain.LeaderboardEntry{}, false, nil
			}
			if cfg.LogicalName != "" {
				displayName = cfg.LogicalName
			}
			shots = cfg.Shots
		case errors.Is(err, domain.ErrModelNotFound):
			// Results for unregistered models still rank, with derived names.
		default:
			return domain.LeaderboardEntry{}, false, fmt.Errorf("resolve %s: %w", modelID, err)
		}
	}

	if opts.Shots != nil && shots != *opts.Shots {
		return domain.LeaderboardEntry{}, false, nil
	}

	files, err := l.results.ListByModel(ctx, modelID)
	if err != nil {
		return domain.LeaderboardEntry{}, false, fmt.Errorf("list results for %s: %w", modelID, err)
	}
	if len(files) == 0 {
		return domain.LeaderboardEntry{}, false, nil
	}

	fileMetrics := make([]domain.FileMetrics, len(files))
	for i, f := range files {
		fileMetrics[i] = domain.FileMetrics{
			FileID:  f.FileID,
			Run:     f.Run,
			Metrics: f.Totals().Score(),
		}
	}

	entry := domain.LeaderboardEntry{
		ModelID:     modelID,
		DisplayName: displayName,
		Shots:       shots,
		Metrics:     domain.ScoreFiles(files),
		Files:       fileMetrics,
	}

	if opts.Replicates > 0 && l.bootstrap != nil {
		iv, err := l.bootstrap.ConfidenceInterval(ctx, groupByFile(files), opts.Replicates)
		if err != nil {
			logger.Warn("Bootstrap failed for %s: %v", modelID, err)
		} else {
			entry.Interval = &iv
		}
	}

	return entry, true, nil
}

// groupByFile groups a model's artifacts by file id for resampling.
func groupByFile(files []domain.FileResult) map[string][]domain.FileResult {
	groups := make(map[string][]domain.FileResult)
	for _, f := range files {
		groups[f.FileID] = append(groups[f.FileID], f)
	}
	return groups
}
