package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driving"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Ensure Evaluator implements the interface.
var _ driving.EvalService = (*Evaluator)(nil)

// DefaultFileConcurrency bounds files evaluated in parallel. Matching for
// independent files shares no mutable state; the real shared resource is
// the judge's call budget, which the matcher's gate governs.
const DefaultFileConcurrency = 4

// EvaluatorConfig tunes the evaluation run.
type EvaluatorConfig struct {
	// Matcher configures the underlying matcher.
	Matcher MatcherConfig

	// FileConcurrency bounds files evaluated in parallel.
	FileConcurrency int
}

// Evaluator orchestrates matching across the files of one model run and
// persists each (file, run) artifact.
type Evaluator struct {
	judge    driven.Judge
	matcher  *Matcher
	results  driven.ResultStore
	registry driven.ModelRegistry

	fileConcurrency int
	now             func() time.Time
}

// NewEvaluator creates an evaluator. The registry is optional and only
// used to enrich model summaries with display names and shot counts.
func NewEvaluator(
	judge driven.Judge,
	results driven.ResultStore,
	registry driven.ModelRegistry,
	cfg EvaluatorConfig,
) *Evaluator {
	if cfg.FileConcurrency <= 0 {
		cfg.FileConcurrency = DefaultFileConcurrency
	}
	return &Evaluator{
		judge:           judge,
		matcher:         NewMatcher(judge, cfg.Matcher),
		results:         results,
		registry:        registry,
		fileConcurrency: cfg.FileConcurrency,
		now:             time.Now,
	}
}

// EvaluateFile matches one prediction against one ground-truth document
// and stores the artifact. Schema violations fail fast for this file.
func (e *Evaluator) EvaluateFile(
	ctx context.Context, modelID, fileID string,
	groundTruth, prediction domain.EditDocument,
) (*domain.FileResult, error) {
	if err := groundTruth.Validate(); err != nil {
		return nil, fmt.Errorf("ground truth %s: %w", fileID, err)
	}
	if err := prediction.Validate(); err != nil {
		return nil, fmt.Errorf("prediction %s: %w", fileID, err)
	}

	matches := e.matcher.Match(ctx, prediction.Edits, groundTruth.Edits)

	result := &domain.FileResult{
		ID:      uuid.NewString(),
		ModelID: modelID,
		FileID:  fileID,
		Date:    e.now().UTC(),
		Matches: matches,
	}
	if e.results != nil {
		if err := e.results.Save(ctx, result); err != nil {
			return nil, fmt.Errorf("save result %s: %w", fileID, err)
		}
	}

	metrics := domain.ScoreMatches(matches)
	logger.Info("File %s run %d: precision=%.4f recall=%.4f f1=%.4f",
		fileID, result.Run, metrics.Precision, metrics.Recall, metrics.F1)

	return result, nil
}

// EvaluateModel evaluates every ground-truth file with a matching
// prediction, up to the configured file concurrency. A judge that cannot
// even be reached aborts the whole run as a configuration error; per-file
// schema errors are collected and joined, and the remaining files still
// produce results.
func (e *Evaluator) EvaluateModel(
	ctx context.Context, modelID string,
	groundTruth, predictions map[string]domain.EditDocument,
) (*domain.ModelResult, error) {
	if e.judge == nil {
		return nil, domain.ErrJudgeUnavailable
	}
	if err := e.judge.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrJudgeUnavailable, err)
	}

	fileIDs := make([]string, 0, len(groundTruth))
	for id := range groundTruth {
		fileIDs = append(fileIDs, id)
	}
	sort.Strings(fileIDs)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		files   []domain.FileResult
		errs    []error
		gate    = make(chan struct{}, e.fileConcurrency)
		skipped int
		done    int
	)

	total := 0
	for _, fileID := range fileIDs {
		if _, ok := predictions[fileID]; ok {
			total++
		}
	}

	for _, fileID := range fileIDs {
		prediction, ok := predictions[fileID]
		if !ok {
			// No attempt was made for this file: excluded from the
			// aggregate rather than counted as all-fn.
			logger.Warn("No prediction for ground-truth file %s, skipping", fileID)
			skipped++
			continue
		}

		wg.Add(1)
		go func(fileID string, prediction domain.EditDocument) {
			defer wg.Done()

			gate <- struct{}{}
			defer func() { <-gate }()

			result, err := e.EvaluateFile(ctx, modelID, fileID, groundTruth[fileID], prediction)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				errs = append(errs, err)
				return
			}
			files = append(files, *result)
			logger.Progress(done, total, "matched %s", fileID)
		}(fileID, prediction)
	}
	wg.Wait()

	sort.Slice(files, func(i, j int) bool { return files[i].FileID < files[j].FileID })

	logger.Info("Evaluated %d files for %s (%d skipped, %d failed)",
		len(files), modelID, skipped, len(errs))

	summary := &domain.ModelResult{
		ModelID:     modelID,
		DisplayName: domain.DisplayName(modelID),
		Metrics:     domain.ScoreFiles(files),
		Files:       files,
	}
	if e.registry != nil {
		if cfg, err := e.registry.Resolve(modelID); err == nil {
			if cfg.LogicalName != "" {
				summary.DisplayName = cfg.LogicalName
			}
			summary.Shots = cfg.Shots
		}
	}

	return summary, errors.Join(errs...)
}
