package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/proofbench/proofbench-cli/internal/adapters/driven/annotation"
	"github.com/proofbench/proofbench-cli/internal/adapters/driven/judge/openai"
	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/services"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

var (
	evaluateGroundTruth string
	evaluatePredictions string
	evaluateJudge       string
	evaluateJSON        bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [model-id]",
	Short: "Evaluate a model's predictions against ground truth",
	Long: `Matches a model's predicted edits against human-annotated ground
truth, file by file. An LLM judge scores each candidate pair; accepted
matches earn fractional true-positive credit, unmatched predictions
count as false positives and unmatched ground-truth edits as false
negatives. Results are stored immutably under a fresh run number.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateGroundTruth, "ground-truth", "data/ground_truth",
		"directory of ground-truth annotation JSON files")
	evaluateCmd.Flags().StringVar(&evaluatePredictions, "predictions", "",
		"directory of predicted annotation JSON files (required)")
	evaluateCmd.Flags().StringVar(&evaluateJudge, "judge", "gpt-4o",
		"registry id of the judge model")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false,
		"output the evaluation summary as JSON")
	_ = evaluateCmd.MarkFlagRequired("predictions")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	modelID := args[0]
	ctx := context.Background()

	reg, err := openRegistry()
	if err != nil {
		return err
	}

	judgeEntry, err := reg.Resolve(evaluateJudge)
	if err != nil {
		return fmt.Errorf("resolving judge %q: %w", evaluateJudge, err)
	}
	judge, err := openai.NewJudge(openai.FromModelConfig(judgeEntry))
	if err != nil {
		return err
	}
	defer judge.Close()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	loader := annotation.NewLoader()
	groundTruth, err := loader.LoadDir(ctx, evaluateGroundTruth)
	if err != nil {
		return fmt.Errorf("loading ground truth: %w", err)
	}
	predictions, err := loader.LoadDir(ctx, evaluatePredictions)
	if err != nil {
		return fmt.Errorf("loading predictions: %w", err)
	}

	logger.Info("Evaluating %s: %d ground-truth files, %d predictions",
		modelID, len(groundTruth), len(predictions))

	evaluator := services.NewEvaluator(judge, store, reg, services.EvaluatorConfig{
		Matcher: matcherConfig(reg),
	})

	summary, evalErr := evaluator.EvaluateModel(ctx, modelID, groundTruth, predictions)
	if summary == nil {
		return evalErr
	}

	if evaluateJSON {
		if err := outputSummaryJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		outputSummaryText(cmd, summary)
	}

	// Per-file failures surface after the partial summary.
	return evalErr
}

func outputSummaryJSON(cmd *cobra.Command, summary *domain.ModelResult) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSummaryText(cmd *cobra.Command, summary *domain.ModelResult) {
	cmd.Printf("Model: %s (%s)\n", summary.DisplayName, summary.ModelID)
	cmd.Println()

	var matches []domain.EditMatch
	cmd.Println("Files:")
	for _, f := range summary.Files {
		m := domain.ScoreMatches(f.Matches)
		correct, expected := domain.CorrectCount(f.Matches)
		cmd.Printf("  %-24s run %-3d P %.4f  R %.4f  F1 %.4f  (%d/%d correct)\n",
			f.FileID, f.Run, m.Precision, m.Recall, m.F1, correct, expected)
		matches = append(matches, f.Matches...)
	}
	cmd.Println()

	byType := domain.ScoreByType(matches)
	types := make([]domain.EditType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	cmd.Println("By edit type:")
	for _, t := range types {
		tm := byType[t]
		cmd.Printf("  %-16s P %.4f  R %.4f  F1 %.4f  (%d edits)\n",
			t, tm.Metrics.Precision, tm.Metrics.Recall, tm.Metrics.F1, tm.Count)
	}
	cmd.Println()

	m := summary.Metrics
	cmd.Printf("Overall: P %.4f  R %.4f  F1 %.4f  (tp %.2f, fp %.2f, fn %.2f)\n",
		m.Precision, m.Recall, m.F1, m.Totals.TP, m.Totals.FP, m.Totals.FN)
}
