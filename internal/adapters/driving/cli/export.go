package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driving"
	"github.com/proofbench/proofbench-cli/internal/core/services"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

var (
	exportOutput     string
	exportShots      int
	exportReplicates int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the leaderboard as a JSON document",
	Long: `Writes the full leaderboard, including per-file drill-down metrics
and raw tp/fp/fn sums, to a JSON file suitable for publishing.`,
	RunE: runExport,
}

// exportDocument is the published leaderboard format.
type exportDocument struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Replicates  int                       `json:"replicates,omitempty"`
	Entries     []domain.LeaderboardEntry `json:"entries"`
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "leaderboard.json",
		"output file path")
	exportCmd.Flags().IntVar(&exportShots, "shots", 0,
		"only export models with this shot count")
	exportCmd.Flags().IntVar(&exportReplicates, "replicates", 0,
		"bootstrap replicates for confidence intervals (0 disables)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var registry driven.ModelRegistry
	if reg, err := openRegistry(); err != nil {
		logger.Warn("Model registry unavailable, using derived names: %v", err)
	} else {
		registry = reg
	}

	bootstrap := services.NewBootstrap(services.BootstrapConfig{})
	board := services.NewLeaderboard(store, registry, bootstrap)

	opts := driving.LeaderboardOptions{Replicates: exportReplicates}
	if cmd.Flags().Changed("shots") {
		shots := exportShots
		opts.Shots = &shots
	}

	entries, err := board.Build(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("building leaderboard: %w", err)
	}

	doc := exportDocument{
		GeneratedAt: time.Now().UTC(),
		Replicates:  exportReplicates,
		Entries:     entries,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling leaderboard: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}

	cmd.Printf("Exported %d models to %s\n", len(entries), exportOutput)
	return nil
}
