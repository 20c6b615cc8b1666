package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/proofbench/proofbench-cli/internal/adapters/driving/tui"
	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driving"
	"github.com/proofbench/proofbench-cli/internal/core/services"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

var (
	leaderboardJSON       bool
	leaderboardShots      int
	leaderboardReplicates int
	leaderboardWatch      bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank evaluated models by F1 score",
	Long: `Builds a ranked leaderboard from stored evaluation results.
Ranking is by micro-averaged F1 descending, ties broken by precision.
With --replicates, a bootstrap 95% confidence interval for F1 is
computed per model by resampling evaluated files.`,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().BoolVar(&leaderboardJSON, "json", false,
		"output the leaderboard as JSON")
	leaderboardCmd.Flags().IntVar(&leaderboardShots, "shots", 0,
		"only rank models with this shot count")
	leaderboardCmd.Flags().IntVar(&leaderboardReplicates, "replicates", 0,
		"bootstrap replicates for confidence intervals (0 disables)")
	leaderboardCmd.Flags().BoolVar(&leaderboardWatch, "watch", false,
		"interactive view that refreshes as results arrive")
	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// The registry only supplies display names, shot counts and
	// exclusions here; a missing config file is not fatal.
	var registry driven.ModelRegistry
	if reg, err := openRegistry(); err != nil {
		logger.Warn("Model registry unavailable, using derived names: %v", err)
	} else {
		registry = reg
	}

	bootstrap := services.NewBootstrap(services.BootstrapConfig{})
	board := services.NewLeaderboard(store, registry, bootstrap)

	opts := driving.LeaderboardOptions{Replicates: leaderboardReplicates}
	if cmd.Flags().Changed("shots") {
		shots := leaderboardShots
		opts.Shots = &shots
	}

	if leaderboardWatch {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--watch requires an interactive terminal")
		}
		replicates := leaderboardReplicates
		if replicates == 0 {
			replicates = services.DefaultReplicates
		}
		return tui.Run(tui.Config{
			Leaderboard: board,
			Bootstrap:   bootstrap,
			Results:     store,
			Replicates:  replicates,
			Shots:       opts.Shots,
			WatchPath:   store.Path(),
		})
	}

	entries, err := board.Build(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("building leaderboard: %w", err)
	}

	if leaderboardJSON {
		return outputLeaderboardJSON(cmd, entries)
	}
	return outputLeaderboardTable(cmd, entries)
}

func outputLeaderboardJSON(cmd *cobra.Command, entries []domain.LeaderboardEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling leaderboard: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputLeaderboardTable(cmd *cobra.Command, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		cmd.Println("No evaluation results found.")
		return nil
	}

	cmd.Printf("%-4s %-28s %-10s %-10s %-10s %-18s %s\n",
		"#", "Model", "Precision", "Recall", "F1", "95% CI", "Shots")
	for i, e := range entries {
		ci := "-"
		if e.Interval != nil {
			down, up := e.Interval.Offsets(e.Metrics.F1)
			ci = fmt.Sprintf("+%.3f/-%.3f", up, down)
		}
		cmd.Printf("%-4d %-28s %-10.4f %-10.4f %-10.4f %-18s %d\n",
			i+1, e.DisplayName, e.Metrics.Precision, e.Metrics.Recall,
			e.Metrics.F1, ci, e.Shots)
	}
	return nil
}
