// Package cli implements the proofbench command-line interface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/proofbench/proofbench-cli/internal/adapters/driven/config/file"
	"github.com/proofbench/proofbench-cli/internal/adapters/driven/storage/sqlite"
	"github.com/proofbench/proofbench-cli/internal/core/services"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose    bool
	configPath string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "proofbench",
	Short: "Benchmark multimodal models on handwritten proof correction",
	Long: `Proofbench evaluates how well multimodal language models extract
handwritten editorial corrections from scanned page images. Predicted
edits are matched against human-annotated ground truth by an LLM judge,
and per-model scores are aggregated into a leaderboard with bootstrap
confidence intervals.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/models.toml",
		"model registry TOML file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"results database directory (default ~/.proofbench/data)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openRegistry loads the model registry plus its optional .local.toml
// override next to it.
func openRegistry() (*file.Registry, error) {
	override := strings.TrimSuffix(configPath, ".toml") + ".local.toml"
	reg, err := file.NewRegistry(configPath, override)
	if err != nil {
		return nil, fmt.Errorf("loading model registry: %w", err)
	}
	return reg, nil
}

// openStore opens the results database at the configured data dir.
func openStore() (*sqlite.Store, error) {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening results store: %w", err)
	}
	return store, nil
}

// matcherConfig maps registry matcher settings onto the service config.
func matcherConfig(reg *file.Registry) services.MatcherConfig {
	if reg == nil {
		return services.MatcherConfig{}
	}
	settings := reg.Matcher()
	return services.MatcherConfig{
		Threshold:   settings.Threshold,
		MaxLineDiff: settings.MaxLineDiff,
	}
}
