package cli

import (
	"github.com/spf13/cobra"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage the model registry",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered models",
	RunE:  runModelsList,
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(cmd *cobra.Command, _ []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}

	ids := reg.IDs()
	if len(ids) == 0 {
		cmd.Println("No models registered.")
		return nil
	}

	cmd.Printf("%-24s %-24s %-32s %-6s %s\n",
		"ID", "Name", "Endpoint", "Shots", "Excluded")
	for _, id := range ids {
		cfg, err := reg.Resolve(id)
		if err != nil {
			return err
		}
		name := cfg.LogicalName
		if name == "" {
			name = domain.DisplayName(id)
		}
		excluded := ""
		if cfg.Excluded {
			excluded = "yes"
		}
		cmd.Printf("%-24s %-24s %-32s %-6d %s\n",
			id, name, cfg.Endpoint, cfg.Shots, excluded)
	}
	return nil
}
