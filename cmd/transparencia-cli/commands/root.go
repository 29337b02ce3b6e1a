// Package commands implements the transparencia-cli command tree.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

var output string

var rootCmd = &cobra.Command{
	Use:           "transparencia-cli",
	Short:         "transparencia-cli collects benefit records from Portal da Transparência.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if output != outputJSON && output != outputTable {
			return fmt.Errorf("invalid --output %q (want %s or %s)", output, outputJSON, outputTable)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "output format: json or table")
}

// ExecuteContext runs the command tree and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
