package cmd

import (
	"fmt"

	"github.com/abhisek/kielo/internal/store"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect model usage",
}

var llmUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show aggregate token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		u, err := st.Usage(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Requests:      %d\n", u.Requests)
		fmt.Fprintf(out, "Input tokens:  %d\n", u.InputTokens)
		fmt.Fprintf(out, "Output tokens: %d\n", u.OutputTokens)
		fmt.Fprintf(out, "Failures:      %d\n", u.Failures)
		return nil
	},
}

func init() {
	llmCmd.AddCommand(llmUsageCmd)
}
