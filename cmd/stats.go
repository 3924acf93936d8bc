package cmd

import (
	"fmt"

	"github.com/abhisek/kielo/internal/store"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show practice statistics",
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

		ctx := cmd.Context()
		stats, err := st.Stats(ctx)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No finalized sessions yet.")
			return nil
		}

		fmt.Fprintf(out, "%-10s  %8s  %6s  %6s\n", "Section", "Sessions", "Avg%", "Passed")
		for _, s := range stats {
			fmt.Fprintf(out, "%-10s  %8d  %5.1f  %6d\n", s.Section, s.Sessions, s.AvgPercentage, s.Passed)
		}

		ready, err := st.ReadyToAdvance(ctx)
		if err != nil {
			return fmt.Errorf("query progression: %w", err)
		}
		if ready {
			fmt.Fprintln(out, "\nRecent sessions all passed. Consider the next level.")
		}
		return nil
	},
}
