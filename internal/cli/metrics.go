package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var metricsDays int

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show client usage metrics",
	Long: `Summarize activity recorded in the local event log: tasks created,
updated and deleted, refreshes, logins, and failed mutations.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics not available (events may be disabled)")
		}

		var since *time.Time
		if metricsDays > 0 {
			t := time.Now().UTC().Add(-time.Duration(metricsDays) * 24 * time.Hour)
			since = &t
		}

		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			return err
		}

		if metricsDays > 0 {
			fmt.Printf("Usage over the last %d day(s):\n", metricsDays)
		} else {
			fmt.Println("Usage over the full event log:")
		}
		fmt.Printf("  Tasks created:     %d\n", metrics.TasksCreated)
		fmt.Printf("  Tasks updated:     %d\n", metrics.TasksUpdated)
		fmt.Printf("  Tasks deleted:     %d\n", metrics.TasksDeleted)
		fmt.Printf("  Refreshes:         %d\n", metrics.Refreshes)
		fmt.Printf("  Logins:            %d\n", metrics.Logins)
		fmt.Printf("  Failed mutations:  %d\n", metrics.MutationFailures)
		return nil
	},
}

func init() {
	metricsCmd.Flags().IntVar(&metricsDays, "days", 0, "Restrict to the last N days (0 = all)")
	rootCmd.AddCommand(metricsCmd)
}
