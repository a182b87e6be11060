package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasknest/taskdeck/internal/observability"
)

var (
	alertsNotify bool
	alertsWindow int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show overdue and upcoming deadlines",
	Long: `Scan the task collection for non-completed tasks that are overdue
or due within the warning window (default 3 days).

With --notify, the alerts are also posted to the configured webhook.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		if err := Mutations.Refresh(cmd.Context()); err != nil {
			return err
		}

		snap := View.Snapshot()
		window := time.Duration(alertsWindow) * 24 * time.Hour
		alerts := observability.DeadlineAlerts(snap.Tasks, time.Now(), window)

		if len(alerts) == 0 {
			fmt.Println("No deadline alerts.")
			return nil
		}

		fmt.Printf("%d alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			fmt.Printf("  [%s] #%d %s: %s\n", strings.ToUpper(alert.Severity), alert.TaskID, alert.Title, alert.Message)
		}

		if alertsNotify {
			if Notifier == nil {
				return fmt.Errorf("no webhook configured, set notify.webhook_url in .taskdeckrc")
			}
			if err := Notifier.Notify(alerts); err != nil {
				return fmt.Errorf("sending notification: %w", err)
			}
			fmt.Println("\nNotification sent.")
		}

		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Post the alerts to the configured webhook")
	alertsCmd.Flags().IntVar(&alertsWindow, "window", 3, "Warning window in days for upcoming deadlines")
	rootCmd.AddCommand(alertsCmd)
}
