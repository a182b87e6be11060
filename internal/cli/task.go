package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasknest/taskdeck/internal/core"
	"github.com/tasknest/taskdeck/internal/observability"
	"github.com/tasknest/taskdeck/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (list, create, update, delete, status)",
	Long: `Task management commands.

List the collection with search and filters, create new tasks, edit or
delete existing ones, and change task status.`,
}

var (
	listSearch   string
	listStatus   string
	listPriority string
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with optional search and filters",
	Long: `Fetch the task collection and print the derived view.

The view is filtered by --search (case-insensitive match on title or
description), --status, and --priority, then sorted newest first.`,
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
		observability.Record(EventLog, observability.EventRefresh, "collection refreshed", nil)

		View.SetSearch(listSearch)
		View.SetStatusFilter(models.NormalizeStatus(listStatus))
		View.SetPriorityFilter(models.NormalizePriority(listPriority))

		snap := View.Snapshot()
		printStats(snap.Stats)
		fmt.Println()
		printTaskTable(snap.Tasks)
		return nil
	},
}

var (
	createDescription string
	createPriority    string
	createStatus      string
	createDeadline    string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task",
	Long: `Create a new task with the given title.

Status defaults to todo and priority to the configured default. The
collection is re-fetched after the create so the local view always
matches the service.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		deadline, err := parseDeadline(createDeadline)
		if err != nil {
			return err
		}

		priority := models.NormalizePriority(createPriority)
		if priority == "" && Config != nil {
			priority = Config.DefaultPriority
		}

		draft := models.TaskDraft{
			Title:       args[0],
			Description: createDescription,
			Status:      models.NormalizeStatus(createStatus),
			Priority:    priority,
			Deadline:    deadline,
		}

		if err := Mutations.Create(cmd.Context(), draft); err != nil {
			observability.Record(EventLog, observability.EventMutationError, "create failed", map[string]any{"error": err.Error()})
			return err
		}

		observability.Record(EventLog, observability.EventTaskCreated, "task created", map[string]any{"title": args[0]})
		fmt.Printf("Created task %q (%d task(s) total)\n", args[0], View.Len())
		return nil
	},
}

var (
	updateTitle       string
	updateDescription string
	updatePriority    string
	updateStatus      string
	updateDeadline    string
)

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Edit an existing task",
	Long: `Edit a task's fields. Flags that are not set keep the task's
current value; the service receives a full replacement either way.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		// Load the current fields so unset flags carry forward.
		if err := Mutations.Refresh(cmd.Context()); err != nil {
			return err
		}
		current, ok := View.Task(id)
		if !ok {
			return fmt.Errorf("task %d not found", id)
		}

		draft := models.TaskDraft{
			Title:       current.Title,
			Description: current.Description,
			Status:      current.Status,
			Priority:    current.Priority,
			Deadline:    current.Deadline,
		}
		if cmd.Flags().Changed("title") {
			draft.Title = updateTitle
		}
		if cmd.Flags().Changed("description") {
			draft.Description = updateDescription
		}
		if cmd.Flags().Changed("priority") {
			draft.Priority = models.NormalizePriority(updatePriority)
		}
		if cmd.Flags().Changed("status") {
			draft.Status = models.NormalizeStatus(updateStatus)
		}
		if cmd.Flags().Changed("deadline") {
			deadline, err := parseDeadline(updateDeadline)
			if err != nil {
				return err
			}
			draft.Deadline = deadline
		}

		if err := Mutations.Update(cmd.Context(), id, draft); err != nil {
			observability.Record(EventLog, observability.EventMutationError, "update failed", map[string]any{"task_id": id, "error": err.Error()})
			return err
		}

		observability.Record(EventLog, observability.EventTaskUpdated, "task updated", map[string]any{"task_id": id})
		fmt.Printf("Updated task %d\n", id)
		return nil
	},
}

var deleteYes bool

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Long: `Delete a task. Deletion is a two-step commit: the command asks
for confirmation unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		Mutations.StageDelete(id)
		if !deleteYes {
			answer := prompt(fmt.Sprintf("Delete task %d? [y/N] ", id))
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				Mutations.CancelDelete(id)
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := Mutations.ConfirmDelete(cmd.Context(), id); err != nil {
			observability.Record(EventLog, observability.EventMutationError, "delete failed", map[string]any{"task_id": id, "error": err.Error()})
			return err
		}

		observability.Record(EventLog, observability.EventTaskDeleted, "task deleted", map[string]any{"task_id": id})
		fmt.Printf("Deleted task %d\n", id)
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <todo|in_progress|completed>",
	Short: "Change a task's status",
	Long: `Change only the status of a task. The task's other fields are
carried forward unchanged.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		if err := Mutations.Refresh(cmd.Context()); err != nil {
			return err
		}

		status := models.NormalizeStatus(args[1])
		if err := Mutations.ChangeStatus(cmd.Context(), id, status); err != nil {
			observability.Record(EventLog, observability.EventMutationError, "status change failed", map[string]any{"task_id": id, "error": err.Error()})
			return err
		}

		observability.Record(EventLog, observability.EventTaskUpdated, "status changed", map[string]any{"task_id": id, "status": string(status)})
		fmt.Printf("Task %d is now %s\n", id, status)
		return nil
	},
}

// requireServices guards against commands running before app wiring.
func requireServices() error {
	if Session == nil || View == nil || Mutations == nil {
		return fmt.Errorf("client not initialized")
	}
	return nil
}

// parseTaskID parses a task id argument.
func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// parseDeadline parses a --deadline value. Empty means no deadline.
func parseDeadline(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, &core.ValidationError{Field: "deadline", Reason: "must be YYYY-MM-DD"}
	}
	return &t, nil
}

func init() {
	taskListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive search over title and description")
	taskListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (todo, in_progress, completed)")
	taskListCmd.Flags().StringVar(&listPriority, "priority", "", "Filter by priority (urgent, high, medium, low)")

	taskCreateCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Task description")
	taskCreateCmd.Flags().StringVarP(&createPriority, "priority", "p", "", "Priority (urgent, high, medium, low)")
	taskCreateCmd.Flags().StringVar(&createStatus, "status", "", "Initial status (default todo)")
	taskCreateCmd.Flags().StringVar(&createDeadline, "deadline", "", "Deadline as YYYY-MM-DD")

	taskUpdateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New title")
	taskUpdateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "New description")
	taskUpdateCmd.Flags().StringVarP(&updatePriority, "priority", "p", "", "New priority")
	taskUpdateCmd.Flags().StringVar(&updateStatus, "status", "", "New status")
	taskUpdateCmd.Flags().StringVar(&updateDeadline, "deadline", "", "New deadline as YYYY-MM-DD, empty to clear")

	taskDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskStatusCmd)
	rootCmd.AddCommand(taskCmd)
}
