package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tasknest/taskdeck/internal/core"
	"github.com/tasknest/taskdeck/pkg/models"
)

// Shared style definitions for command output.
var (
	statCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	statPending   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	statUrgent    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	priorityStyles = map[models.TaskPriority]lipgloss.Style{
		models.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.StatusTodo:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	}

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// printStats prints the aggregate counters over the whole collection.
func printStats(stats core.Stats) {
	fmt.Printf("%s completed   %s pending   %s high/urgent\n",
		statCompleted.Render(fmt.Sprintf("%d", stats.Completed)),
		statPending.Render(fmt.Sprintf("%d", stats.Pending)),
		statUrgent.Render(fmt.Sprintf("%d", stats.HighUrgent)),
	)
}

// printTaskTable prints the derived sequence as a table.
func printTaskTable(tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}

	fmt.Printf("%-6s %-30s %-12s %-8s %-10s %s\n", "ID", "TITLE", "STATUS", "PRI", "DEADLINE", "CREATED")
	fmt.Printf("%-6s %-30s %-12s %-8s %-10s %s\n", "--", "-----", "------", "---", "--------", "-------")
	for _, t := range tasks {
		deadline := "-"
		if t.Deadline != nil {
			deadline = t.Deadline.Format("2006-01-02")
		}
		// Pad before styling so the ANSI codes do not skew the columns.
		fmt.Printf("%-6d %-30s %s %s %-10s %s\n",
			t.ID,
			truncate(t.Title, 30),
			renderStatus(t.Status, 12),
			renderPriority(t.Priority, 8),
			deadline,
			dimStyle.Render(t.CreatedAt.Format("2006-01-02 15:04")),
		)
	}
}

// renderStatus styles a padded status cell, falling back to plain text
// for values outside the known set.
func renderStatus(s models.TaskStatus, width int) string {
	norm := models.NormalizeStatus(string(s))
	cell := fmt.Sprintf("%-*s", width, string(norm))
	if style, ok := statusStyles[norm]; ok {
		return style.Render(cell)
	}
	return cell
}

// renderPriority styles a padded priority cell, falling back to plain text.
func renderPriority(p models.TaskPriority, width int) string {
	norm := models.NormalizePriority(string(p))
	cell := fmt.Sprintf("%-*s", width, string(norm))
	if style, ok := priorityStyles[norm]; ok {
		return style.Render(cell)
	}
	return cell
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
