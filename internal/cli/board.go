package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tasknest/taskdeck/internal/core"
	"github.com/tasknest/taskdeck/internal/observability"
	"github.com/tasknest/taskdeck/internal/remote"
	"github.com/tasknest/taskdeck/pkg/models"
)

// Board modes.
const (
	modeBrowse = iota
	modeSearch
	modeForm
	modeConfirmDelete
)

// statusCycle and priorityCycle drive the filter toggle keys. The empty
// value means "no filter".
var (
	statusCycle   = []models.TaskStatus{"", models.StatusTodo, models.StatusInProgress, models.StatusCompleted}
	priorityCycle = []models.TaskPriority{"", models.PriorityUrgent, models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
)

// Board style definitions.
var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	boardPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62"))

	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	inputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
)

// formField indexes the task form inputs.
const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldDeadline
	fieldCount
)

// taskForm holds the create/edit form state. editID is zero for create.
type taskForm struct {
	editID int64
	status models.TaskStatus
	focus  int
	values [fieldCount]string
}

type boardModel struct {
	mode   int
	width  int
	height int

	snap     core.ViewSnapshot
	cursor   int
	search   string
	statusIx int
	priorIx  int

	form      taskForm
	deleteID  int64
	busy      bool
	errText   string
	notice    string
}

// refreshedMsg signals a completed refresh; the model re-reads the
// view-model snapshot, which was swapped atomically.
type refreshedMsg struct {
	err error
}

// mutatedMsg signals a completed mutation (which already refreshed).
type mutatedMsg struct {
	action string
	err    error
}

func newBoardModel() boardModel {
	return boardModel{
		mode: modeBrowse,
		snap: View.Snapshot(),
		busy: true,
	}
}

func (m boardModel) Init() tea.Cmd {
	return refreshCmd()
}

// refreshCmd re-fetches the collection off the Update loop.
func refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := Mutations.Refresh(ctx)
		if err == nil {
			observability.Record(EventLog, observability.EventRefresh, "collection refreshed", nil)
		}
		return refreshedMsg{err: err}
	}
}

// mutateCmd runs a mutation off the Update loop. The controller performs
// the reconciling refresh itself before the message arrives.
func mutateCmd(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutatedMsg{action: action, err: fn(ctx)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = userMessage(msg.err)
			return m, nil
		}
		m.errText = ""
		m.snap = View.Snapshot()
		m.clampCursor()
		return m, nil

	case mutatedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = userMessage(msg.err)
			observability.Record(EventLog, observability.EventMutationError, msg.action+" failed", map[string]any{"error": msg.err.Error()})
			return m, nil
		}
		m.errText = ""
		m.notice = msg.action + " done"
		m.snap = View.Snapshot()
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

func (m boardModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Tasks)-1 {
			m.cursor++
		}

	case "/":
		m.mode = modeSearch
		m.search = m.snap.Params.Search

	case "s":
		m.statusIx = (m.statusIx + 1) % len(statusCycle)
		View.SetStatusFilter(statusCycle[m.statusIx])
		m.snap = View.Snapshot()
		m.clampCursor()
	case "p":
		m.priorIx = (m.priorIx + 1) % len(priorityCycle)
		View.SetPriorityFilter(priorityCycle[m.priorIx])
		m.snap = View.Snapshot()
		m.clampCursor()
	case "c":
		m.statusIx, m.priorIx, m.search = 0, 0, ""
		View.ClearFilters()
		m.snap = View.Snapshot()
		m.clampCursor()

	case "n":
		m.form = taskForm{status: models.StatusTodo}
		if Config != nil && Config.DefaultPriority != "" {
			m.form.values[fieldPriority] = string(Config.DefaultPriority)
		}
		m.mode = modeForm

	case "e":
		if task, ok := m.selected(); ok {
			m.form = taskForm{
				editID: task.ID,
				status: models.NormalizeStatus(string(task.Status)),
			}
			m.form.values[fieldTitle] = task.Title
			m.form.values[fieldDescription] = task.Description
			m.form.values[fieldPriority] = string(task.Priority)
			if task.Deadline != nil {
				m.form.values[fieldDeadline] = task.Deadline.Format("2006-01-02")
			}
			m.mode = modeForm
		}

	case "d":
		if task, ok := m.selected(); ok && !Mutations.Deleting(task.ID) {
			Mutations.StageDelete(task.ID)
			m.deleteID = task.ID
			m.mode = modeConfirmDelete
		}

	case "t":
		if task, ok := m.selected(); ok {
			next := nextStatus(models.NormalizeStatus(string(task.Status)))
			id := task.ID
			m.busy = true
			return m, mutateCmd("status change", func(ctx context.Context) error {
				return Mutations.ChangeStatus(ctx, id, next)
			})
		}

	case "r":
		m.busy = true
		return m, refreshCmd()
	}

	return m, nil
}

func (m boardModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = modeBrowse
		View.SetSearch(m.search)
		m.snap = View.Snapshot()
		m.clampCursor()
	case "backspace":
		if len(m.search) > 0 {
			runes := []rune(m.search)
			m.search = string(runes[:len(runes)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.search += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.search += " "
		}
	}

	// Live search: derive as the user types.
	View.SetSearch(m.search)
	m.snap = View.Snapshot()
	m.clampCursor()
	return m, nil
}

func (m boardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil

	case "tab", "down":
		m.form.focus = (m.form.focus + 1) % fieldCount
		return m, nil
	case "shift+tab", "up":
		m.form.focus = (m.form.focus - 1 + fieldCount) % fieldCount
		return m, nil

	case "ctrl+s", "enter":
		deadline, err := parseDeadline(strings.TrimSpace(m.form.values[fieldDeadline]))
		if err != nil {
			m.errText = userMessage(err)
			return m, nil
		}
		draft := models.TaskDraft{
			Title:       strings.TrimSpace(m.form.values[fieldTitle]),
			Description: m.form.values[fieldDescription],
			Status:      m.form.status,
			Priority:    models.NormalizePriority(m.form.values[fieldPriority]),
			Deadline:    deadline,
		}

		form := m.form
		m.mode = modeBrowse
		m.busy = true
		if form.editID != 0 {
			return m, mutateCmd("update", func(ctx context.Context) error {
				if err := Mutations.Update(ctx, form.editID, draft); err != nil {
					return err
				}
				observability.Record(EventLog, observability.EventTaskUpdated, "task updated", map[string]any{"task_id": form.editID})
				return nil
			})
		}
		return m, mutateCmd("create", func(ctx context.Context) error {
			if err := Mutations.Create(ctx, draft); err != nil {
				return err
			}
			observability.Record(EventLog, observability.EventTaskCreated, "task created", map[string]any{"title": draft.Title})
			return nil
		})

	case "backspace":
		v := m.form.values[m.form.focus]
		if len(v) > 0 {
			runes := []rune(v)
			m.form.values[m.form.focus] = string(runes[:len(runes)-1])
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		m.form.values[m.form.focus] += string(msg.Runes)
	} else if msg.Type == tea.KeySpace {
		m.form.values[m.form.focus] += " "
	}
	return m, nil
}

func (m boardModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		id := m.deleteID
		m.mode = modeBrowse
		m.busy = true
		return m, mutateCmd("delete", func(ctx context.Context) error {
			if err := Mutations.ConfirmDelete(ctx, id); err != nil {
				return err
			}
			observability.Record(EventLog, observability.EventTaskDeleted, "task deleted", map[string]any{"task_id": id})
			return nil
		})

	case "n", "esc":
		Mutations.CancelDelete(m.deleteID)
		m.deleteID = 0
		m.mode = modeBrowse
	}
	return m, nil
}

func (m boardModel) View() string {
	var b strings.Builder

	b.WriteString(boardTitleStyle.Render("taskdeck"))
	b.WriteString("  ")
	b.WriteString(fmt.Sprintf("%s completed  %s pending  %s high/urgent",
		statCompleted.Render(fmt.Sprintf("%d", m.snap.Stats.Completed)),
		statPending.Render(fmt.Sprintf("%d", m.snap.Stats.Pending)),
		statUrgent.Render(fmt.Sprintf("%d", m.snap.Stats.HighUrgent)),
	))
	if m.busy {
		b.WriteString("  " + helpStyle.Render("syncing…"))
	}
	b.WriteString("\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.renderForm())
	case modeConfirmDelete:
		b.WriteString(m.renderConfirm())
	default:
		b.WriteString(m.renderList())
	}

	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	} else if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice))
	}

	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m boardModel) renderList() string {
	var b strings.Builder

	filters := []string{}
	if m.snap.Params.Search != "" {
		filters = append(filters, fmt.Sprintf("search=%q", m.snap.Params.Search))
	}
	if m.snap.Params.Status != "" {
		filters = append(filters, "status="+string(m.snap.Params.Status))
	}
	if m.snap.Params.Priority != "" {
		filters = append(filters, "priority="+string(m.snap.Params.Priority))
	}
	if m.mode == modeSearch {
		b.WriteString(labelStyle.Render("Search: ") + inputStyle.Render(m.search+"▌") + "\n\n")
	} else if len(filters) > 0 {
		b.WriteString(helpStyle.Render("filters: "+strings.Join(filters, "  ")) + "\n\n")
	}

	if len(m.snap.Tasks) == 0 {
		empty := "No tasks yet. Press n to create one."
		if m.snap.Params.ActiveFilters() > 0 || m.snap.Params.Search != "" {
			empty = "No tasks match. Press c to clear filters."
		}
		b.WriteString(boardPanelStyle.Render(empty))
		return b.String()
	}

	var rows []string
	for i, t := range m.snap.Tasks {
		deadline := ""
		if t.Deadline != nil {
			deadline = "  due " + t.Deadline.Format("2006-01-02")
		}
		row := fmt.Sprintf("%-5d %-34s %-12s %-8s%s",
			t.ID,
			truncate(t.Title, 34),
			models.NormalizeStatus(string(t.Status)),
			models.NormalizePriority(string(t.Priority)),
			deadline,
		)
		if i == m.cursor && m.mode == modeBrowse {
			row = selectedRowStyle.Render(row)
		}
		rows = append(rows, row)
	}
	b.WriteString(boardPanelStyle.Render(strings.Join(rows, "\n")))
	return b.String()
}

func (m boardModel) renderForm() string {
	title := "New Task"
	if m.form.editID != 0 {
		title = fmt.Sprintf("Edit Task %d", m.form.editID)
	}

	labels := [fieldCount]string{"Title", "Description", "Priority", "Deadline"}
	var rows []string
	rows = append(rows, labelStyle.Render(title), "")
	for i := 0; i < fieldCount; i++ {
		cursor := " "
		value := m.form.values[i]
		if i == m.form.focus {
			cursor = ">"
			value += "▌"
		}
		rows = append(rows, fmt.Sprintf("%s %-12s %s", cursor, labels[i]+":", inputStyle.Render(value)))
	}
	rows = append(rows, "", helpStyle.Render("enter save · tab next field · esc cancel"))
	return boardPanelStyle.Render(strings.Join(rows, "\n"))
}

func (m boardModel) renderConfirm() string {
	msg := fmt.Sprintf("Delete task %d? This cannot be undone.", m.deleteID)
	return boardPanelStyle.Render(errorStyle.Render(msg) + "\n\n" + helpStyle.Render("y delete · n cancel"))
}

func (m boardModel) renderHelp() string {
	switch m.mode {
	case modeSearch:
		return helpStyle.Render("type to search · enter done · esc done")
	case modeForm, modeConfirmDelete:
		return ""
	default:
		return helpStyle.Render("↑/↓ move · / search · s status · p priority · c clear · n new · e edit · d delete · t toggle status · r refresh · q quit")
	}
}

// selected returns the task under the cursor.
func (m boardModel) selected() (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Tasks) {
		return models.Task{}, false
	}
	return m.snap.Tasks[m.cursor], true
}

// clampCursor keeps the cursor inside the derived sequence after it
// changes size.
func (m *boardModel) clampCursor() {
	if m.cursor >= len(m.snap.Tasks) {
		m.cursor = len(m.snap.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// nextStatus cycles todo -> in_progress -> completed -> todo.
func nextStatus(s models.TaskStatus) models.TaskStatus {
	switch s {
	case models.StatusTodo:
		return models.StatusInProgress
	case models.StatusInProgress:
		return models.StatusCompleted
	default:
		return models.StatusTodo
	}
}

// userMessage maps an error to the text shown in the board footer.
func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrNotLoggedIn), remote.IsUnauthorized(err):
		return "session expired, please log in again"
	default:
		return err.Error()
	}
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive task board",
	Long: `Open the interactive board: browse the derived task list, search
and filter live, create and edit tasks, and delete with confirmation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		p := tea.NewProgram(newBoardModel(), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running board: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
