package tui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/cleanops/internal/models"
)

var filters = []string{"", "pending", "in_progress", "completed", "superseded"}
var filterLabels = []string{"all", "pending", "in progress", "completed", "superseded"}

// taskListModel is the navigable task table.
type taskListModel struct {
	table       table.Model
	tasks       []models.CleaningTask
	deptNames   map[string]string
	filterIndex int
}

func newTaskListModel() *taskListModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Task", Width: 10},
			{Title: "Department", Width: 22},
			{Title: "Employee", Width: 10},
			{Title: "Status", Width: 12},
			{Title: "Assigned", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Selected = styles.Selected.Foreground(fgColor).Background(primaryColor).Bold(true)
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(mutedColor)
	t.SetStyles(styles)

	return &taskListModel{table: t, deptNames: map[string]string{}}
}

func (m *taskListModel) setSize(_, h int) {
	m.table.SetHeight(max(5, h-8))
}

func (m *taskListModel) filter() string { return filters[m.filterIndex] }

func (m *taskListModel) filterLabel() string { return filterLabels[m.filterIndex] }

func (m *taskListModel) cycleFilter() {
	m.filterIndex = (m.filterIndex + 1) % len(filters)
}

func (m *taskListModel) setDepartmentNames(names map[string]string) {
	m.deptNames = names
	m.setTasks(m.tasks)
}

func (m *taskListModel) setTasks(tasks []models.CleaningTask) {
	m.tasks = tasks
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		dept := m.deptNames[t.DepartmentID]
		if dept == "" {
			dept = shortID(t.DepartmentID)
		}
		rows = append(rows, table.Row{
			shortID(t.ID),
			dept,
			shortID(t.EmployeeID),
			string(t.Status),
			t.AssignedAt.Local().Format("01-02 15:04"),
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// selected returns the task under the cursor.
func (m *taskListModel) selected() *models.CleaningTask {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.tasks) {
		return nil
	}
	task := m.tasks[c]
	return &task
}

func (m *taskListModel) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *taskListModel) view() string {
	if len(m.tasks) == 0 {
		return "\n  No tasks. Assign a department with: cleanops assign <department> --employee <id>\n"
	}
	return m.table.View()
}
