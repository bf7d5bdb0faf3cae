// Package tui provides the terminal operations dashboard for cleanops.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/cleanops/internal/models"
	"github.com/fentz26/cleanops/internal/stats"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#0EA5E9")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	onlineStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(errorColor)
)

const (
	modeOverview = "overview"
	modeTasks    = "tasks"
)

// DefaultRefresh is how often the dashboard polls the daemon.
const DefaultRefresh = 5 * time.Second

// App is the dashboard model.
type App struct {
	client  *Client
	refresh time.Duration

	mode    string
	width   int
	height  int
	online  bool
	message string

	stats     *stats.Stats
	overview  *overviewModel
	taskList  *taskListModel
	deptNames map[string]string
}

// New creates a dashboard polling the daemon at apiAddr.
func New(apiAddr string) *App {
	return &App{
		client:    NewClient(apiAddr),
		refresh:   DefaultRefresh,
		mode:      modeOverview,
		overview:  newOverviewModel(),
		taskList:  newTaskListModel(),
		deptNames: map[string]string{},
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchAll(), a.tickCmd())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			if a.mode == modeOverview {
				a.mode = modeTasks
			} else {
				a.mode = modeOverview
			}
			return a, nil
		case "r":
			return a, a.fetchAll()
		case "f":
			if a.mode == modeTasks {
				a.taskList.cycleFilter()
				return a, a.fetchTasks()
			}
		case "s":
			if a.mode == modeTasks {
				return a, a.advanceSelected(models.TaskStatusInProgress)
			}
		case "c":
			if a.mode == modeTasks {
				return a, a.advanceSelected(models.TaskStatusCompleted)
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.overview.setSize(msg.Width, msg.Height)
		a.taskList.setSize(msg.Width, msg.Height)
		return a, nil

	case statsLoadedMsg:
		a.online = true
		a.stats = msg.stats
		a.overview.setStats(msg.stats)
		return a, nil

	case departmentsLoadedMsg:
		for _, d := range msg.departments {
			a.deptNames[d.ID] = d.Name
		}
		a.taskList.setDepartmentNames(a.deptNames)
		return a, nil

	case tasksLoadedMsg:
		a.taskList.setTasks(msg.tasks)
		return a, nil

	case advancedMsg:
		a.message = fmt.Sprintf("task %s is now %s", shortID(msg.taskID), msg.status)
		return a, a.fetchAll()

	case tickMsg:
		return a, tea.Batch(a.fetchAll(), a.tickCmd())

	case errMsg:
		a.online = a.client.Ping()
		a.message = "Error: " + msg.err.Error()
		return a, nil
	}

	if a.mode == modeTasks {
		return a, a.taskList.update(msg)
	}
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemon := onlineStyle.Render("● DAEMON")
	if !a.online {
		daemon = offlineStyle.Render("○ DAEMON")
	}
	header := titleStyle.Render("CleanOps Dashboard") + "  " + daemon
	if a.stats != nil {
		header += "  " + helpStyle.Render("updated "+a.stats.GeneratedAt.Local().Format("15:04:05"))
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	switch a.mode {
	case modeOverview:
		b.WriteString(a.overview.view())
	case modeTasks:
		b.WriteString(a.taskList.view())
	}

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case modeOverview:
		status = " Tab:tasks | r:refresh | q:quit"
	case modeTasks:
		status = fmt.Sprintf(" Tasks: %d [%s] | ↑↓:nav | s:start | c:complete | f:filter | Tab:overview | q:quit",
			len(a.taskList.tasks), a.taskList.filterLabel())
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))
	return b.String()
}

// --- Commands ---

func (a *App) fetchAll() tea.Cmd {
	return tea.Batch(a.fetchStats(), a.fetchDepartments(), a.fetchTasks())
}

func (a *App) fetchStats() tea.Cmd {
	return func() tea.Msg {
		s, err := a.client.Stats()
		if err != nil {
			return errMsg{err}
		}
		return statsLoadedMsg{s}
	}
}

func (a *App) fetchDepartments() tea.Cmd {
	return func() tea.Msg {
		depts, err := a.client.ListDepartments()
		if err != nil {
			return errMsg{err}
		}
		return departmentsLoadedMsg{depts}
	}
}

func (a *App) fetchTasks() tea.Cmd {
	filter := a.taskList.filter()
	return func() tea.Msg {
		tasks, err := a.client.ListTasks(filter)
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (a *App) advanceSelected(status models.TaskStatus) tea.Cmd {
	task := a.taskList.selected()
	if task == nil {
		return nil
	}
	id := task.ID
	return func() tea.Msg {
		if err := a.client.AdvanceTask(id, status); err != nil {
			return errMsg{err}
		}
		return advancedMsg{taskID: id, status: status}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// --- Messages ---

type statsLoadedMsg struct{ stats *stats.Stats }

type departmentsLoadedMsg struct{ departments []models.Department }

type tasksLoadedMsg struct{ tasks []models.CleaningTask }

type advancedMsg struct {
	taskID string
	status models.TaskStatus
}

type tickMsg time.Time

type errMsg struct{ err error }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
