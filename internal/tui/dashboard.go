package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/cleanops/internal/stats"
)

var (
	countStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Align(lipgloss.Center)

	criticalStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(warningColor)
)

// overviewModel renders the aggregate counts, the alert table, the
// unassigned backlog and per-employee workload.
type overviewModel struct {
	stats  *stats.Stats
	alerts table.Model
	width  int
	height int
}

func newOverviewModel() *overviewModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Severity", Width: 9},
			{Title: "Rule", Width: 20},
			{Title: "Department", Width: 20},
			{Title: "Employee", Width: 10},
			{Title: "Age", Width: 8},
		}),
		table.WithHeight(8),
	)
	return &overviewModel{alerts: t}
}

func (m *overviewModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.alerts.SetHeight(max(4, h/3))
}

func (m *overviewModel) setStats(s *stats.Stats) {
	m.stats = s
	rows := make([]table.Row, 0, len(s.Alerts))
	for _, a := range s.Alerts {
		dept := a.Department
		if dept == "" {
			dept = shortID(a.DepartmentID)
		}
		rows = append(rows, table.Row{a.Severity, a.Rule, dept, shortID(a.EmployeeID), formatAge(a.Age)})
	}
	m.alerts.SetRows(rows)
}

func (m *overviewModel) view() string {
	if m.stats == nil {
		return "\n  Loading stats...\n"
	}
	s := m.stats
	var b strings.Builder

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		countStyle.BorderForeground(warningColor).Render(fmt.Sprintf("PENDING\n%d", s.Pending)),
		countStyle.BorderForeground(primaryColor).Render(fmt.Sprintf("IN PROGRESS\n%d", s.InProgress)),
		countStyle.BorderForeground(successColor).Render(fmt.Sprintf("DONE TODAY\n%d", s.CompletedToday)),
		countStyle.BorderForeground(mutedColor).Render(fmt.Sprintf("UNASSIGNED\n%d", len(s.Unassigned))),
	)
	b.WriteString(cards + "\n")

	critical := 0
	for _, a := range s.Alerts {
		if a.Severity == stats.SeverityCritical {
			critical++
		}
	}
	alertTitle := fmt.Sprintf("Alerts (%d)", len(s.Alerts))
	if critical > 0 {
		alertTitle += "  " + criticalStyle.Render(fmt.Sprintf("%d critical", critical))
	} else if len(s.Alerts) > 0 {
		alertTitle += "  " + warnStyle.Render("warnings only")
	}
	b.WriteString(titleStyle.Render(alertTitle) + "\n")
	if len(s.Alerts) == 0 {
		b.WriteString(helpStyle.Render("  nothing needs attention") + "\n")
	} else {
		b.WriteString(m.alerts.View() + "\n")
	}

	var backlog []string
	for _, d := range s.Unassigned {
		backlog = append(backlog, "• "+d.Name)
	}
	if len(backlog) == 0 {
		backlog = []string{helpStyle.Render("all departments assigned")}
	}

	var load []string
	for _, w := range s.Workload {
		load = append(load, fmt.Sprintf("%-14s active %d  done %d", w.Name, w.Active, w.CompletedToday))
	}
	if len(load) == 0 {
		load = []string{helpStyle.Render("no employees")}
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render("Unassigned\n"+strings.Join(backlog, "\n")),
		panelStyle.Render("Workload\n"+strings.Join(load, "\n")),
	))
	return b.String()
}

func formatAge(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
