package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fentz26/cleanops/internal/controlplane"
	"github.com/fentz26/cleanops/internal/models"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage cleaning tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskAdvanceCmd = &cobra.Command{
	Use:   "advance [task-id]",
	Short: "Move a task to in_progress or completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdvance,
}

var (
	taskStatus     string
	taskEmployee   string
	taskDepartment string
)

func init() {
	taskCmd.AddCommand(taskListCmd, taskShowCmd, taskAdvanceCmd)

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, in_progress, completed, superseded)")
	taskListCmd.Flags().StringVar(&taskEmployee, "employee", "", "Filter by employee ID")
	taskListCmd.Flags().StringVar(&taskDepartment, "department", "", "Filter by department ID")

	taskAdvanceCmd.Flags().StringVar(&taskStatus, "status", "", "Target status (required)")
	taskAdvanceCmd.Flags().StringVar(&taskEmployee, "employee", "", "Acting employee; must own the task")
	taskAdvanceCmd.MarkFlagRequired("status")
}

func runTaskList(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if taskStatus != "" {
		q.Set("status", taskStatus)
	}
	if taskEmployee != "" {
		q.Set("employee_id", taskEmployee)
	}
	if taskDepartment != "" {
		q.Set("department_id", taskDepartment)
	}
	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var tasks []models.CleaningTask
	if err := apiGet(path, &tasks); err != nil {
		return err
	}
	return printTasks(tasks)
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	var t models.CleaningTask
	if err := apiGet("/tasks/"+url.PathEscape(args[0]), &t); err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", t.ID)
	fmt.Printf("Department:  %s\n", t.DepartmentID)
	fmt.Printf("Employee:    %s\n", t.EmployeeID)
	fmt.Printf("Status:      %s\n", t.Status)
	fmt.Printf("Assigned:    %s\n", formatTime(&t.AssignedAt))
	fmt.Printf("Started:     %s\n", formatTime(t.StartedAt))
	fmt.Printf("Completed:   %s\n", formatTime(t.CompletedAt))
	if t.SupersededAt != nil {
		fmt.Printf("Superseded:  %s by %s\n", formatTime(t.SupersededAt), t.SupersededBy)
	}
	return nil
}

func runTaskAdvance(cmd *cobra.Command, args []string) error {
	body := map[string]string{"status": taskStatus, "employee_id": taskEmployee}
	var res controlplane.AdvanceResponse
	if err := apiPost("/tasks/"+url.PathEscape(args[0])+"/status", body, &res); err != nil {
		return err
	}
	fmt.Printf("Task %s: %s -> %s\n", truncateID(res.Task.ID), res.From, res.Task.Status)
	return nil
}

func printTasks(tasks []models.CleaningTask) error {
	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEPARTMENT\tEMPLOYEE\tSTATUS\tASSIGNED")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", truncateID(t.ID), truncateID(t.DepartmentID), truncateID(t.EmployeeID), t.Status, formatTime(&t.AssignedAt))
	}
	return w.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
