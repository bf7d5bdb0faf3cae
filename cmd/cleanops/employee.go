package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/spf13/cobra"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage employees",
}

var employeeAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register an employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeeAdd,
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	RunE:  runEmployeeList,
}

var employeeTasksCmd = &cobra.Command{
	Use:   "tasks [employee-id]",
	Short: "List an employee's tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeeTasks,
}

var (
	employeeEmail  string
	employeeStatus string
)

func init() {
	employeeCmd.AddCommand(employeeAddCmd, employeeListCmd, employeeTasksCmd)

	employeeAddCmd.Flags().StringVar(&employeeEmail, "email", "", "Employee email (required)")
	employeeAddCmd.MarkFlagRequired("email")

	employeeTasksCmd.Flags().StringVar(&employeeStatus, "status", "", "Filter by status (pending, in_progress, completed, superseded)")
}

func runEmployeeAdd(cmd *cobra.Command, args []string) error {
	var emp models.Employee
	if err := apiPost("/employees", map[string]string{"name": args[0], "email": employeeEmail}, &emp); err != nil {
		return err
	}
	fmt.Printf("Created employee: %s\n", emp.ID)
	return nil
}

func runEmployeeList(cmd *cobra.Command, args []string) error {
	var emps []models.Employee
	if err := apiGet("/employees", &emps); err != nil {
		return err
	}
	if len(emps) == 0 {
		fmt.Println("No employees found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, e := range emps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, truncate(e.Name, 30), e.Email)
	}
	return w.Flush()
}

func runEmployeeTasks(cmd *cobra.Command, args []string) error {
	path := "/employees/" + url.PathEscape(args[0]) + "/tasks"
	if employeeStatus != "" {
		path += "?status=" + url.QueryEscape(employeeStatus)
	}
	var tasks []models.CleaningTask
	if err := apiGet(path, &tasks); err != nil {
		return err
	}
	return printTasks(tasks)
}
