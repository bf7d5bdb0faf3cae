package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/spf13/cobra"
)

var departmentCmd = &cobra.Command{
	Use:     "department",
	Aliases: []string{"dept"},
	Short:   "Manage departments",
}

var departmentAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a department",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepartmentAdd,
}

var departmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List departments",
	RunE:  runDepartmentList,
}

var departmentShowCmd = &cobra.Command{
	Use:   "show [department-id]",
	Short: "Show department details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepartmentShow,
}

var departmentHistoryCmd = &cobra.Command{
	Use:   "history [department-id]",
	Short: "Show every task assigned for a department",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepartmentHistory,
}

var departmentResetCmd = &cobra.Command{
	Use:   "reset [department-id]",
	Short: "Start a new cleaning cycle for a department",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepartmentReset,
}

var accessCode string

func init() {
	departmentCmd.AddCommand(departmentAddCmd, departmentListCmd, departmentShowCmd, departmentHistoryCmd, departmentResetCmd)
	departmentAddCmd.Flags().StringVar(&accessCode, "access-code", "", "Door or badge code for the department")
}

func runDepartmentAdd(cmd *cobra.Command, args []string) error {
	var dept models.Department
	if err := apiPost("/departments", map[string]string{"name": args[0], "access_code": accessCode}, &dept); err != nil {
		return err
	}
	fmt.Printf("Created department: %s\n", dept.ID)
	return nil
}

func runDepartmentList(cmd *cobra.Command, args []string) error {
	var depts []models.Department
	if err := apiGet("/departments", &depts); err != nil {
		return err
	}
	if len(depts) == 0 {
		fmt.Println("No departments found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tASSIGNED TO\tLAST CLEANED")
	for _, d := range depts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", truncateID(d.ID), truncate(d.Name, 30), d.Status, truncateID(d.AssignedTo), formatTime(d.LastCleanedAt))
	}
	return w.Flush()
}

func runDepartmentShow(cmd *cobra.Command, args []string) error {
	var d models.Department
	if err := apiGet("/departments/"+url.PathEscape(args[0]), &d); err != nil {
		return err
	}

	fmt.Printf("ID:           %s\n", d.ID)
	fmt.Printf("Name:         %s\n", d.Name)
	if d.AccessCode != "" {
		fmt.Printf("Access code:  %s\n", d.AccessCode)
	}
	fmt.Printf("Status:       %s\n", d.Status)
	if d.AssignedTo != "" {
		fmt.Printf("Assigned to:  %s\n", d.AssignedTo)
		fmt.Printf("Active task:  %s\n", d.ActiveTaskID)
	}
	fmt.Printf("Last cleaned: %s\n", formatTime(d.LastCleanedAt))
	return nil
}

func runDepartmentHistory(cmd *cobra.Command, args []string) error {
	var tasks []models.CleaningTask
	if err := apiGet("/departments/"+url.PathEscape(args[0])+"/tasks", &tasks); err != nil {
		return err
	}
	return printTasks(tasks)
}

func runDepartmentReset(cmd *cobra.Command, args []string) error {
	var d models.Department
	if err := apiPost("/departments/"+url.PathEscape(args[0])+"/reset", struct{}{}, &d); err != nil {
		return err
	}
	fmt.Printf("Department %s is pending again\n", d.Name)
	return nil
}
