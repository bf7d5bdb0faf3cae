package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/fentz26/cleanops/internal/assignment"
	"github.com/fentz26/cleanops/internal/controlplane"
	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:   "assign [department-id...]",
	Short: "Assign one or more departments to an employee",
	Long: `Assigns departments to an employee. A single department is assigned
directly; several are sent as one batch where each department succeeds or
fails on its own.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssign,
}

var assignEmployee string

func init() {
	assignCmd.Flags().StringVar(&assignEmployee, "employee", "", "Employee ID (required)")
	assignCmd.MarkFlagRequired("employee")
}

func runAssign(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		var res controlplane.AssignResponse
		if err := apiPost("/departments/"+url.PathEscape(args[0])+"/assign", map[string]string{"employee_id": assignEmployee}, &res); err != nil {
			return err
		}
		fmt.Printf("%s: task %s\n", res.Kind, res.Task.ID)
		if res.Previous != nil {
			fmt.Printf("superseded task %s (was %s)\n", res.Previous.ID, res.Previous.EmployeeID)
		}
		return nil
	}

	var res assignment.BatchResult
	body := map[string]interface{}{"employee_id": assignEmployee, "department_ids": args}
	if err := apiPost("/assignments/batch", body, &res); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPARTMENT\tRESULT\tDETAIL")
	for _, s := range res.Succeeded {
		fmt.Fprintf(w, "%s\t%s\t%s\n", truncateID(s.DepartmentID), s.Kind, truncateID(s.Task.ID))
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "%s\t%s\t%s\n", truncateID(f.DepartmentID), f.Kind, truncate(f.Reason, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d assigned, %d failed\n", len(res.Succeeded), len(res.Failed))
	return nil
}
