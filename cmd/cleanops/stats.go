package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fentz26/cleanops/internal/stats"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show operational stats and alerts",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	var s stats.Stats
	if err := apiGet("/stats", &s); err != nil {
		return err
	}

	fmt.Printf("Pending:          %d\n", s.Pending)
	fmt.Printf("In progress:      %d\n", s.InProgress)
	fmt.Printf("Completed today:  %d\n", s.CompletedToday)
	fmt.Printf("Unassigned:       %d\n", len(s.Unassigned))
	fmt.Printf("Totals:           %d departments, %d employees, %d tasks\n", s.Totals.Departments, s.Totals.Employees, s.Totals.Tasks)

	if len(s.Unassigned) > 0 {
		fmt.Println("\nUnassigned departments:")
		for _, d := range s.Unassigned {
			fmt.Printf("  %s  %s\n", truncateID(d.ID), d.Name)
		}
	}

	if len(s.Alerts) > 0 {
		fmt.Println("\nAlerts:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  SEVERITY\tRULE\tDEPARTMENT\tAGE")
		for _, a := range s.Alerts {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", a.Severity, a.Rule, a.Department, a.Age.Round(time.Minute))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(s.Workload) > 0 {
		fmt.Println("\nWorkload:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  EMPLOYEE\tACTIVE\tDONE TODAY")
		for _, wl := range s.Workload {
			fmt.Fprintf(w, "  %s\t%d\t%d\n", wl.Name, wl.Active, wl.CompletedToday)
		}
		return w.Flush()
	}
	return nil
}
