package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent decision records",
	RunE:  runAudit,
}

var auditLimit int

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Number of records to show")
}

func runAudit(cmd *cobra.Command, args []string) error {
	var entries []models.PDREntry
	if err := apiGet(fmt.Sprintf("/audit?limit=%d", auditLimit), &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No records found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tTASK\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", formatTime(&e.Timestamp), e.Action, e.Outcome, truncateID(e.TaskID), truncate(e.Details, 50))
	}
	return w.Flush()
}
