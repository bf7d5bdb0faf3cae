package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cleanops",
	Short: "CleanOps - cleaning operations control plane",
	Long: `CleanOps assigns departments to cleaning staff, tracks each cleaning task
from pending to completed, and reports live operational stats.`,
	SilenceUsage: true,
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7466", "API server address")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(departmentCmd)
	rootCmd.AddCommand(employeeCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
