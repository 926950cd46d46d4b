package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/crm-dashboard/cmd/crmdash/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "crmdash",
		Short: "One-shot tools for the CRM dashboard",
		Long:  "Build a dashboard snapshot from the CRM export or inspect the configured directory",
	}

	rootCmd.AddCommand(commands.NewSnapshotCmd())
	rootCmd.AddCommand(commands.NewDirectoryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
