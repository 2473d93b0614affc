package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"satdmap/internal/storage"
)

var runsFormat string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded analysis runs",
	Long: `List, inspect, and delete analysis runs recorded in the project
database.

Examples:
  satdmap runs list
  satdmap runs show 6f1c9a9e-...
  satdmap runs delete 6f1c9a9e-...`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Run:   runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <runId>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <runId>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsDelete,
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsFormat, "format", "human", "Output format (json, human)")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func openRunDB() *storage.DB {
	cfg := mustLoadConfig(rootFlag)
	logger := newLogger(cfg, runsFormat == "json")

	dbPath := cfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(rootFlag, dbPath)
	}
	db, err := storage.Open(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return db
}

func runRunsList(cmd *cobra.Command, args []string) {
	db := openRunDB()
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
		os.Exit(1)
	}

	if runsFormat == "json" {
		printJSON(runs)
		return
	}

	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  instances=%d chains=%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.InstanceCount, r.ChainCount)
	}
}

func runRunsShow(cmd *cobra.Command, args []string) {
	db := openRunDB()
	defer db.Close()

	run, err := db.GetRun(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading run: %v\n", err)
		os.Exit(1)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "Run %s not found\n", args[0])
		os.Exit(1)
	}

	if runsFormat == "json" {
		printJSON(run)
		return
	}

	fmt.Printf("Run:            %s\n", run.ID)
	fmt.Printf("Project:        %s\n", run.ProjectRoot)
	fmt.Printf("Started:        %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Printf("Finished:       %s\n", run.FinishedAt.Format(time.RFC3339))
	fmt.Printf("Instances:      %d\n", run.InstanceCount)
	fmt.Printf("Relationships:  %d\n", run.RelationshipCount)
	fmt.Printf("Chains:         %d\n", run.ChainCount)
	if run.Truncated {
		fmt.Println("Truncated:      yes")
	}
	for _, w := range run.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}

func runRunsDelete(cmd *cobra.Command, args []string) {
	db := openRunDB()
	defer db.Close()

	if err := db.DeleteRun(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting run: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted run %s\n", args[0])
}
