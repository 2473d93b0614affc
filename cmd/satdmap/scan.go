package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"satdmap/internal/detect"
)

var scanFormat string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Detect SATD instances in a source tree",
	Long: `Scan the project for self-admitted technical debt comments and report
each instance with its file, line, and classified debt type. No
relationship analysis is performed.

Examples:
  satdmap scan
  satdmap scan --root=/src/gateway --format=json`,
	Run: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(rootFlag)
	logger := newLogger(cfg, scanFormat == "json")

	detOpts, err := detectOptions(rootFlag, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ruleset: %v\n", err)
		os.Exit(1)
	}
	corpus, err := detect.NewDetector(detOpts, logger).ScanDir(rootFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning: %v\n", err)
		os.Exit(1)
	}

	if scanFormat == "json" {
		printJSON(corpus.Instances())
		return
	}

	for _, in := range corpus.Instances() {
		marker := "explicit"
		if !in.IsExplicit {
			marker = "implicit"
		}
		fmt.Printf("%s:%d  [%s/%s]  %s\n", in.File, in.Line, in.DebtType, marker, in.Content)
	}
	fmt.Printf("\n%d instances found\n", corpus.Len())
}
