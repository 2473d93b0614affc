package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"satdmap/internal/export"
)

var (
	exportOut      string
	exportCompress bool
	exportRun      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analysis results to CSV",
	Long: `Run the analysis pipeline and write the results as CSV files: instances,
relationships, chains, scores, and chain metrics.

Examples:
  satdmap export --out=results
  satdmap export --out=results --compress
  satdmap export --run=6f1c9a9e-... --out=results`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "results", "Output directory")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "Write gzip-compressed CSV files")
	exportCmd.Flags().StringVar(&exportRun, "run", "", "Export a stored run instead of re-analyzing")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(rootFlag)
	logger := newLogger(cfg, false)

	corpus, result, err := corpusAndResult(cfg, logger, exportRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing: %v\n", err)
		os.Exit(1)
	}

	exporter := export.New(export.Options{Dir: exportOut, Compress: exportCompress}, logger)
	files, err := exporter.Export(corpus, result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
		os.Exit(1)
	}

	for _, f := range files {
		fmt.Println(f)
	}
}
