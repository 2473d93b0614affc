package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"satdmap/internal/config"
	"satdmap/internal/export"
	"satdmap/internal/logging"
	"satdmap/internal/project"
)

var (
	batchManifest string
	batchOut      string
	batchWorkers  int
	batchCompress bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze multiple projects from a manifest",
	Long: `Run the full pipeline for every project listed in a projects.toml
manifest, in parallel, writing per-project CSV exports under the output
directory.

Examples:
  satdmap batch --manifest=projects.toml --out=results
  satdmap batch --manifest=projects.toml --workers=8 --compress`,
	Run: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", project.ManifestFile, "Path to the batch manifest")
	batchCmd.Flags().StringVar(&batchOut, "out", "results", "Output directory (one subdirectory per project)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "Number of projects analyzed in parallel")
	batchCmd.Flags().BoolVar(&batchCompress, "compress", false, "Write gzip-compressed CSV files")
	rootCmd.AddCommand(batchCmd)
}

// batchOutcome is the result of analyzing one manifest entry.
type batchOutcome struct {
	name string
	err  error
}

func runBatch(cmd *cobra.Command, args []string) {
	manifest, err := project.LoadManifest(batchManifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	workers := batchWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(manifest.Projects) {
		workers = len(manifest.Projects)
	}

	jobs := make(chan project.Entry)
	outcomes := make(chan batchOutcome, len(manifest.Projects))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				outcomes <- batchOutcome{name: entry.Name, err: analyzeEntry(entry)}
			}
		}()
	}

	for _, entry := range manifest.Projects {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	failed := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", outcome.name, outcome.err)
			continue
		}
		fmt.Printf("%s: ok\n", outcome.name)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d projects failed\n", failed, len(manifest.Projects))
		os.Exit(1)
	}
}

// analyzeEntry runs the pipeline for one manifest entry and exports its
// results to <out>/<name>/.
func analyzeEntry(entry project.Entry) error {
	cfg, err := config.LoadConfig(entry.Path)
	if err != nil {
		return err
	}
	if entry.Backend != "" {
		cfg.Extract.Backend = entry.Backend
	}
	if entry.ScipIndexPath != "" {
		cfg.Extract.ScipIndexPath = entry.ScipIndexPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.WarnLevel,
	})

	corpus, result, err := runAnalysis(entry.Path, cfg, logger)
	if err != nil {
		return err
	}

	exporter := export.New(export.Options{
		Dir:      filepath.Join(batchOut, entry.Name),
		Compress: batchCompress,
	}, logger)
	_, err = exporter.Export(corpus, result)
	return err
}
