package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"satdmap/internal/config"
	"satdmap/internal/detect"
	"satdmap/internal/engine"
	"satdmap/internal/logging"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
	"satdmap/internal/storage"
)

var (
	analyzeFormat   string
	analyzeEdges    string
	analyzeNoStore  bool
	analyzeMaxHops  int
	analyzeMaxPaths int
	analyzeBackend  string
	analyzeSeed     int64
	analyzeScip     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline",
	Long: `Detect SATD instances, extract and merge dependency relationships,
assemble propagation chains, and score every instance. The run is recorded
in the project database unless storage is disabled.

Relationship edges normally come from the configured extraction backend;
--edges loads them from a JSON file instead.

Examples:
  satdmap analyze
  satdmap analyze --root=/src/gateway --format=json
  satdmap analyze --edges=edges.json
  satdmap analyze --no-store`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "human", "Output format (json, human)")
	analyzeCmd.Flags().StringVar(&analyzeEdges, "edges", "", "JSON file of raw edges to use instead of the extraction backend")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "Skip recording the run in the database")
	analyzeCmd.Flags().IntVar(&analyzeMaxHops, "max-hops", 0, "Override the configured chain hop limit")
	analyzeCmd.Flags().IntVar(&analyzeMaxPaths, "max-paths", 0, "Override the configured path enumeration budget")
	analyzeCmd.Flags().StringVar(&analyzeBackend, "backend", "", "Override the extraction backend (scip, synthetic)")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "Override the synthetic backend seed")
	analyzeCmd.Flags().StringVar(&analyzeScip, "scip", "", "Override the SCIP index path")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := mustLoadConfig(rootFlag)
	applyAnalyzeOverrides(cmd, cfg)
	logger := newLogger(cfg, analyzeFormat == "json")

	corpus, result, err := analyzeProject(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.Enabled && !analyzeNoStore {
		dbPath := cfg.Storage.Path
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(rootFlag, dbPath)
		}
		db, err := storage.Open(dbPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		runID, err := db.SaveRun(rootFlag, corpus, result, start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving run: %v\n", err)
			os.Exit(1)
		}
		logger.Info("run recorded", map[string]interface{}{"runId": runID})
	}

	if analyzeFormat == "json" {
		printJSON(result)
		return
	}

	fmt.Printf("Instances:      %d\n", corpus.Len())
	fmt.Printf("Relationships:  %d\n", len(result.Relationships))
	fmt.Printf("Chains:         %d (max length %d)\n", result.Metrics.ChainCount, result.Metrics.MaximumChainLength)
	fmt.Printf("Participation:  %.1f%%\n", result.Metrics.ParticipationRate*100)
	if result.Truncated {
		fmt.Println("Note: chain enumeration hit the path budget; results are partial")
	}
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	fmt.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
}

// applyAnalyzeOverrides folds command-line overrides into the loaded config
// and re-validates it, so flags and config file cannot drift apart.
func applyAnalyzeOverrides(cmd *cobra.Command, cfg *config.Config) {
	if analyzeMaxHops > 0 {
		cfg.Chains.MaxHops = analyzeMaxHops
	}
	if analyzeMaxPaths > 0 {
		cfg.Chains.MaxPaths = analyzeMaxPaths
	}
	if analyzeBackend != "" {
		cfg.Extract.Backend = analyzeBackend
	}
	if cmd.Flags().Changed("seed") {
		cfg.Extract.SyntheticSeed = analyzeSeed
	}
	if analyzeScip != "" {
		cfg.Extract.ScipIndexPath = analyzeScip
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
}

// analyzeProject runs the pipeline for the --root project, honoring the
// --edges override.
func analyzeProject(cfg *config.Config, logger *logging.Logger) (*satd.Corpus, *engine.Result, error) {
	if analyzeEdges == "" {
		return runAnalysis(rootFlag, cfg, logger)
	}

	detOpts, err := detectOptions(rootFlag, cfg)
	if err != nil {
		return nil, nil, err
	}
	corpus, err := detect.NewDetector(detOpts, logger).ScanDir(rootFlag)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(analyzeEdges)
	if err != nil {
		return nil, nil, fmt.Errorf("read edges file: %w", err)
	}
	var raw []relate.RawEdge
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse edges file: %w", err)
	}

	result, err := runAnalysisRaw(rootFlag, cfg, logger, corpus, raw)
	if err != nil {
		return nil, nil, err
	}
	return corpus, result, nil
}
