package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"satdmap/internal/chain"
	"satdmap/internal/config"
	"satdmap/internal/detect"
	"satdmap/internal/engine"
	"satdmap/internal/extract"
	"satdmap/internal/logging"
	"satdmap/internal/modules"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
	"satdmap/internal/sir"
	"satdmap/internal/storage"
)

// mustLoadConfig loads the project config or exits.
func mustLoadConfig(projectRoot string) *config.Config {
	cfg, err := config.LoadConfig(projectRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds a logger from config, with JSON output forced when the
// command itself emits JSON so log lines stay machine-separable.
func newLogger(cfg *config.Config, jsonOutput bool) *logging.Logger {
	format := cfg.Logging.Format
	if jsonOutput {
		format = "json"
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	})
}

// detectOptions maps config to detector options, loading a custom ruleset
// when one is configured.
func detectOptions(projectRoot string, cfg *config.Config) (detect.Options, error) {
	opts := detect.Options{
		Extensions:       cfg.Detect.Extensions,
		Ignore:           cfg.Detect.Ignore,
		MaxFileSizeBytes: cfg.Detect.MaxFileSizeBytes,
		ImplicitMarkers:  cfg.Detect.ImplicitMarkers,
	}
	if cfg.Detect.RulesetPath != "" {
		rs, err := detect.LoadRuleset(filepath.Join(projectRoot, cfg.Detect.RulesetPath))
		if err != nil {
			return opts, err
		}
		opts.Ruleset = rs
	}
	return opts, nil
}

// buildExtractor picks the extraction backend from config.
func buildExtractor(projectRoot string, cfg *config.Config, logger *logging.Logger) extract.Extractor {
	if cfg.Extract.Backend == "synthetic" {
		return extract.NewSyntheticExtractor(cfg.Extract.SyntheticSeed, logger)
	}
	indexPath := cfg.Extract.ScipIndexPath
	if !filepath.IsAbs(indexPath) {
		indexPath = filepath.Join(projectRoot, indexPath)
	}
	return extract.NewSCIPExtractor(indexPath, logger)
}

// engineOptions maps config to engine options. The module mapper feeds the
// cross-module chain metric.
func engineOptions(cfg *config.Config, corpus *satd.Corpus, mapper *modules.Mapper) engine.Options {
	opts := engine.Options{
		Chain: chain.Options{
			MaxHops:  cfg.Chains.MaxHops,
			MaxPaths: cfg.Chains.MaxPaths,
		},
		Sir: sir.Options{
			Weights: sir.Weights{
				Severity:    cfg.Scoring.SeverityWeight,
				Outgoing:    cfg.Scoring.OutgoingWeight,
				Incoming:    cfg.Scoring.IncomingWeight,
				ChainLength: cfg.Scoring.ChainLengthWeight,
			},
			Thresholds: sir.Thresholds{
				Top: cfg.Scoring.TopThreshold,
				Mid: cfg.Scoring.MidThreshold,
			},
			NormalizeCeiling: cfg.Scoring.NormalizeCeiling,
		},
	}
	if mapper != nil {
		opts.Chain.ModuleOf = func(id string) string {
			if in := corpus.Get(id); in != nil {
				return mapper.ModuleOf(in.File)
			}
			return ""
		}
	}
	return opts
}

// runAnalysis executes the full pipeline for one project root.
func runAnalysis(projectRoot string, cfg *config.Config, logger *logging.Logger) (*satd.Corpus, *engine.Result, error) {
	detOpts, err := detectOptions(projectRoot, cfg)
	if err != nil {
		return nil, nil, err
	}
	corpus, err := detect.NewDetector(detOpts, logger).ScanDir(projectRoot)
	if err != nil {
		return nil, nil, err
	}

	raw, err := buildExtractor(projectRoot, cfg, logger).Extract(corpus)
	if err != nil {
		return nil, nil, err
	}

	mapper, err := modules.LoadMapper(projectRoot)
	if err != nil {
		return nil, nil, err
	}

	result := engine.New(engineOptions(cfg, corpus, mapper), logger).Run(corpus, raw)
	return corpus, result, nil
}

// runAnalysisRaw is runAnalysis with pre-supplied edges, used when edges
// come from a file instead of an extractor.
func runAnalysisRaw(projectRoot string, cfg *config.Config, logger *logging.Logger, corpus *satd.Corpus, raw []relate.RawEdge) (*engine.Result, error) {
	mapper, err := modules.LoadMapper(projectRoot)
	if err != nil {
		return nil, err
	}
	return engine.New(engineOptions(cfg, corpus, mapper), logger).Run(corpus, raw), nil
}

// loadRun reconstructs a stored run from the project database, so chains,
// rank, and export can re-read past results without re-analyzing.
func loadRun(cfg *config.Config, logger *logging.Logger, runID string) (*satd.Corpus, *engine.Result, error) {
	dbPath := cfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(rootFlag, dbPath)
	}
	db, err := storage.Open(dbPath, logger)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	run, err := db.GetRun(runID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, fmt.Errorf("run %s not found", runID)
	}

	corpus, err := db.LoadInstances(runID)
	if err != nil {
		return nil, nil, err
	}
	rels, err := db.LoadRelationships(runID)
	if err != nil {
		return nil, nil, err
	}
	chains, err := db.LoadChains(runID)
	if err != nil {
		return nil, nil, err
	}
	scores, err := db.LoadScores(runID)
	if err != nil {
		return nil, nil, err
	}

	mapper, err := modules.LoadMapper(rootFlag)
	if err != nil {
		return nil, nil, err
	}
	moduleOf := func(id string) string {
		if in := corpus.Get(id); in != nil {
			return mapper.ModuleOf(in.File)
		}
		return ""
	}

	result := &engine.Result{
		Relationships: rels,
		Chains:        chains,
		Metrics:       chain.ComputeMetrics(chains, corpus, moduleOf),
		Scores:        scores,
		Warnings:      run.Warnings,
		Truncated:     run.Truncated,
	}
	return corpus, result, nil
}

// corpusAndResult dispatches between a fresh analysis and a stored run.
func corpusAndResult(cfg *config.Config, logger *logging.Logger, runID string) (*satd.Corpus, *engine.Result, error) {
	if runID != "" {
		return loadRun(cfg, logger, runID)
	}
	return runAnalysis(rootFlag, cfg, logger)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
