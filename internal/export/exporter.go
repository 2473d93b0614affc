// Package export writes analysis results to CSV files, one family per
// artifact (instances, relationships, chains, scores, metrics). Files can
// optionally be gzip-compressed.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"satdmap/internal/engine"
	"satdmap/internal/logging"
	"satdmap/internal/output"
	"satdmap/internal/satd"
)

// Options configures an export.
type Options struct {
	// Dir is the output directory, created if missing.
	Dir string

	// Compress writes .csv.gz instead of .csv.
	Compress bool
}

// Exporter writes result CSV files.
type Exporter struct {
	opts   Options
	logger *logging.Logger
}

// New returns an exporter writing into opts.Dir.
func New(opts Options, logger *logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{opts: opts, logger: logger}
}

// Export writes all result families. Returns the list of files written.
func (e *Exporter) Export(corpus *satd.Corpus, result *engine.Result) ([]string, error) {
	if err := os.MkdirAll(e.opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	files := []struct {
		name  string
		write func(*csv.Writer, *satd.Corpus, *engine.Result) error
	}{
		{"instances.csv", writeInstances},
		{"relationships.csv", writeRelationships},
		{"chains.csv", writeChains},
		{"scores.csv", writeScores},
		{"chain_metrics.csv", writeMetrics},
	}

	var written []string
	for _, f := range files {
		path, err := e.writeFile(f.name, func(w *csv.Writer) error {
			return f.write(w, corpus, result)
		})
		if err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	e.logger.Info("export complete", map[string]interface{}{
		"dir":   e.opts.Dir,
		"files": len(written),
	})
	return written, nil
}

func (e *Exporter) writeFile(name string, write func(*csv.Writer) error) (string, error) {
	path := filepath.Join(e.opts.Dir, name)
	if e.opts.Compress {
		path += ".gz"
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	var out io.Writer = f
	var gz *gzip.Writer
	if e.opts.Compress {
		gz = gzip.NewWriter(f)
		out = gz
	}

	w := csv.NewWriter(out)
	if err := write(w); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("close gzip %s: %w", path, err)
		}
	}
	return path, nil
}

func writeInstances(w *csv.Writer, corpus *satd.Corpus, _ *engine.Result) error {
	if err := w.Write([]string{"id", "file", "line", "module", "debt_type", "explicit", "implicit", "content"}); err != nil {
		return err
	}
	for _, in := range corpus.Instances() {
		if err := w.Write([]string{
			in.ID, in.File, strconv.Itoa(in.Line), in.Module(), string(in.DebtType),
			strconv.FormatBool(in.IsExplicit), strconv.FormatBool(in.IsImplicit), in.Content,
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeRelationships(w *csv.Writer, _ *satd.Corpus, result *engine.Result) error {
	if err := w.Write([]string{"source_id", "target_id", "types", "weight", "in_chain", "chain_ids"}); err != nil {
		return err
	}
	for _, rel := range result.Relationships {
		if err := w.Write([]string{
			rel.SourceID, rel.TargetID, rel.TypesString(), output.FormatFloat(rel.Weight),
			strconv.FormatBool(rel.InChain), strings.Join(rel.ChainIDs, "|"),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeChains(w *csv.Writer, _ *satd.Corpus, result *engine.Result) error {
	if err := w.Write([]string{"id", "length", "nodes"}); err != nil {
		return err
	}
	for _, c := range result.Chains {
		if err := w.Write([]string{c.ID, strconv.Itoa(c.Length), strings.Join(c.Nodes, "|")}); err != nil {
			return err
		}
	}
	return nil
}

func writeScores(w *csv.Writer, _ *satd.Corpus, result *engine.Result) error {
	if err := w.Write([]string{
		"instance_id", "severity", "out_dependencies", "in_dependencies",
		"chain_length_factor", "score", "normalized_score", "tier",
	}); err != nil {
		return err
	}
	for _, s := range result.Scores {
		if err := w.Write([]string{
			s.InstanceID, output.FormatFloat(s.Severity),
			strconv.Itoa(s.OutgoingInfluence), strconv.Itoa(s.IncomingDependency),
			output.FormatFloat(s.ChainLengthFactor), output.FormatFloat(s.Score),
			output.FormatFloat(s.NormalizedScore), string(s.Tier),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(w *csv.Writer, _ *satd.Corpus, result *engine.Result) error {
	if err := w.Write([]string{
		"chain_count", "average_chain_length", "maximum_chain_length",
		"participation_rate", "cross_module_rate", "truncated",
	}); err != nil {
		return err
	}
	m := result.Metrics
	return w.Write([]string{
		strconv.Itoa(m.ChainCount), output.FormatFloat(m.AverageChainLength),
		strconv.Itoa(m.MaximumChainLength), output.FormatFloat(m.ParticipationRate),
		output.FormatFloat(m.CrossModuleRate), strconv.FormatBool(result.Truncated),
	})
}
