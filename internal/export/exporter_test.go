package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"satdmap/internal/engine"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
)

func fixture(t *testing.T) (*satd.Corpus, *engine.Result) {
	t.Helper()
	corpus := satd.NewCorpus()
	for _, id := range []string{"A", "B", "C"} {
		corpus.Add(&satd.Instance{
			ID: id, File: "svc/" + id + ".py", Line: 3,
			Content: "TODO: later", DebtType: satd.DebtTest, IsExplicit: true,
		})
	}
	raw := []relate.RawEdge{
		{SourceID: "A", TargetID: "B", Type: relate.DepCall},
		{SourceID: "B", TargetID: "C", Type: relate.DepModule},
	}
	return corpus, engine.New(engine.DefaultOptions(), nil).Run(corpus, raw)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestExportWritesAllFamilies(t *testing.T) {
	dir := t.TempDir()
	corpus, result := fixture(t)

	files, err := New(Options{Dir: dir}, nil).Export(corpus, result)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("Expected 5 files, got %d: %v", len(files), files)
	}

	instances := readCSV(t, filepath.Join(dir, "instances.csv"))
	if len(instances) != 4 {
		t.Errorf("instances.csv rows = %d, want header + 3", len(instances))
	}
	if instances[0][0] != "id" {
		t.Errorf("Unexpected header: %v", instances[0])
	}

	rels := readCSV(t, filepath.Join(dir, "relationships.csv"))
	if len(rels) != 3 {
		t.Errorf("relationships.csv rows = %d, want header + 2", len(rels))
	}
	if rels[1][3] != "0.8" {
		t.Errorf("Call weight column = %q, want 0.8", rels[1][3])
	}

	scores := readCSV(t, filepath.Join(dir, "scores.csv"))
	if len(scores) != 4 {
		t.Errorf("scores.csv rows = %d, want header + 3", len(scores))
	}

	metrics := readCSV(t, filepath.Join(dir, "chain_metrics.csv"))
	if len(metrics) != 2 {
		t.Errorf("chain_metrics.csv rows = %d, want header + 1", len(metrics))
	}
}

func TestExportCompressed(t *testing.T) {
	dir := t.TempDir()
	corpus, result := fixture(t)

	files, err := New(Options{Dir: dir, Compress: true}, nil).Export(corpus, result)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	for _, path := range files {
		if !strings.HasSuffix(path, ".csv.gz") {
			t.Errorf("Expected .csv.gz suffix, got %s", path)
		}
	}

	f, err := os.Open(filepath.Join(dir, "chains.csv.gz"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	records, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		t.Fatalf("read compressed csv: %v", err)
	}
	if len(records) < 2 {
		t.Errorf("Expected chains in compressed export, got %d rows", len(records))
	}
	if records[0][0] != "id" {
		t.Errorf("Unexpected header: %v", records[0])
	}
}

func TestExportDeterministic(t *testing.T) {
	corpus, result := fixture(t)

	dirA, dirB := t.TempDir(), t.TempDir()
	if _, err := New(Options{Dir: dirA}, nil).Export(corpus, result); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if _, err := New(Options{Dir: dirB}, nil).Export(corpus, result); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	for _, name := range []string{"instances.csv", "relationships.csv", "chains.csv", "scores.csv", "chain_metrics.csv"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, name))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(a) != string(b) {
			t.Errorf("%s differs between identical exports", name)
		}
	}
}
