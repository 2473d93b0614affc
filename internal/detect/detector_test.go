package detect

import (
	"os"
	"path/filepath"
	"testing"

	"satdmap/internal/satd"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestScanFileFindsExplicitMarkers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", `package main

// TODO: optimize this inefficient loop
func main() {
	// just a note
	setup()
	load()
	prepare()
	connect()
	run() // FIXME: wrong return value
}
`)

	d := NewDetector(DefaultOptions(), nil)
	items, err := d.ScanFile(filepath.Join(root, "main.go"), "main.go")
	if err != nil {
		t.Fatalf("ScanFile failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 instances, got %d", len(items))
	}

	first := items[0]
	if first.Line != 3 {
		t.Errorf("Line = %d, want 3", first.Line)
	}
	if !first.IsExplicit || first.IsImplicit {
		t.Errorf("Expected explicit-only, got explicit=%v implicit=%v", first.IsExplicit, first.IsImplicit)
	}
	if first.DebtType != satd.DebtImplementation {
		t.Errorf("DebtType = %s, want %s", first.DebtType, satd.DebtImplementation)
	}
	if first.File != "main.go" {
		t.Errorf("File = %q, want %q", first.File, "main.go")
	}

	if items[1].DebtType != satd.DebtDefect {
		t.Errorf("DebtType = %s, want %s", items[1].DebtType, satd.DebtDefect)
	}
}

func TestScanFileImplicitPhrases(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", `def helper():
    # this is a workaround for the broken upstream parser
    pass
`)

	d := NewDetector(DefaultOptions(), nil)
	items, err := d.ScanFile(filepath.Join(root, "util.py"), "util.py")
	if err != nil {
		t.Fatalf("ScanFile failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 instance, got %d", len(items))
	}
	if items[0].IsExplicit || !items[0].IsImplicit {
		t.Errorf("Expected implicit-only, got explicit=%v implicit=%v", items[0].IsExplicit, items[0].IsImplicit)
	}
}

func TestImplicitDisabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", "# this is a workaround for now\n")

	opts := DefaultOptions()
	opts.ImplicitMarkers = false
	d := NewDetector(opts, nil)

	items, err := d.ScanFile(filepath.Join(root, "util.py"), "util.py")
	if err != nil {
		t.Fatalf("ScanFile failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no instances with implicit matching off, got %d", len(items))
	}
}

func TestScanDirWalksAndFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/service.go", "// TODO: refactor design\npackage a\n")
	writeFile(t, root, "b/script.py", "# FIXME: test coverage missing\n")
	writeFile(t, root, "b/notes.txt", "TODO: not source code\n")
	writeFile(t, root, "vendor/dep.go", "// TODO: vendored, skip\npackage dep\n")

	d := NewDetector(DefaultOptions(), nil)
	corpus, err := d.ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if corpus.Len() != 2 {
		t.Fatalf("Expected 2 instances, got %d: %v", corpus.Len(), corpus.IDs())
	}
	files := make(map[string]bool)
	for _, in := range corpus.Instances() {
		files[in.File] = true
	}
	if !files["a/service.go"] || !files["b/script.py"] {
		t.Errorf("Unexpected files: %v", files)
	}
}

func TestScanFileOnePerLine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x.py", "# TODO FIXME HACK all at once\n")

	d := NewDetector(DefaultOptions(), nil)
	items, err := d.ScanFile(filepath.Join(root, "x.py"), "x.py")
	if err != nil {
		t.Fatalf("ScanFile failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 instance per line, got %d", len(items))
	}
}

func TestInstanceIDsAreStable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x.py", "# TODO: stable id\n")

	d := NewDetector(DefaultOptions(), nil)
	a, err := d.ScanFile(filepath.Join(root, "x.py"), "x.py")
	if err != nil {
		t.Fatalf("ScanFile failed: %v", err)
	}
	b, err := d.ScanFile(filepath.Join(root, "x.py"), "x.py")
	if err != nil {
		t.Fatalf("ScanFile failed: %v", err)
	}
	if len(a) != 1 || len(b) != 1 || a[0].ID != b[0].ID {
		t.Errorf("IDs differ across scans: %v vs %v", a, b)
	}
}

func TestLineCommentsBlocks(t *testing.T) {
	source := []byte(`int main() {
/* TODO: span
   multiple lines */
return 0; }
`)
	comments := lineComments(source)
	if len(comments) < 2 {
		t.Fatalf("Expected block comment lines, got %v", comments)
	}
	if comments[0].Line != 2 {
		t.Errorf("First comment line = %d, want 2", comments[0].Line)
	}
}
