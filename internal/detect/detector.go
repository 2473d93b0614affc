// Package detect scans source trees for self-admitted technical debt
// comments and classifies them by debt type.
package detect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"satdmap/internal/logging"
	"satdmap/internal/satd"
)

// commentLine is a comment fragment attributed to a source line.
type commentLine struct {
	Line int
	Text string
}

// Options configures a Detector. Zero values pick defaults.
type Options struct {
	// Ruleset holds the detection and classification rules.
	Ruleset *Ruleset

	// Extensions limits scanning to these file extensions.
	Extensions []string

	// Ignore names directories skipped during the walk.
	Ignore []string

	// MaxFileSizeBytes skips files larger than this.
	MaxFileSizeBytes int

	// ImplicitMarkers enables matching of implicit debt phrases in
	// addition to explicit markers.
	ImplicitMarkers bool
}

// DefaultOptions returns standard scanning options.
func DefaultOptions() Options {
	return Options{
		Ruleset:          DefaultRuleset(),
		Extensions:       []string{".go", ".py", ".js", ".ts", ".java", ".rb", ".c", ".cpp", ".h"},
		Ignore:           []string{"node_modules", "vendor", "build", ".git"},
		MaxFileSizeBytes: 1000000,
		ImplicitMarkers:  true,
	}
}

// Detector finds SATD instances in source files. Comment extraction uses
// tree-sitter when available and falls back to line scanning otherwise.
type Detector struct {
	opts   Options
	parser *TreeParser
	logger *logging.Logger
}

// NewDetector returns a detector with the given options.
func NewDetector(opts Options, logger *logging.Logger) *Detector {
	if opts.Ruleset == nil {
		opts.Ruleset = DefaultRuleset()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions().Extensions
	}
	if opts.MaxFileSizeBytes == 0 {
		opts.MaxFileSizeBytes = DefaultOptions().MaxFileSizeBytes
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{opts: opts, parser: NewTreeParser(), logger: logger}
}

// ScanDir walks root and returns a corpus of all detected instances. File
// paths in the corpus are root-relative with forward slashes. Unreadable
// files are logged and skipped.
func (d *Detector) ScanDir(root string) (*satd.Corpus, error) {
	corpus := satd.NewCorpus()

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if d.ignored(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.wantExtension(path) {
			return nil
		}
		if info, err := entry.Info(); err == nil && info.Size() > int64(d.opts.MaxFileSizeBytes) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		items, err := d.ScanFile(path, filepath.ToSlash(rel))
		if err != nil {
			d.logger.Warn("failed to scan file", map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			})
			return nil
		}
		for _, in := range items {
			corpus.Add(in)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	d.logger.Info("scan complete", map[string]interface{}{
		"root":      root,
		"instances": corpus.Len(),
	})
	return corpus, nil
}

// ScanFile scans a single file, reporting instances under relPath. At most
// one instance is emitted per source line.
func (d *Detector) ScanFile(path, relPath string) ([]*satd.Instance, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	comments := d.extractComments(source, filepath.Ext(path))
	lines := strings.Split(string(source), "\n")

	var items []*satd.Instance
	seenLine := make(map[int]bool)
	for _, c := range comments {
		if seenLine[c.Line] {
			continue
		}
		explicit := d.opts.Ruleset.MatchExplicit(c.Text)
		implicit := d.opts.ImplicitMarkers && d.opts.Ruleset.MatchImplicit(c.Text)
		if !explicit && !implicit {
			continue
		}
		seenLine[c.Line] = true

		content := strings.TrimSpace(c.Text)
		items = append(items, &satd.Instance{
			ID:         satd.MakeID(relPath, c.Line, content),
			File:       relPath,
			Line:       c.Line,
			Content:    content,
			DebtType:   d.opts.Ruleset.Classify(c.Text, contextAround(lines, c.Line)),
			IsExplicit: explicit,
			IsImplicit: implicit,
		})
	}
	return items, nil
}

// extractComments prefers the tree-sitter parser and falls back to the
// line scanner when the parser is unavailable or the language unsupported.
func (d *Detector) extractComments(source []byte, ext string) []commentLine {
	if d.parser != nil {
		if comments, ok := d.parser.Comments(source, ext); ok {
			return comments
		}
	}
	return lineComments(source)
}

// contextAround returns up to 5 lines before and after a 1-based line, used
// to classify the debt type.
func contextAround(lines []string, line int) string {
	start := line - 6
	if start < 0 {
		start = 0
	}
	end := line + 5
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func (d *Detector) ignored(name string) bool {
	for _, ig := range d.opts.Ignore {
		if name == ig {
			return true
		}
	}
	return false
}

func (d *Detector) wantExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range d.opts.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// lineComments extracts comment fragments by scanning for line and block
// comment markers. It tolerates any language well enough for debt markers.
func lineComments(source []byte) []commentLine {
	var comments []commentLine
	inBlock := false
	for i, line := range strings.Split(string(source), "\n") {
		n := i + 1
		switch {
		case inBlock:
			text := line
			if idx := strings.Index(line, "*/"); idx >= 0 {
				text = line[:idx]
				inBlock = false
			}
			comments = append(comments, commentLine{Line: n, Text: strings.TrimLeft(text, " \t*")})
		case strings.Contains(line, "//"):
			comments = append(comments, commentLine{Line: n, Text: after(line, "//")})
		case strings.Contains(line, "/*"):
			text := after(line, "/*")
			if idx := strings.Index(text, "*/"); idx >= 0 {
				text = text[:idx]
			} else {
				inBlock = true
			}
			comments = append(comments, commentLine{Line: n, Text: text})
		case strings.Contains(line, "#"):
			comments = append(comments, commentLine{Line: n, Text: after(line, "#")})
		}
	}
	return comments
}

func after(s, marker string) string {
	_, rest, _ := strings.Cut(s, marker)
	return rest
}
