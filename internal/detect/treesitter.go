//go:build cgo

package detect

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeParser extracts comments from source using tree-sitter grammars.
type TreeParser struct {
	parser *sitter.Parser
}

// NewTreeParser creates a tree-sitter backed comment extractor.
func NewTreeParser() *TreeParser {
	return &TreeParser{parser: sitter.NewParser()}
}

// Comments parses source and returns all comment nodes with their 1-based
// lines. The second return is false when the extension has no grammar, in
// which case the caller should fall back to line scanning.
func (p *TreeParser) Comments(source []byte, ext string) ([]commentLine, bool) {
	lang := languageFor(ext)
	if lang == nil {
		return nil, false
	}

	p.parser.SetLanguage(lang)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, false
	}
	defer tree.Close()

	var comments []commentLine
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if strings.Contains(n.Type(), "comment") {
			comments = append(comments, splitCommentNode(n, source)...)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return comments, true
}

// splitCommentNode attributes each line of a (possibly multi-line) comment
// node to its own source line, with comment punctuation stripped.
func splitCommentNode(n *sitter.Node, source []byte) []commentLine {
	startLine := int(n.StartPoint().Row) + 1
	text := n.Content(source)

	var out []commentLine
	for i, line := range strings.Split(text, "\n") {
		cleaned := strings.TrimSpace(line)
		cleaned = strings.TrimPrefix(cleaned, "//")
		cleaned = strings.TrimPrefix(cleaned, "/*")
		cleaned = strings.TrimSuffix(cleaned, "*/")
		cleaned = strings.TrimPrefix(cleaned, "#")
		cleaned = strings.TrimLeft(cleaned, " \t*")
		if cleaned == "" {
			continue
		}
		out = append(out, commentLine{Line: startLine + i, Text: cleaned})
	}
	return out
}

func languageFor(ext string) *sitter.Language {
	switch ext {
	case ".go":
		return golang.GetLanguage()
	case ".py":
		return python.GetLanguage()
	case ".js":
		return javascript.GetLanguage()
	case ".ts":
		return typescript.GetLanguage()
	case ".java":
		return java.GetLanguage()
	default:
		return nil
	}
}
