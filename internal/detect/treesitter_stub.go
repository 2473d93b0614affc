//go:build !cgo

package detect

// TreeParser extracts comments using tree-sitter grammars.
// This is a stub for non-CGO builds; detection falls back to line scanning.
type TreeParser struct{}

// NewTreeParser returns nil when CGO is disabled.
func NewTreeParser() *TreeParser {
	return nil
}

// Comments always reports no grammar support in non-CGO builds.
func (p *TreeParser) Comments(source []byte, ext string) ([]commentLine, bool) {
	return nil, false
}
