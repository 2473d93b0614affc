package extract

import (
	"fmt"
	"os"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"satdmap/internal/logging"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
)

// Occurrence role bit for definitions, per the SCIP wire format.
const symbolRoleDefinition int32 = 1

// SCIPExtractor derives dependency edges from a SCIP code index. An
// instance in file A is linked to an instance in file B when A references
// a symbol defined in B; the edge kind follows the symbol's shape.
type SCIPExtractor struct {
	indexPath string
	logger    *logging.Logger
}

// NewSCIPExtractor returns an extractor reading the index at path.
func NewSCIPExtractor(indexPath string, logger *logging.Logger) *SCIPExtractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SCIPExtractor{indexPath: indexPath, logger: logger}
}

// fileLink records how one file depends on another.
type fileLink struct {
	calls bool // references a function or method defined there
	data  bool // references a term (variable, field, constant) defined there
}

// Extract loads the index and emits edges between instances whose files are
// linked through symbol references. Module edges are added for linked file
// pairs in different modules.
func (s *SCIPExtractor) Extract(corpus *satd.Corpus) ([]relate.RawEdge, error) {
	index, err := loadIndex(s.indexPath)
	if err != nil {
		return nil, err
	}

	links := buildFileLinks(index)
	s.logger.Debug("scip index loaded", map[string]interface{}{
		"path":      s.indexPath,
		"documents": len(index.Documents),
		"fileLinks": len(links),
	})

	byFile := groupBy(corpus, func(in *satd.Instance) string { return in.File })

	var edges []relate.RawEdge
	for _, srcFile := range sortedKeys(byFile) {
		for _, dstFile := range sortedKeys(byFile) {
			if srcFile == dstFile {
				continue
			}
			link, ok := links[srcFile][dstFile]
			if !ok {
				continue
			}
			for _, src := range byFile[srcFile] {
				for _, dst := range byFile[dstFile] {
					if link.calls {
						edges = append(edges, relate.RawEdge{
							SourceID:    src.ID,
							TargetID:    dst.ID,
							Type:        relate.DepCall,
							Description: describeCall(src, dst),
						})
					}
					if link.data {
						edges = append(edges, relate.RawEdge{
							SourceID:    src.ID,
							TargetID:    dst.ID,
							Type:        relate.DepData,
							Description: describeData(src, dst),
						})
					}
					if src.Module() != dst.Module() {
						edges = append(edges, relate.RawEdge{
							SourceID:    src.ID,
							TargetID:    dst.ID,
							Type:        relate.DepModule,
							Description: describeModule(src, dst),
						})
					}
				}
			}
		}
	}
	return edges, nil
}

func loadIndex(path string) (*scippb.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scip index %s: %w", path, err)
	}
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse scip index %s: %w", path, err)
	}
	return &index, nil
}

// buildFileLinks maps source file -> target file -> link shape. A link is
// recorded when a non-definition occurrence in the source file names a
// symbol whose definition lives in the target file.
func buildFileLinks(index *scippb.Index) map[string]map[string]fileLink {
	defFile := make(map[string]string)
	for _, doc := range index.Documents {
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&symbolRoleDefinition != 0 && !isLocalSymbol(occ.Symbol) {
				defFile[occ.Symbol] = doc.RelativePath
			}
		}
	}

	links := make(map[string]map[string]fileLink)
	for _, doc := range index.Documents {
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&symbolRoleDefinition != 0 || isLocalSymbol(occ.Symbol) {
				continue
			}
			target, ok := defFile[occ.Symbol]
			if !ok || target == doc.RelativePath {
				continue
			}
			if links[doc.RelativePath] == nil {
				links[doc.RelativePath] = make(map[string]fileLink)
			}
			link := links[doc.RelativePath][target]
			if isCallableSymbol(occ.Symbol) {
				link.calls = true
			} else {
				link.data = true
			}
			links[doc.RelativePath][target] = link
		}
	}
	return links
}

// isLocalSymbol reports whether a symbol is file-local (never a cross-file
// dependency).
func isLocalSymbol(symbol string) bool {
	return strings.HasPrefix(symbol, "local ")
}

// isCallableSymbol reports whether a SCIP symbol names a function or
// method. The descriptor suffix "()." marks callables in the symbol
// grammar.
func isCallableSymbol(symbol string) bool {
	return strings.HasSuffix(symbol, ").")
}
