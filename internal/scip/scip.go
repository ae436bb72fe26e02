// Package scip is the optional SCIP indexer interop hook: it shells out to
// scip-typescript or scip-php when present on PATH, decodes the resulting
// index.scip protobuf, and converts its occurrences into SymbolReferences
// for JS/TS/PHP. The indexer does not call this package, so these
// references are not stored alongside the tree-sitter extraction.
package scip

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/codesearch-io/codesearch/internal/model"
)

// binaryFor maps a language tag to the external indexer binary that
// produces a SCIP index for it. Languages without an entry are skipped.
var binaryFor = map[string]string{
	"typescript": "scip-typescript",
	"javascript": "scip-typescript",
	"php":        "scip-php",
}

// Available reports whether an external SCIP indexer is on PATH for
// language. Absent indexers are silently skipped per spec, so callers
// should treat false as "nothing to do", not an error.
func Available(language string) bool {
	binary, ok := binaryFor[language]
	if !ok {
		return false
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// Run invokes the external SCIP indexer for language against repoRoot and
// returns the parsed index, or (nil, nil) if no indexer is available.
func Run(ctx context.Context, repoRoot, language string) (*Index, error) {
	binary, ok := binaryFor[language]
	if !ok {
		return nil, nil
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, nil
	}

	outDir, err := os.MkdirTemp("", "codesearch-scip-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	outPath := filepath.Join(outDir, "index.scip")
	cmd := exec.CommandContext(ctx, binary, "index", "--output", outPath)
	cmd.Dir = repoRoot
	if err := cmd.Run(); err != nil {
		// A non-zero exit from the external indexer is not fatal to the
		// indexing run as a whole; tree-sitter extraction still covers the
		// repository. Treat it the same as "absent".
		return nil, nil
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, nil
	}
	return decodeIndex(data)
}

// Document is one source file's SCIP occurrences and local definitions.
type Document struct {
	RelativePath string
	Occurrences  []Occurrence
	Symbols      []SymbolInformation
}

// Occurrence is one SCIP symbol occurrence: a range plus the symbol it
// refers to and the roles it plays there (definition, reference, ...).
type Occurrence struct {
	// Range is [startLine, startCol, endLine, endCol] or the 3-element
	// same-line form [line, startCol, endCol], both 0-indexed per SCIP.
	Range       []int32
	Symbol      string
	SymbolRoles int32
}

// SymbolInformation is a local definition's descriptor within a document.
type SymbolInformation struct {
	Symbol      string
	DisplayName string
}

// Index is a decoded SCIP index covering one indexing run.
type Index struct {
	Documents []Document
}

// symbolRoleDefinition is the SCIP SymbolRole bit for "this occurrence is
// the definition site", per the public SCIP schema.
const symbolRoleDefinition = 0x1

// ToReferences converts every non-definition occurrence in idx into a
// SymbolReference, resolving its enclosing caller via findEnclosingScope.
func ToReferences(idx *Index, repositoryID, language string) []model.SymbolReference {
	if idx == nil {
		return nil
	}
	var refs []model.SymbolReference

	for _, doc := range idx.Documents {
		defs := definitionsByLine(doc)
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&symbolRoleDefinition != 0 {
				continue
			}
			if len(occ.Range) < 3 {
				continue
			}
			line := int(occ.Range[0]) + 1 // SCIP ranges are 0-indexed
			col := int(occ.Range[1]) + 1

			caller, hasCaller := findEnclosingScope(defs, line)
			callerSymbol := ""
			if hasCaller {
				callerSymbol = caller.displayName
			}

			refs = append(refs, model.SymbolReference{
				RepositoryID:  repositoryID,
				CallerSymbol:  callerSymbol,
				CalleeSymbol:  scopeQualifiedName(occ.Symbol),
				CallerFile:    doc.RelativePath,
				ReferenceFile: doc.RelativePath,
				Line:          line,
				Column:        col,
				ReferenceKind: model.RefUnknown,
				Language:      language,
			})
		}
	}
	return refs
}

type definitionSite struct {
	displayName string
	startLine   int
}

// definitionsByLine collects this document's definition occurrences,
// sorted by start line, for findEnclosingScope to binary-search.
func definitionsByLine(doc Document) []definitionSite {
	names := make(map[string]string, len(doc.Symbols))
	for _, sym := range doc.Symbols {
		names[sym.Symbol] = sym.DisplayName
	}

	var defs []definitionSite
	for _, occ := range doc.Occurrences {
		if occ.SymbolRoles&symbolRoleDefinition == 0 || len(occ.Range) < 1 {
			continue
		}
		name := names[occ.Symbol]
		if name == "" {
			name = scopeQualifiedName(occ.Symbol)
		}
		defs = append(defs, definitionSite{displayName: name, startLine: int(occ.Range[0]) + 1})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].startLine < defs[j].startLine })
	return defs
}

// findEnclosingScope picks the nearest preceding definition by start line
// only, since SCIP provides no end line for definitions. This is a known
// quirk, not a bug fix candidate: a module-level statement between two
// functions is misattributed to the function that precedes it, because
// there is no end-line bound to tell the two apart. Preserved as-is.
func findEnclosingScope(defs []definitionSite, line int) (definitionSite, bool) {
	idx := sort.Search(len(defs), func(i int) bool { return defs[i].startLine > line })
	if idx == 0 {
		return definitionSite{}, false
	}
	return defs[idx-1], true
}

// scopeQualifiedName strips a SCIP symbol descriptor down to its
// dot-separated tail (e.g. "scip-typescript npm pkg 1.0.0 `src/a.ts`/Foo#bar()."
// becomes "Foo.bar"), giving a human-usable scope-qualified callee name.
// The descriptor grammar is "<scheme> <manager> <package> <version>
// <descriptors>", so everything up to and including the last backtick-
// quoted package path is dropped, then '#'/'/' separators become '.' and
// the trailing method-call parens are trimmed.
func scopeQualifiedName(symbol string) string {
	tail := symbol
	if close := bytes.LastIndexByte([]byte(symbol), '`'); close >= 0 {
		tail = symbol[close+1:]
	}
	tail = strings.TrimPrefix(tail, "/")

	replacer := strings.NewReplacer("#", ".", "/", ".", "(", "", ")", "")
	result := replacer.Replace(tail)
	result = strings.TrimSuffix(result, ".")
	return result
}

// decodeIndex walks the SCIP Index message using the raw protobuf wire
// format rather than generated bindings, reading only the fields this
// package needs: Index.documents (field 2), Document.relative_path (field
// 1), Document.occurrences (field 2), Document.symbols (field 3),
// Occurrence.range (field 1), Occurrence.symbol (field 2),
// Occurrence.symbol_roles (field 3), SymbolInformation.symbol (field 1),
// SymbolInformation.display_name (field 6) — per the public SCIP protobuf
// schema (sourcegraph/scip).
func decodeIndex(data []byte) (*Index, error) {
	idx := &Index{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 2 && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			doc, err := decodeDocument(msg)
			if err != nil {
				return nil, err
			}
			idx.Documents = append(idx.Documents, doc)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return idx, nil
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return doc, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			s, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return doc, protowire.ParseError(n)
			}
			data = data[n:]
			doc.RelativePath = string(s)
		case num == 2 && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return doc, protowire.ParseError(n)
			}
			data = data[n:]
			occ, err := decodeOccurrence(msg)
			if err != nil {
				return doc, err
			}
			doc.Occurrences = append(doc.Occurrences, occ)
		case num == 3 && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return doc, protowire.ParseError(n)
			}
			data = data[n:]
			sym, err := decodeSymbolInformation(msg)
			if err != nil {
				return doc, err
			}
			doc.Symbols = append(doc.Symbols, sym)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return doc, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return doc, nil
}

func decodeOccurrence(data []byte) (Occurrence, error) {
	var occ Occurrence
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return occ, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			// packed repeated int32 range
			packed, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return occ, protowire.ParseError(n)
			}
			data = data[n:]
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return occ, protowire.ParseError(n)
				}
				occ.Range = append(occ.Range, int32(v))
				packed = packed[n:]
			}
		case num == 2 && typ == protowire.BytesType:
			s, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return occ, protowire.ParseError(n)
			}
			data = data[n:]
			occ.Symbol = string(s)
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return occ, protowire.ParseError(n)
			}
			data = data[n:]
			occ.SymbolRoles = int32(v)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return occ, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return occ, nil
}

func decodeSymbolInformation(data []byte) (SymbolInformation, error) {
	var sym SymbolInformation
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return sym, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			s, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return sym, protowire.ParseError(n)
			}
			data = data[n:]
			sym.Symbol = string(s)
		case num == 6 && typ == protowire.BytesType:
			s, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return sym, protowire.ParseError(n)
			}
			data = data[n:]
			sym.DisplayName = string(s)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return sym, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return sym, nil
}
