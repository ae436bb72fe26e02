// Package parse wraps tree-sitter to turn a file's source into the chunks
// and symbol references the rest of the pipeline indexes.
package parse

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/lang"
	"github.com/codesearch-io/codesearch/internal/model"
)

const minChunkContentLen = 10
const minCalleeLen = 2

// scope is one definition site collected on the first walk, used for
// enclosing-scope attribution of references found on the second walk.
type scope struct {
	name      string
	parent    string
	nodeType  model.NodeType
	startLine int
	endLine   int
}

// Result is what Parse produces for one file.
type Result struct {
	Chunks     []model.CodeChunk
	References []model.SymbolReference
}

// Parse runs the definition and reference passes for one file's source.
// Unsupported languages yield an empty Result and no error. exportsByFile, if
// non-nil, drives the require-resolution post-pass for JS/TS references; it
// maps a repository-relative path (without extension) to its exported names.
func Parse(source []byte, path, language, repositoryID string, exportsByFile map[string][]string) (Result, error) {
	spec, ok := specs[language]
	if !ok {
		return Result{}, nil
	}
	tsLang, ok := tsLanguages[language]
	if !ok {
		return Result{}, nil
	}

	p := sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(tsLang); err != nil {
		return Result{}, cerrors.Wrap(cerrors.Parse, fmt.Sprintf("set language %s", language), err)
	}
	tree := p.Parse(source, nil)
	if tree == nil {
		return Result{}, cerrors.New(cerrors.Parse, fmt.Sprintf("tree-sitter failed to parse %s", path))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return Result{}, cerrors.New(cerrors.Parse, fmt.Sprintf("empty parse tree for %s", path))
	}

	chunks, scopes := collectChunks(root, source, spec, path, language, repositoryID)
	var varTypes map[string]string
	if language == lang.PHP {
		varTypes = buildPHPVariableTypes(root, source)
	}
	refs := collectReferences(root, source, spec, scopes, path, language, repositoryID, exportsByFile, varTypes)

	return Result{Chunks: chunks, References: refs}, nil
}

func collectChunks(root *tsNode, source []byte, spec grammarSpec, path, language, repositoryID string) ([]model.CodeChunk, []scope) {
	var chunks []model.CodeChunk
	var scopes []scope

	walk(root, func(n *tsNode) bool {
		kind, ok := spec.chunkKinds[n.Kind()]
		if !ok {
			return true
		}
		content := nodeText(n, source)
		if len(strings.TrimSpace(content)) < minChunkContentLen {
			return true
		}

		var name string
		if kind.nameField != "" {
			if f := n.ChildByFieldName(kind.nameField); f != nil {
				name = nodeText(f, source)
			}
		}

		sLine, eLine := startLine(n), endLine(n)
		parent := enclosingScopeName(scopes, sLine)

		chunks = append(chunks, model.CodeChunk{
			RepositoryID: repositoryID,
			FilePath:     path,
			Content:      content,
			StartLine:    sLine,
			EndLine:      eLine,
			Language:     language,
			NodeType:     kind.nodeType,
			SymbolName:   name,
			ParentSymbol: parent,
		})
		scopes = append(scopes, scope{
			name:      name,
			parent:    parent,
			nodeType:  kind.nodeType,
			startLine: sLine,
			endLine:   eLine,
		})
		return true
	})

	return chunks, scopes
}

// enclosingScopeName finds the name of the tightest scope (so far collected)
// containing line, used while chunks are still being walked top-down so a
// method's parent class is already known by the time the method is visited.
func enclosingScopeName(scopes []scope, line int) string {
	best := -1
	var name string
	for _, s := range scopes {
		if s.startLine <= line && line <= s.endLine {
			width := s.endLine - s.startLine
			if best == -1 || width < best {
				best = width
				name = s.name
			}
		}
	}
	return name
}

// tightestScope finds the tightest enclosing scope for an arbitrary line,
// used for reference attribution once every scope in the file is known.
func tightestScope(scopes []scope, line int) (scope, bool) {
	best := -1
	var found scope
	ok := false
	for _, s := range scopes {
		if s.startLine <= line && line <= s.endLine {
			width := s.endLine - s.startLine
			if best == -1 || width < best {
				best = width
				found = s
				ok = true
			}
		}
	}
	return found, ok
}

func collectReferences(root *tsNode, source []byte, spec grammarSpec, scopes []scope, path, language, repositoryID string, exportsByFile map[string][]string, varTypes map[string]string) []model.SymbolReference {
	var refs []model.SymbolReference

	walk(root, func(n *tsNode) bool {
		extractor, ok := spec.refKinds[n.Kind()]
		if !ok {
			return true
		}

		// requirePath doubles as a structural gate for extractors whose node
		// kind (e.g. variable_declarator) matches far more than the pattern
		// they target: only a genuine `x = require(path)` shape passes.
		var requirePathValue string
		var hasRequirePath bool
		if extractor.requirePath != nil {
			requirePathValue, hasRequirePath = extractor.requirePath(n, source)
			if !hasRequirePath {
				return true
			}
		}

		calleeNode, ok := extractor.calleeNode(n)
		if !ok {
			return true
		}
		rawCallee := nodeText(calleeNode, source)
		callee := tailIdentifier(rawCallee)
		isImport := extractor.kind == model.RefImport
		if isImport {
			callee = stripQuotes(callee)
		}
		if len(callee) < minCalleeLen {
			return true
		}
		if _, stop := spec.stopList[callee]; stop {
			return true
		}

		line := startLine(n)
		col := startCol(n)
		caller, hasCaller := tightestScope(scopes, line)

		ref := model.SymbolReference{
			RepositoryID:  repositoryID,
			CalleeSymbol:  callee,
			CallerFile:    path,
			ReferenceFile: path,
			Line:          line,
			Column:        col,
			ReferenceKind: extractor.kind,
			Language:      language,
		}
		if hasCaller {
			ref.CallerSymbol = caller.name
			ref.CallerNodeType = caller.nodeType
			ref.EnclosingScope = caller.parent
		}

		if qualified, ok := qualifyReceiver(n, source, language, caller, hasCaller, varTypes); ok {
			ref.CalleeSymbol = qualified
		}

		if hasRequirePath && exportsByFile != nil {
			if resolved, alias, ok := resolveRequire(path, requirePathValue, rawCallee, exportsByFile); ok {
				ref.CalleeSymbol = resolved
				ref.ImportAlias = alias
			}
		}

		refs = append(refs, ref)
		return true
	})

	return refs
}
