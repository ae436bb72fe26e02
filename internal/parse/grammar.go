package parse

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tscpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tsgo "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tshcl "github.com/tree-sitter-grammars/tree-sitter-hcl/bindings/go"
	tskotlin "github.com/fwcd/tree-sitter-kotlin/bindings/go"
	tsphp "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tspython "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tsrust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tsswift "github.com/alex-pinkus/tree-sitter-swift/bindings/go"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codesearch-io/codesearch/internal/lang"
	"github.com/codesearch-io/codesearch/internal/model"
)

// tsLanguages maps a language tag to its tree-sitter grammar. JavaScript
// has no grammar of its own here: it is parsed with the TypeScript grammar,
// which also accepts plain JS syntax.
var tsLanguages = map[string]*sitter.Language{
	lang.Rust:       sitter.NewLanguage(tsrust.Language()),
	lang.Python:     sitter.NewLanguage(tspython.Language()),
	lang.JavaScript: sitter.NewLanguage(tstypescript.LanguageTypescript()),
	lang.TypeScript: sitter.NewLanguage(tstypescript.LanguageTypescript()),
	lang.Go:         sitter.NewLanguage(tsgo.Language()),
	lang.HCL:        sitter.NewLanguage(tshcl.Language()),
	lang.PHP:        sitter.NewLanguage(tsphp.LanguagePHP()),
	lang.Cpp:        sitter.NewLanguage(tscpp.Language()),
	lang.Swift:      sitter.NewLanguage(tsswift.Language()),
	lang.Kotlin:     sitter.NewLanguage(tskotlin.Language()),
}

// chunkKind maps a grammar node kind to the node type it produces, with the
// tree-sitter field name (if any) holding the symbol's own name. A chunk's
// parent symbol is not read from the definition node; it comes from
// enclosing-scope attribution (enclosingScopeName in parser.go).
type chunkKind struct {
	nodeType  model.NodeType
	nameField string
}

// grammarSpec bundles everything the extractor needs for one language: which
// node kinds produce chunks, which node kinds produce references (and how to
// find the callee + auxiliary captures on them), and the language's stop
// list of identifiers that are never interesting callees.
type grammarSpec struct {
	chunkKinds map[string]chunkKind
	refKinds   map[string]refExtractor
	stopList   map[string]struct{}
}

func stopSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
