package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codesearch-io/codesearch/internal/lang"
	"github.com/codesearch-io/codesearch/internal/model"
)

func newTestParser(t *testing.T, tsLang *sitter.Language) *sitter.Parser {
	t.Helper()
	p := sitter.NewParser()
	require.NoError(t, p.SetLanguage(tsLang))
	return p
}

func TestParseGoFunctionChunk(t *testing.T) {
	t.Parallel()

	src := []byte(`package sample

func Greet(name string) string {
	return "hello " + name
}
`)
	result, err := Parse(src, "sample.go", lang.Go, "repo-1", nil)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Equal(t, "Greet", chunk.SymbolName)
	assert.Equal(t, model.NodeFunction, chunk.NodeType)
	assert.Equal(t, 3, chunk.StartLine)
	assert.Equal(t, 5, chunk.EndLine)
}

func TestParseDropsShortChunks(t *testing.T) {
	t.Parallel()

	src := []byte(`package sample

const a=1
`)
	result, err := Parse(src, "sample.go", lang.Go, "repo-1", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Chunks, "chunk content under 10 trimmed characters must be dropped")
}

func TestParseUnsupportedLanguageYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	result, err := Parse([]byte("whatever"), "file.xyz", "cobol", "repo-1", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.References)
}

func TestParseGoImportStripsQuotes(t *testing.T) {
	t.Parallel()

	src := []byte(`package sample

import "fmt"

func UseIt() string {
	return fmt.Sprintf("x")
}
`)
	result, err := Parse(src, "sample.go", lang.Go, "repo-1", nil)
	require.NoError(t, err)

	var found bool
	for _, ref := range result.References {
		if ref.ReferenceKind == model.RefImport {
			found = true
			assert.Equal(t, "fmt", ref.CalleeSymbol)
		}
	}
	assert.True(t, found, "expected an import reference for fmt")
}

func TestParseGoStopListFiltersBuiltins(t *testing.T) {
	t.Parallel()

	src := []byte(`package sample

func Count(items []string) int {
	return len(items)
}
`)
	result, err := Parse(src, "sample.go", lang.Go, "repo-1", nil)
	require.NoError(t, err)

	for _, ref := range result.References {
		assert.NotEqual(t, "len", ref.CalleeSymbol, "stop-listed builtin must not appear as a reference")
	}
}

func TestParseGoEnclosingScopeAttribution(t *testing.T) {
	t.Parallel()

	src := []byte(`package sample

func helper() string {
	return "value"
}

func caller() string {
	return helper()
}
`)
	result, err := Parse(src, "sample.go", lang.Go, "repo-1", nil)
	require.NoError(t, err)

	var found bool
	for _, ref := range result.References {
		if ref.CalleeSymbol == "helper" {
			found = true
			assert.Equal(t, "caller", ref.CallerSymbol)
		}
	}
	assert.True(t, found)
}

func TestParsePHPReceiverQualification(t *testing.T) {
	t.Parallel()

	src := []byte(`<?php

class Base {
    public function shared() {
        return 1;
    }
}

class Widget extends Base {
    public function render() {
        return $this->shared();
    }

    public static function make() {
        return self::create();
    }

    public static function create() {
        return 1;
    }

    public function delegate() {
        return parent::shared();
    }
}
`)
	result, err := Parse(src, "widget.php", lang.PHP, "repo-1", nil)
	require.NoError(t, err)

	qualified := map[string]bool{}
	for _, ref := range result.References {
		qualified[ref.CalleeSymbol] = true
	}
	assert.True(t, qualified["Widget.shared"], "references via $this-> should qualify with the enclosing class")
	assert.True(t, qualified["Widget::create"], "self:: should qualify with the enclosing class")
	assert.True(t, qualified["Base::shared"], "parent:: should resolve through the extends clause")
}

func TestParsePHPVariableTypeQualification(t *testing.T) {
	t.Parallel()

	src := []byte(`<?php

class Mailer {
    public function send() {
        return true;
    }
}

class Notifier {
    public function notify(Mailer $mailer) {
        return $mailer->send();
    }
}
`)
	result, err := Parse(src, "notifier.php", lang.PHP, "repo-1", nil)
	require.NoError(t, err)

	var found bool
	for _, ref := range result.References {
		if ref.CalleeSymbol == "Mailer.send" {
			found = true
		}
	}
	assert.True(t, found, "a typed parameter should resolve $mailer->send() to Mailer.send")
}

func TestParsePythonSelfQualification(t *testing.T) {
	t.Parallel()

	src := []byte(`class Service:
    def helper(self):
        return 1

    def run(self):
        return self.helper()
`)
	result, err := Parse(src, "service.py", lang.Python, "repo-1", nil)
	require.NoError(t, err)

	var found bool
	for _, ref := range result.References {
		if ref.CalleeSymbol == "Service.helper" {
			found = true
		}
	}
	assert.True(t, found, "self.helper() should qualify with the enclosing class")
}

func TestParseJSRequireResolution(t *testing.T) {
	t.Parallel()

	src := []byte(`const helper = require('./helper');

function run() {
	return helper();
}
`)
	exportsByFile := map[string][]string{
		"helper": {"realHelperName"},
	}
	result, err := Parse(src, "index.js", lang.JavaScript, "repo-1", exportsByFile)
	require.NoError(t, err)

	var found bool
	for _, ref := range result.References {
		if ref.ReferenceKind == model.RefImport && ref.ImportAlias == "helper" {
			found = true
			assert.Equal(t, "realHelperName", ref.CalleeSymbol)
		}
	}
	assert.True(t, found, "single-export require target should resolve to its exported name")
}

func TestParseJSRequireAmbiguousLeavesUnresolved(t *testing.T) {
	t.Parallel()

	src := []byte(`const helper = require('./helper');
`)
	exportsByFile := map[string][]string{
		"helper": {"one", "two"},
	}
	result, err := Parse(src, "index.js", lang.JavaScript, "repo-1", exportsByFile)
	require.NoError(t, err)

	for _, ref := range result.References {
		if ref.ReferenceKind == model.RefImport {
			assert.Equal(t, "helper", ref.CalleeSymbol, "ambiguous export set must leave the reference unresolved")
			assert.Empty(t, ref.ImportAlias)
		}
	}
}

func TestExtractModuleExportsCommonJS(t *testing.T) {
	t.Parallel()

	src := []byte(`function widget() {}
module.exports = widget;
`)
	names := extractExports(t, src, "widget.js", lang.JavaScript)
	assert.Contains(t, names, "widget")
}

func TestExtractModuleExportsESM(t *testing.T) {
	t.Parallel()

	src := []byte(`export function widget() {}
export const config = {};
export { widget as default_widget };
`)
	names := extractExports(t, src, "widget.js", lang.JavaScript)
	assert.Contains(t, names, "widget")
	assert.Contains(t, names, "config")
	assert.Contains(t, names, "default_widget")
}

func TestExtractModuleExportsNonJSIsEmpty(t *testing.T) {
	t.Parallel()

	names := extractExports(t, []byte("def widget(): pass"), "widget.py", lang.Python)
	assert.Empty(t, names)
}

func extractExports(t *testing.T, src []byte, path, language string) []string {
	t.Helper()

	tsLang, ok := tsLanguages[language]
	if !ok {
		return nil
	}
	p := newTestParser(t, tsLang)
	defer p.Close()

	tree := p.Parse(src, nil)
	require.NotNil(t, tree)
	defer tree.Close()

	return ExtractModuleExports(tree.RootNode(), src, language)
}
