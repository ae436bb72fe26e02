package parse

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsNode is a local alias so the rest of the package doesn't repeat the
// import path for every helper signature.
type tsNode = sitter.Node

func nodeText(n *tsNode, source []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

func startLine(n *tsNode) int { return int(n.StartPosition().Row) + 1 }
func endLine(n *tsNode) int   { return int(n.EndPosition().Row) + 1 }
func startCol(n *tsNode) int  { return int(n.StartPosition().Column) + 1 }

func walk(n *tsNode, visit func(*tsNode) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		walk(n.Child(i), visit)
	}
}

func findAncestor(n *tsNode, kinds ...string) *tsNode {
	want := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := want[p.Kind()]; ok {
			return p
		}
	}
	return nil
}

// tailIdentifier trims a dotted/scoped reference expression's text down to
// its right-most segment: "pkg.Foo" -> "Foo", "a::b::c" -> "c",
// "$this->foo" -> "foo". Receiver qualification (receiver.go) re-derives the
// qualified form separately when the AST permits it.
func tailIdentifier(text string) string {
	text = strings.TrimSpace(text)
	for _, sep := range []string{"->", "::", "."} {
		if idx := strings.LastIndex(text, sep); idx >= 0 {
			text = text[idx+len(sep):]
		}
	}
	return strings.TrimSpace(text)
}

// firstIdentifierText returns the text of the first "identifier"-kind node
// found in a subtree, used for import/use statements whose grammar wraps
// the module name in extra nodes.
func firstIdentifierText(n *tsNode, source []byte) (string, bool) {
	var found *tsNode
	walk(n, func(c *tsNode) bool {
		if found != nil {
			return false
		}
		if c.Kind() == "identifier" && c != n {
			found = c
			return false
		}
		return true
	})
	if found == nil {
		return "", false
	}
	return nodeText(found, source), true
}

// stringLiteralText returns the unquoted text of the first string/system
// include literal found in a subtree.
func stringLiteralText(n *tsNode, source []byte) (string, bool) {
	var found *tsNode
	kinds := map[string]struct{}{
		"string": {}, "string_literal": {}, "system_lib_string": {}, "interpreted_string_literal": {},
	}
	walk(n, func(c *tsNode) bool {
		if found != nil {
			return false
		}
		if _, ok := kinds[c.Kind()]; ok {
			found = c
			return false
		}
		return true
	})
	if found == nil {
		return "", false
	}
	return stripQuotes(nodeText(found, source)), true
}

// requirePathFromRequireBinding recognizes the `const x = require("path")`
// shape on a variable_declarator node: its value must be a call to `require`
// (or a member ending in `.require`, such as `module.require`) with a
// single string-literal argument. Any other
// variable_declarator (the vast majority) fails the shape check and ok=false.
func requirePathFromRequireBinding(n *tsNode, source []byte) (string, bool) {
	value := n.ChildByFieldName("value")
	if value == nil || value.Kind() != "call_expression" {
		return "", false
	}
	fn := value.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	name := nodeText(fn, source)
	if name != "require" && !strings.HasSuffix(name, ".require") {
		return "", false
	}
	args := value.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	return stringLiteralText(args, source)
}

// stripQuotes removes surrounding quotes/angle-brackets from an import path
// literal: "fmt" -> fmt, <iostream> -> iostream, "header.h" -> header.h.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
		if s[0] == '<' && s[len(s)-1] == '>' {
			return s[1 : len(s)-1]
		}
	}
	return s
}
