package parse

import (
	"strings"

	"github.com/codesearch-io/codesearch/internal/lang"
)

// qualifyReceiver attempts to prefix a method-call callee with its receiver
// class name when the AST makes that statically determinable. It returns
// ok=false when the reference should keep its bare callee name.
func qualifyReceiver(n *tsNode, source []byte, language string, caller scope, hasCaller bool, varTypes map[string]string) (string, bool) {
	switch language {
	case lang.PHP:
		return qualifyPHP(n, source, varTypes)
	case lang.Python:
		return qualifyPythonOrJS(n, source, "self", "cls")
	case lang.JavaScript, lang.TypeScript:
		return qualifyPythonOrJS(n, source, "this")
	default:
		return "", false
	}
}

func qualifyPHP(n *tsNode, source []byte, varTypes map[string]string) (string, bool) {
	name := fieldText(n, source, "name")
	if name == "" {
		return "", false
	}

	switch n.Kind() {
	case "scoped_call_expression":
		scopeText := fieldText(n, source, "scope")
		switch scopeText {
		case "self", "static":
			if cls, ok := enclosingPHPType(n, source); ok {
				return cls + "::" + name, true
			}
			return scopeText + "::" + name, true
		case "parent":
			if parent, ok := phpExtendsName(n, source); ok {
				return parent + "::" + name, true
			}
			return "parent::" + name, true
		case "":
			return "", false
		default:
			return scopeText + "::" + name, true
		}

	case "member_call_expression":
		objectText := fieldText(n, source, "object")
		switch objectText {
		case "$this", "this":
			if cls, ok := enclosingPHPType(n, source); ok {
				return cls + "." + name, true
			}
			return "", false
		case "":
			return "", false
		default:
			varName := strings.TrimPrefix(objectText, "$")
			if cls, ok := varTypes[varName]; ok {
				return cls + "." + name, true
			}
			return "", false
		}
	}
	return "", false
}

// qualifyPythonOrJS handles self./cls./this. receivers uniformly and, for
// JS/TS call expressions whose function field is `ClassName.method`, checks
// whether ClassName is a class defined in the same file.
func qualifyPythonOrJS(n *tsNode, source []byte, selfNames ...string) (string, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	text := nodeText(fn, source)
	dot := strings.LastIndex(text, ".")
	if dot < 0 {
		return "", false
	}
	receiver := strings.TrimSpace(text[:dot])
	method := strings.TrimSpace(text[dot+1:])
	if method == "" {
		return "", false
	}

	for _, self := range selfNames {
		if receiver == self {
			if cls, ok := enclosingClassName(n, source); ok {
				return cls + "." + method, true
			}
			return "", false
		}
	}

	// ClassName.method() — only qualify when ClassName is itself a class
	// defined in this file; otherwise this is likely a module/static call
	// on an imported symbol and the bare name is already meaningful.
	if isIdentifier(receiver) && findSiblingClass(n, source, receiver) {
		return receiver + "." + method, true
	}
	return "", false
}

func fieldText(n *tsNode, source []byte, field string) string {
	f := n.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	return nodeText(f, source)
}

// enclosingPHPType walks up to the nearest class/trait/interface declaration
// and returns its name.
func enclosingPHPType(n *tsNode, source []byte) (string, bool) {
	anc := findAncestor(n, "class_declaration", "trait_declaration", "interface_declaration")
	if anc == nil {
		return "", false
	}
	name := fieldText(anc, source, "name")
	if name == "" {
		return "", false
	}
	return name, true
}

// phpExtendsName resolves `parent::` to the enclosing class's base_clause
// name.
func phpExtendsName(n *tsNode, source []byte) (string, bool) {
	anc := findAncestor(n, "class_declaration")
	if anc == nil {
		return "", false
	}
	var baseName string
	walk(anc, func(c *tsNode) bool {
		if baseName != "" {
			return false
		}
		if c.Kind() == "base_clause" {
			// PHP's grammar labels class names "name"/"qualified_name",
			// not "identifier"; a qualified name keeps its last segment.
			for i := uint(0); i < c.ChildCount() && baseName == ""; i++ {
				if k := c.Child(i); k.Kind() == "name" || k.Kind() == "qualified_name" {
					txt := nodeText(k, source)
					baseName = txt[strings.LastIndex(txt, `\`)+1:]
				}
			}
			return false
		}
		return true
	})
	if baseName == "" {
		return "", false
	}
	return baseName, true
}

func enclosingClassName(n *tsNode, source []byte) (string, bool) {
	anc := findAncestor(n, "class_definition", "class_declaration")
	if anc == nil {
		return "", false
	}
	name := fieldText(anc, source, "name")
	if name == "" {
		return "", false
	}
	return name, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
		if i > 0 && !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// findSiblingClass reports whether a class named want is declared anywhere
// in the same tree as n (walked from the file root).
func findSiblingClass(n *tsNode, source []byte, want string) bool {
	root := n
	for root.Parent() != nil {
		root = root.Parent()
	}
	found := false
	walk(root, func(c *tsNode) bool {
		if found {
			return false
		}
		if c.Kind() == "class_definition" || c.Kind() == "class_declaration" {
			if fieldText(c, source, "name") == want {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
