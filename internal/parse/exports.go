package parse

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codesearch-io/codesearch/internal/lang"
)

// ScanExports parses source far enough to run ExtractModuleExports, for the
// indexer's export pre-scan pass over the JS/TS files in a changeset. Returns
// nil for unsupported languages.
func ScanExports(source []byte, language string) []string {
	tsLang, ok := tsLanguages[language]
	if !ok {
		return nil
	}

	p := sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(tsLang); err != nil {
		return nil
	}
	tree := p.Parse(source, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil
	}
	return ExtractModuleExports(root, source, language)
}

// ExtractModuleExports walks a JS/TS file and collects every name the module
// exposes under CommonJS or ES module syntax. Non-JS/TS languages always
// yield an empty set.
func ExtractModuleExports(root *tsNode, source []byte, language string) []string {
	if language != lang.JavaScript && language != lang.TypeScript {
		return nil
	}

	seen := make(map[string]struct{})
	add := func(name string) {
		if name != "" {
			seen[name] = struct{}{}
		}
	}

	walk(root, func(n *tsNode) bool {
		switch n.Kind() {
		case "assignment_expression":
			handleCommonJSAssignment(n, source, add)
		case "export_statement":
			handleExportStatement(n, source, add)
		}
		return true
	})

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

// handleCommonJSAssignment recognizes `module.exports = ident`,
// `module.exports = function named(){}`, and `module.exports.key = ...`.
func handleCommonJSAssignment(n *tsNode, source []byte, add func(string)) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil {
		return
	}

	if left.Kind() != "member_expression" {
		return
	}
	object := left.ChildByFieldName("object")
	property := left.ChildByFieldName("property")
	if object == nil || property == nil {
		return
	}

	switch object.Kind() {
	case "identifier":
		if nodeText(object, source) != "module" {
			return
		}
		if nodeText(property, source) != "exports" {
			return
		}
		// module.exports = <right>
		if right == nil {
			return
		}
		switch right.Kind() {
		case "identifier":
			add(nodeText(right, source))
		case "function_expression", "function_declaration", "generator_function", "generator_function_declaration":
			if nameNode := right.ChildByFieldName("name"); nameNode != nil {
				add(nodeText(nameNode, source))
			}
		}

	case "member_expression":
		// module.exports.key = ...
		innerObject := object.ChildByFieldName("object")
		innerProperty := object.ChildByFieldName("property")
		if innerObject == nil || innerProperty == nil {
			return
		}
		if innerObject.Kind() != "identifier" || nodeText(innerObject, source) != "module" {
			return
		}
		if nodeText(innerProperty, source) != "exports" {
			return
		}
		add(nodeText(property, source))
	}
}

// handleExportStatement recognizes `export default ident`, `export
// function/class/const/let/var ident`, and `export { ident [as alias] }`.
func handleExportStatement(n *tsNode, source []byte, add func(string)) {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "identifier":
			// `export default ident;`
			add(nodeText(c, source))

		case "function_declaration", "class_declaration", "generator_function_declaration":
			if nameNode := c.ChildByFieldName("name"); nameNode != nil {
				add(nodeText(nameNode, source))
			}

		case "lexical_declaration", "variable_declaration":
			walk(c, func(d *tsNode) bool {
				if d.Kind() == "variable_declarator" {
					if nameNode := d.ChildByFieldName("name"); nameNode != nil {
						add(nodeText(nameNode, source))
					}
				}
				return true
			})

		case "export_clause":
			for j := uint(0); j < c.ChildCount(); j++ {
				spec := c.Child(j)
				if spec.Kind() != "export_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				if aliasNode != nil {
					add(nodeText(aliasNode, source))
				} else if nameNode != nil {
					add(nodeText(nameNode, source))
				}
			}
		}
	}
}
