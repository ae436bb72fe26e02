package parse

import "strings"

// buildPHPVariableTypes scans a PHP file for the handful of syntactic
// patterns that statically pin a local variable to a class: typed
// parameters, constructor-promoted parameters, typed property declarations,
// and `= new ClassName(...)` assignments. The result maps bare variable name
// (without the leading `$`) to class name; unresolvable variables are simply
// absent, and callers fall back to the bare method name.
func buildPHPVariableTypes(root *tsNode, source []byte) map[string]string {
	types := make(map[string]string)

	walk(root, func(n *tsNode) bool {
		switch n.Kind() {
		case "simple_parameter", "property_promotion_parameter":
			typeNode := n.ChildByFieldName("type")
			nameNode := n.ChildByFieldName("name")
			if typeNode == nil || nameNode == nil {
				return true
			}
			cls := tailIdentifier(nodeText(typeNode, source))
			varName := strings.TrimPrefix(nodeText(nameNode, source), "$")
			if cls != "" && varName != "" {
				types[varName] = cls
			}

		case "property_declaration":
			typeNode := n.ChildByFieldName("type")
			if typeNode == nil {
				return true
			}
			cls := tailIdentifier(nodeText(typeNode, source))
			walk(n, func(c *tsNode) bool {
				if c.Kind() == "property_element" {
					if nameNode := c.Child(0); nameNode != nil {
						varName := strings.TrimPrefix(nodeText(nameNode, source), "$")
						if cls != "" && varName != "" {
							types[varName] = cls
						}
					}
				}
				return true
			})

		case "assignment_expression":
			leftNode := n.ChildByFieldName("left")
			rightNode := n.ChildByFieldName("right")
			if leftNode == nil || rightNode == nil || rightNode.Kind() != "object_creation_expression" {
				return true
			}
			clsNode := rightNode.ChildByFieldName("class")
			if clsNode == nil {
				return true
			}
			cls := tailIdentifier(nodeText(clsNode, source))
			varName := strings.TrimPrefix(nodeText(leftNode, source), "$")
			if cls != "" && varName != "" {
				types[varName] = cls
			}
		}
		return true
	})

	return types
}
