package parse

import (
	"github.com/codesearch-io/codesearch/internal/lang"
	"github.com/codesearch-io/codesearch/internal/model"
)

// refExtractor pulls a callee node off a reference-site node. The callee
// node's source text is resolved and trimmed to its tail identifier by the
// caller (see tailIdentifier); ok=false means the node isn't actually a
// reference worth recording (e.g. a call whose callee field is absent).
type refExtractor struct {
	kind       model.ReferenceKind
	calleeNode func(n *tsNode) (*tsNode, bool)
	// requirePath, when non-nil, extracts the string literal argument of a
	// `x = require(path)` binding so the require-resolution post-pass can run.
	requirePath func(n *tsNode, source []byte) (path string, ok bool)
}

func fieldNode(field string) func(*tsNode) (*tsNode, bool) {
	return func(n *tsNode) (*tsNode, bool) {
		f := n.ChildByFieldName(field)
		if f == nil {
			return nil, false
		}
		return f, true
	}
}

var (
	calleeByFunctionField    = fieldNode("function")
	calleeByClassField       = fieldNode("class")
	calleeByTypeField        = fieldNode("type")
	calleeByConstructorField = fieldNode("constructor")
	calleeByMacroField       = fieldNode("macro")
	calleeByNameField        = fieldNode("name")
)

var specs = map[string]grammarSpec{
	lang.Go: {
		chunkKinds: map[string]chunkKind{
			"function_declaration": {model.NodeFunction, "name"},
			"method_declaration":   {model.NodeFunction, "name"},
			"type_declaration":     {model.NodeTypedef, ""},
			"const_declaration":    {model.NodeConstant, ""},
		},
		refKinds: map[string]refExtractor{
			"call_expression": {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"import_spec":      {kind: model.RefImport, calleeNode: calleeByPathOrStringNode},
		},
		stopList: stopSet("len", "cap", "make", "new", "append", "panic", "recover", "print", "println", "error", "string", "int", "bool", "byte", "rune"),
	},
	lang.Python: {
		chunkKinds: map[string]chunkKind{
			"function_definition": {model.NodeFunction, "name"},
			"class_definition":    {model.NodeClass, "name"},
		},
		refKinds: map[string]refExtractor{
			"call":                   {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"import_statement":       {kind: model.RefImport, calleeNode: calleeFirstIdentNode},
			"import_from_statement":  {kind: model.RefImport, calleeNode: calleeFirstIdentNode},
		},
		stopList: stopSet("self", "cls", "print", "len", "str", "int", "float", "bool", "list", "dict", "set", "tuple", "super", "isinstance", "range"),
	},
	lang.JavaScript: jsLikeSpec(),
	lang.TypeScript: jsLikeSpec(),
	lang.PHP: {
		chunkKinds: map[string]chunkKind{
			"function_definition":   {model.NodeFunction, "name"},
			"method_declaration":    {model.NodeFunction, "name"},
			"class_declaration":     {model.NodeClass, "name"},
			"trait_declaration":     {model.NodeTrait, "name"},
			"interface_declaration": {model.NodeInterface, "name"},
		},
		refKinds: map[string]refExtractor{
			"function_call_expression":  {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"scoped_call_expression":    {kind: model.RefMethodCall, calleeNode: calleeByNameField},
			"member_call_expression":    {kind: model.RefMethodCall, calleeNode: calleeByNameField},
			"object_creation_expression": {kind: model.RefInstantiation, calleeNode: calleeByClassField},
		},
		stopList: stopSet("self", "parent", "static", "array", "string", "int", "bool", "float", "echo", "print", "isset", "empty"),
	},
	lang.Rust: {
		chunkKinds: map[string]chunkKind{
			"function_item": {model.NodeFunction, "name"},
			"struct_item":   {model.NodeStruct, "name"},
			"enum_item":     {model.NodeEnum, "name"},
			"trait_item":    {model.NodeTrait, "name"},
			"impl_item":     {model.NodeImpl, ""},
			"mod_item":      {model.NodeModule, "name"},
			"const_item":    {model.NodeConstant, "name"},
		},
		refKinds: map[string]refExtractor{
			"call_expression":  {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"macro_invocation": {kind: model.RefMacroInvocation, calleeNode: calleeByMacroField},
			"use_declaration":  {kind: model.RefImport, calleeNode: calleeFirstIdentNode},
		},
		stopList: stopSet("self", "Self", "super", "crate", "println", "vec", "format", "Some", "None", "Ok", "Err"),
	},
	lang.Cpp: {
		chunkKinds: map[string]chunkKind{
			"function_definition": {model.NodeFunction, ""},
			"class_specifier":     {model.NodeClass, "name"},
			"struct_specifier":    {model.NodeStruct, "name"},
			"enum_specifier":      {model.NodeEnum, "name"},
		},
		refKinds: map[string]refExtractor{
			"call_expression": {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"preproc_include": {kind: model.RefImport, calleeNode: calleeByPathOrStringNode},
			"new_expression":  {kind: model.RefInstantiation, calleeNode: calleeByTypeField},
		},
		stopList: stopSet("if", "for", "while", "switch", "sizeof", "int", "char", "bool", "void", "auto", "float", "double"),
	},
	lang.Swift: {
		chunkKinds: map[string]chunkKind{
			"function_declaration": {model.NodeFunction, "name"},
			"class_declaration":    {model.NodeClass, "name"},
			"protocol_declaration": {model.NodeInterface, "name"},
			"enum_declaration":     {model.NodeEnum, "name"},
		},
		refKinds: map[string]refExtractor{
			"call_expression":     {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"import_declaration":  {kind: model.RefImport, calleeNode: calleeFirstIdentNode},
		},
		stopList: stopSet("self", "Self", "super", "print", "String", "Int", "Bool", "Double"),
	},
	lang.Kotlin: {
		chunkKinds: map[string]chunkKind{
			"function_declaration": {model.NodeFunction, ""},
			"class_declaration":    {model.NodeClass, ""},
			"object_declaration":   {model.NodeClass, ""},
		},
		refKinds: map[string]refExtractor{
			"call_expression": {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"import_header":   {kind: model.RefImport, calleeNode: calleeFirstIdentNode},
		},
		stopList: stopSet("this", "super", "print", "println", "String", "Int", "Boolean", "Double"),
	},
	lang.HCL: {
		chunkKinds: map[string]chunkKind{
			"block": {model.NodeBlock, ""},
		},
		refKinds: map[string]refExtractor{
			"function_call": {kind: model.RefCall, calleeNode: calleeByFunctionField},
		},
		stopList: stopSet("var", "local", "module", "data"),
	},
}

// calleeByPathOrStringNode returns the node's "path" field, or else its last
// direct child that is a string or system-include literal.
func calleeByPathOrStringNode(n *tsNode) (*tsNode, bool) {
	if f := n.ChildByFieldName("path"); f != nil {
		return f, true
	}
	var found *tsNode
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "string_literal", "system_lib_string", "string", "interpreted_string_literal":
			found = c
		}
	}
	if found == nil {
		return nil, false
	}
	return found, true
}

func calleeFirstIdentNode(n *tsNode) (*tsNode, bool) {
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
		return nil, false
	}
	return found, true
}

func jsLikeSpec() grammarSpec {
	return grammarSpec{
		chunkKinds: map[string]chunkKind{
			"function_declaration": {model.NodeFunction, "name"},
			"class_declaration":    {model.NodeClass, "name"},
			"method_definition":    {model.NodeFunction, "name"},
		},
		refKinds: map[string]refExtractor{
			"call_expression":      {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"new_expression":       {kind: model.RefInstantiation, calleeNode: calleeByConstructorField},
			"import_statement":     {kind: model.RefImport, calleeNode: calleeFirstIdentNode},
			"class_heritage":       {kind: model.RefInheritance, calleeNode: calleeFirstIdentNode},
			"decorator":            {kind: model.RefCall, calleeNode: calleeByFunctionField},
			"variable_declarator": {
				kind:        model.RefImport,
				calleeNode:  calleeByNameField,
				requirePath: requirePathFromRequireBinding,
			},
		},
		stopList: stopSet("this", "super", "console", "require", "module", "exports", "typeof", "instanceof", "new"),
	}
}
