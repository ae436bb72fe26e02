// Package model defines the persistent data types shared by every store and
// component: repositories, code chunks, embeddings, symbol references, file
// hashes, and the search query/result pair.
package model

// NodeType enumerates the kinds of AST node a CodeChunk can represent.
type NodeType string

const (
	NodeFunction  NodeType = "function"
	NodeClass     NodeType = "class"
	NodeStruct    NodeType = "struct"
	NodeEnum      NodeType = "enum"
	NodeTrait     NodeType = "trait"
	NodeImpl      NodeType = "impl"
	NodeModule    NodeType = "module"
	NodeConstant  NodeType = "constant"
	NodeTypedef   NodeType = "typedef"
	NodeInterface NodeType = "interface"
	NodeBlock     NodeType = "block"
)

// ReferenceKind enumerates the relationship a SymbolReference expresses.
type ReferenceKind string

const (
	RefCall            ReferenceKind = "call"
	RefMethodCall      ReferenceKind = "method_call"
	RefTypeReference   ReferenceKind = "type_reference"
	RefImport          ReferenceKind = "import"
	RefVariableRef     ReferenceKind = "variable_reference"
	RefFieldAccess     ReferenceKind = "field_access"
	RefMacroInvocation ReferenceKind = "macro_invocation"
	RefInstantiation   ReferenceKind = "instantiation"
	RefImplementation  ReferenceKind = "implementation"
	RefInheritance     ReferenceKind = "inheritance"
	RefGenericArgument ReferenceKind = "generic_argument"
	RefUnknown         ReferenceKind = "unknown"
)

// Repository is an indexed project root.
type Repository struct {
	ID             string
	Name           string
	Path           string // absolute, canonicalised, unique
	CreatedAt      int64  // seconds since epoch
	UpdatedAt      int64
	ChunkCount     int
	FileCount      int
	VectorStoreTag string
	Namespace      string
	LanguageStats  map[string]int // language tag -> file count
}

// CodeChunk is a semantic slice of source extracted from one file.
type CodeChunk struct {
	ID           string
	RepositoryID string
	FilePath     string // repository-relative
	Content      string // verbatim source text
	StartLine    int    // 1-indexed
	EndLine      int    // 1-indexed, inclusive
	Language     string
	NodeType     NodeType
	SymbolName   string // optional
	ParentSymbol string // optional
}

// Embedding is the dense vector representation of a CodeChunk.
type Embedding struct {
	ChunkID string
	Vector  [384]float32
	Model   string
}

// SymbolReference is a directed edge from a caller to a callee.
type SymbolReference struct {
	ID                 string
	RepositoryID       string
	CallerSymbol       string // optional: empty means module-level/anonymous
	CalleeSymbol       string // never empty
	CallerFile         string // file where the caller is declared
	ReferenceFile      string // file where the reference site occurs
	Line               int    // 1-indexed
	Column             int    // 1-indexed
	ReferenceKind      ReferenceKind
	Language           string
	CallerNodeType     NodeType // optional
	EnclosingScope     string   // optional: class/trait name
	ImportAlias        string   // optional: local binding for renamed imports
}

// FileHash records the content hash of one repository-relative file.
type FileHash struct {
	RepositoryID string
	FilePath     string
	SHA256       string
}

// SearchQuery describes one semantic/hybrid search request.
type SearchQuery struct {
	Text             string
	Limit            int // default 10
	MinScore         *float32
	Languages        []string
	NodeTypes        []NodeType
	RepositoryIDs    []string
	Hybrid           bool
	FetchLimit       int // internal: overrides Limit when fetching candidates pre-fusion
}

// SearchResult pairs a chunk with its score for one query path.
type SearchResult struct {
	Chunk      CodeChunk
	Score      float32
	Highlights []string
}
