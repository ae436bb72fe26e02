// Command codesearch indexes repositories into a local chunk store,
// embedding index, and call graph, then answers semantic/hybrid search,
// impact analysis, and caller/callee context queries over it.
package main

import "github.com/codesearch-io/codesearch/internal/cli"

func main() {
	cli.Execute()
}
