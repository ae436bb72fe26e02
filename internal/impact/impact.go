// Package impact computes the blast radius of a symbol: every symbol that
// transitively calls it, found by breadth-first search backward through
// caller edges in the Call-Graph Store.
package impact

import (
	"context"
	"fmt"

	"github.com/codesearch-io/codesearch/internal/graphstore"
	"github.com/codesearch-io/codesearch/internal/model"
)

const (
	// DefaultMaxDepth is used when a caller does not specify one.
	DefaultMaxDepth = 5
	// ServerMaxDepth is the hard cap the MCP server enforces.
	ServerMaxDepth = 20

	anonymousSymbol = "<anonymous>"
)

// Node is one symbol (or anonymous call site) reached while walking caller
// edges backward from the root.
type Node struct {
	Symbol        string
	Depth         int
	RepositoryID  string
	FilePath      string
	Line          int
	ReferenceKind model.ReferenceKind
	ViaSymbol     string // the node this one was discovered from
}

// Analysis is the result of one BFS run.
type Analysis struct {
	RootSymbol      string
	TotalAffected   int
	MaxDepthReached int
	ByDepth         [][]Node
}

type queueItem struct {
	symbol string
	depth  int
}

// Analyze performs bounded breadth-first search backward through caller
// edges starting at root, per spec §4.7.
//
// visited dedups by symbol alone, not by (depth, symbol): once a symbol has
// been recorded at the depth it was first reached, a second caller edge
// reaching the same symbol at the same depth from a different path is
// silently dropped, hiding that alternate path. Preserved as-is; noted for
// review rather than fixed.
func Analyze(ctx context.Context, graph *graphstore.Store, root string, maxDepth int, opts graphstore.QueryOptions) (Analysis, error) {
	if root == "" {
		return Analysis{}, fmt.Errorf("impact: root symbol must not be empty")
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	visited := map[string]struct{}{root: {}}
	queue := []queueItem{{symbol: root, depth: 0}}
	byDepth := make([][]Node, 0)
	maxDepthReached := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= maxDepth {
			continue
		}

		callers, err := graph.FindCallers(ctx, current.symbol, opts)
		if err != nil {
			return Analysis{}, fmt.Errorf("impact: finding callers of %s: %w", current.symbol, err)
		}

		nextDepth := current.depth + 1
		for _, ref := range callers {
			var node Node
			var symbolKey string
			enqueue := false

			if ref.CallerSymbol == "" {
				symbolKey = fmt.Sprintf("anon:%s:%s", ref.RepositoryID, ref.CallerFile)
				node = Node{
					Symbol:        anonymousSymbol,
					Depth:         nextDepth,
					RepositoryID:  ref.RepositoryID,
					FilePath:      ref.ReferenceFile,
					Line:          ref.Line,
					ReferenceKind: ref.ReferenceKind,
					ViaSymbol:     current.symbol,
				}
			} else {
				symbolKey = ref.CallerSymbol
				node = Node{
					Symbol:        ref.CallerSymbol,
					Depth:         nextDepth,
					RepositoryID:  ref.RepositoryID,
					FilePath:      ref.ReferenceFile,
					Line:          ref.Line,
					ReferenceKind: ref.ReferenceKind,
					ViaSymbol:     current.symbol,
				}
				enqueue = true
			}

			if _, ok := visited[symbolKey]; ok {
				continue
			}
			visited[symbolKey] = struct{}{}

			for len(byDepth) < nextDepth {
				byDepth = append(byDepth, nil)
			}
			byDepth[nextDepth-1] = append(byDepth[nextDepth-1], node)
			if nextDepth > maxDepthReached {
				maxDepthReached = nextDepth
			}

			if enqueue {
				queue = append(queue, queueItem{symbol: symbolKey, depth: nextDepth})
			}
		}
	}

	total := 0
	for _, level := range byDepth {
		total += len(level)
	}

	return Analysis{
		RootSymbol:      root,
		TotalAffected:   total,
		MaxDepthReached: maxDepthReached,
		ByDepth:         byDepth,
	}, nil
}
