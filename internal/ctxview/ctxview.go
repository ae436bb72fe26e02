// Package ctxview answers "who calls this, and what does it call" for one
// symbol, running both lookups concurrently.
package ctxview

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/codesearch-io/codesearch/internal/graphstore"
	"github.com/codesearch-io/codesearch/internal/model"
)

const anonymousSymbol = "<anonymous>"

// Edge is one caller or callee relationship rendered for display.
type Edge struct {
	Symbol        string
	FilePath      string
	Line          int
	ReferenceKind model.ReferenceKind
	ImportAlias   string
}

// View is the symmetric caller/callee picture for one symbol.
type View struct {
	Callers     []Edge
	Callees     []Edge
	CallerCount int
	CalleeCount int
}

// Get runs find_callers and find_callees concurrently and assembles the
// result, per spec §4.8.
func Get(ctx context.Context, graph *graphstore.Store, symbol string, opts graphstore.QueryOptions) (View, error) {
	var callerRefs, calleeRefs []model.SymbolReference

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refs, err := graph.FindCallers(gctx, symbol, opts)
		if err != nil {
			return err
		}
		callerRefs = refs
		return nil
	})
	g.Go(func() error {
		refs, err := graph.FindCallees(gctx, symbol, opts)
		if err != nil {
			return err
		}
		calleeRefs = refs
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	callers := make([]Edge, len(callerRefs))
	for i, ref := range callerRefs {
		symbol := ref.CallerSymbol
		if symbol == "" {
			symbol = anonymousSymbol
		}
		callers[i] = Edge{Symbol: symbol, FilePath: ref.ReferenceFile, Line: ref.Line, ReferenceKind: ref.ReferenceKind, ImportAlias: ref.ImportAlias}
	}

	callees := make([]Edge, len(calleeRefs))
	for i, ref := range calleeRefs {
		callees[i] = Edge{Symbol: ref.CalleeSymbol, FilePath: ref.ReferenceFile, Line: ref.Line, ReferenceKind: ref.ReferenceKind, ImportAlias: ref.ImportAlias}
	}

	return View{
		Callers:     callers,
		Callees:     callees,
		CallerCount: len(callers),
		CalleeCount: len(callees),
	}, nil
}
