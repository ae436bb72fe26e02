package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codesearch-io/codesearch/internal/ctxview"
	"github.com/codesearch-io/codesearch/internal/graphstore"
	"github.com/codesearch-io/codesearch/internal/impact"
	"github.com/codesearch-io/codesearch/internal/model"
	"github.com/codesearch-io/codesearch/internal/search"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// clampSearchLimit applies search_code's default and hard cap (spec §6).
func clampSearchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

// clampImpactDepth applies analyze_impact's default and hard cap (spec §6).
func clampImpactDepth(depth int) int {
	if depth <= 0 {
		return impact.DefaultMaxDepth
	}
	if depth > impact.ServerMaxDepth {
		return impact.ServerMaxDepth
	}
	return depth
}

// searchCodeArgs binds the search_code tool's arguments.
type searchCodeArgs struct {
	Query         string   `json:"query"`
	Limit         int      `json:"limit"`
	MinScore      *float32 `json:"min_score"`
	Languages     []string `json:"languages"`
	Repositories  []string `json:"repositories"`
	Hybrid        bool     `json:"hybrid"`
}

// analyzeImpactArgs binds the analyze_impact tool's arguments.
type analyzeImpactArgs struct {
	Symbol       string `json:"symbol"`
	Depth        int    `json:"depth"`
	RepositoryID string `json:"repository_id"`
}

// getSymbolContextArgs binds the get_symbol_context tool's arguments.
type getSymbolContextArgs struct {
	Symbol       string `json:"symbol"`
	RepositoryID string `json:"repository_id"`
	Limit        int    `json:"limit"`
}

// RegisterTools adds search_code, analyze_impact, and get_symbol_context to s.
func RegisterTools(s *server.MCPServer, searcher *search.Searcher, graph *graphstore.Store) {
	addSearchCodeTool(s, searcher)
	addAnalyzeImpactTool(s, graph)
	addGetSymbolContextTool(s, graph)
}

func addSearchCodeTool(s *server.MCPServer, searcher *search.Searcher) {
	tool := mcp.NewTool(
		"search_code",
		mcp.WithDescription("Semantic/hybrid search over indexed source code. Returns ranked code chunks."),
		mcp.WithString("query", mcp.Required(), mcp.Description("natural language or code search query")),
		mcp.WithNumber("limit", mcp.Description("maximum results to return (1-100, default 10)")),
		mcp.WithNumber("min_score", mcp.Description("drop results below this score")),
		mcp.WithArray("languages", mcp.Description("restrict to these language tags")),
		mcp.WithArray("repositories", mcp.Description("restrict to these repository ids")),
		mcp.WithBoolean("hybrid", mcp.Description("fuse BM25 keyword search with semantic search (default false)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args searchCodeArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.Query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		limit := clampSearchLimit(args.Limit)

		q := model.SearchQuery{
			Text:          args.Query,
			Limit:         limit,
			MinScore:      args.MinScore,
			Languages:     args.Languages,
			RepositoryIDs: args.Repositories,
			Hybrid:        args.Hybrid,
		}
		results, err := searcher.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("search_code: %w", err)
		}

		payload, err := json.Marshal(results)
		if err != nil {
			return nil, fmt.Errorf("search_code: encoding results: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	})
}

func addAnalyzeImpactTool(s *server.MCPServer, graph *graphstore.Store) {
	tool := mcp.NewTool(
		"analyze_impact",
		mcp.WithDescription("Breadth-first search backward through caller edges: every symbol transitively affected by a change to the given symbol."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("fully-qualified symbol name")),
		mcp.WithNumber("depth", mcp.Description("maximum BFS depth (1-20, default 5)")),
		mcp.WithString("repository_id", mcp.Description("restrict to this repository id")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args analyzeImpactArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.Symbol == "" {
			return mcp.NewToolResultError("symbol is required"), nil
		}
		depth := clampImpactDepth(args.Depth)

		opts := graphstore.QueryOptions{RepositoryID: args.RepositoryID}
		analysis, err := impact.Analyze(ctx, graph, args.Symbol, depth, opts)
		if err != nil {
			return nil, fmt.Errorf("analyze_impact: %w", err)
		}

		payload, err := json.Marshal(analysis)
		if err != nil {
			return nil, fmt.Errorf("analyze_impact: encoding results: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	})
}

func addGetSymbolContextTool(s *server.MCPServer, graph *graphstore.Store) {
	tool := mcp.NewTool(
		"get_symbol_context",
		mcp.WithDescription("Callers and callees of a symbol, looked up concurrently."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("fully-qualified symbol name")),
		mcp.WithString("repository_id", mcp.Description("restrict to this repository id")),
		mcp.WithNumber("limit", mcp.Description("maximum callers/callees to return (0 = unlimited)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args getSymbolContextArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.Symbol == "" {
			return mcp.NewToolResultError("symbol is required"), nil
		}

		opts := graphstore.QueryOptions{RepositoryID: args.RepositoryID, Limit: args.Limit}
		view, err := ctxview.Get(ctx, graph, args.Symbol, opts)
		if err != nil {
			return nil, fmt.Errorf("get_symbol_context: %w", err)
		}

		payload, err := json.Marshal(view)
		if err != nil {
			return nil, fmt.Errorf("get_symbol_context: encoding results: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	})
}
