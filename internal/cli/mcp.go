package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
	"github.com/codesearch-io/codesearch/internal/mcpserver"
)

var (
	mcpHTTPPort int
	mcpPublic   bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server exposing search_code, analyze_impact, and get_symbol_context",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().IntVar(&mcpHTTPPort, "http", 0, "serve over streamable HTTP on this port instead of stdio")
	mcpCmd.Flags().BoolVar(&mcpPublic, "public", false, "bind 0.0.0.0 instead of 127.0.0.1 (only meaningful with --http)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	a, err := app.Open(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcpserver.New(a)
	if mcpHTTPPort == 0 {
		return srv.ServeStdio(cmd.Context())
	}

	host := "127.0.0.1"
	if mcpPublic {
		host = "0.0.0.0"
	}
	return srv.ServeHTTP(cmd.Context(), fmt.Sprintf("%s:%d", host, mcpHTTPPort))
}
