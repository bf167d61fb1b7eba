package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"docsearch/backend/go/internal/rag_service/mcptools"
	"docsearch/backend/go/internal/rag_service/service"
)

var (
	mcpTransport string
	mcpPort      string
)

// STDIO transport (default)
//   docsearch mcp
//
// SSE transport on port 8085
//   docsearch mcp --transport=sse --port=8085
//
// StreamableHTTP transport on port 9000
//   docsearch mcp --transport=httpstream --port=9000
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve search, ask and stats as MCP tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the stdio protocol, so logs go to stderr
		a, err := newApp(cmd.Context(), cfg, os.Stderr, service.Limits{}, true)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		s := mcptools.NewServer(cfg.App.Name, a.svc)
		switch mcpTransport {
		case "sse":
			a.log.Info(fmt.Sprintf("Starting MCP server with SSE transport on port %s", mcpPort))
			return server.NewSSEServer(s).Start(":" + mcpPort)
		case "httpstream":
			a.log.Info(fmt.Sprintf("Starting MCP server with StreamableHTTP transport on port %s", mcpPort))
			return server.NewStreamableHTTPServer(s).Start(":" + mcpPort)
		case "stdio":
			a.log.Info("Starting MCP server with STDIO transport")
			return server.ServeStdio(s)
		default:
			return fmt.Errorf("unknown transport: %s. Use stdio, sse, or httpstream", mcpTransport)
		}
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "transport method: stdio, sse, or httpstream")
	mcpCmd.Flags().StringVar(&mcpPort, "port", "8085", "port for HTTP-based transports (sse, httpstream)")
	rootCmd.AddCommand(mcpCmd)
}
