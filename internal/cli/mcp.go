package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aretw0/arbor/pkg/adapters/mcp"
)

// MCPOptions configures the mcp command.
type MCPOptions struct {
	Options
	Transport string // "stdio" or "sse"
	Port      int
}

// RunMCP serves the MCP tools. The page tools work on pages kept by the
// configured backend.
func RunMCP(ctx context.Context, opts MCPOptions) error {
	logger := opts.logger()
	pb, err := newPageBackend(ctx, opts.Options, nil)
	if err != nil {
		return err
	}
	defer pb.Close()

	srv := mcp.NewServer(pb.Pages, logger)
	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting arbor MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting arbor MCP Server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && err != http.ErrServerClosed {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
