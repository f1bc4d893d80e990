package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/diff"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DiffArgs are the arguments of the diff_trees tool. Trees are YAML or JSON documents.
type DiffArgs struct {
	Prev      string `json:"prev"`
	Next      string `json:"next"`
	Threshold int    `json:"threshold,omitempty"`
}

// DiffResponse lists the mutations between two trees and the host calls that deliver them.
type DiffResponse struct {
	Mutations []string            `json:"mutations" jsonschema_description:"Mutations in emission order"`
	Calls     []domain.HostCall   `json:"calls" jsonschema_description:"One host update call per touched boundary"`
	Stale     []domain.BoundaryID `json:"stale,omitempty" jsonschema_description:"Boundaries unmounted in the pass"`
}

// PartitionArgs are the arguments of the partition_tree tool.
type PartitionArgs struct {
	Tree      string `json:"tree"`
	Threshold int    `json:"threshold,omitempty"`
}

// PartitionResponse lists the boundaries of a tree and their views.
type PartitionResponse struct {
	Boundaries []domain.Boundary                    `json:"boundaries"`
	Views      map[domain.BoundaryID]map[string]any `json:"views"`
}

// PageArgs are the arguments of the page tools.
type PageArgs struct {
	ID   string `json:"id,omitempty"`
	Tree string `json:"tree,omitempty"`
}

// PageResponse is the result of the page tools.
type PageResponse struct {
	ID       string             `json:"id"`
	Report   *domain.PassReport `json:"report,omitempty"`
	Snapshot *domain.Snapshot   `json:"snapshot,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Server exposes the render pipeline as an MCP server.
type Server struct {
	pages     ports.PageService
	parser    *compiler.Parser
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance. Page tools are registered only
// when pages is not nil.
func NewServer(pages ports.PageService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pages:     pages,
		parser:    compiler.NewParser(),
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
		logger:    logger,
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("diff_trees",
		mcp.WithDescription("Diff two virtual trees and show the patches each update boundary would receive."),
		mcp.WithString("prev", mcp.Required(), mcp.Description("Previous tree (YAML or JSON)")),
		mcp.WithString("next", mcp.Required(), mcp.Description("Next tree (YAML or JSON)")),
		mcp.WithNumber("threshold", mcp.Description("Local depth past which implicit boundaries open (default 16)")),
		mcp.WithOutputSchema[DiffResponse](),
	), mcp.NewStructuredToolHandler(s.handleDiff))

	s.mcpServer.AddTool(mcp.NewTool("partition_tree",
		mcp.WithDescription("Partition a virtual tree into update boundaries."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("Tree (YAML or JSON)")),
		mcp.WithNumber("threshold", mcp.Description("Local depth past which implicit boundaries open (default 16)")),
		mcp.WithOutputSchema[PartitionResponse](),
	), mcp.NewStructuredToolHandler(s.handlePartition))

	if s.pages == nil {
		return
	}
	s.mcpServer.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Mount a tree as a new page."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("Tree (YAML or JSON)")),
		mcp.WithOutputSchema[PageResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreatePage))

	s.mcpServer.AddTool(mcp.NewTool("update_page",
		mcp.WithDescription("Reconcile a page with a new tree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Page ID")),
		mcp.WithString("tree", mcp.Required(), mcp.Description("Tree (YAML or JSON)")),
		mcp.WithOutputSchema[PageResponse](),
	), mcp.NewStructuredToolHandler(s.handleUpdatePage))

	s.mcpServer.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get the committed snapshot of a page."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Page ID")),
		mcp.WithOutputSchema[PageResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetPage))
}

func (s *Server) engine(threshold int, reg schema.Registry) (*arbor.Engine, *memory.Host) {
	host := memory.NewHost()
	opts := []arbor.Option{arbor.WithHost(host), arbor.WithLogger(s.logger), arbor.WithSchema(reg)}
	if threshold > 0 {
		opts = append(opts, arbor.WithThreshold(threshold))
	}
	return arbor.New(opts...), host
}

func (s *Server) handleDiff(ctx context.Context, _ mcp.CallToolRequest, args DiffArgs) (DiffResponse, error) {
	prev, err := s.parser.Parse([]byte(args.Prev))
	if err != nil {
		return DiffResponse{}, fmt.Errorf("prev: %w", err)
	}
	next, err := s.parser.Parse([]byte(args.Next))
	if err != nil {
		return DiffResponse{}, fmt.Errorf("next: %w", err)
	}

	muts, err := diff.New(diff.WithSchema(next.Schema)).Diff(prev.Tree, next.Tree)
	if err != nil {
		return DiffResponse{}, err
	}

	eng, host := s.engine(args.Threshold, next.Schema)
	if _, err := eng.Render(ctx, prev.Tree); err != nil {
		return DiffResponse{}, fmt.Errorf("mount prev: %w", err)
	}
	mounted := len(host.Calls())
	report, err := eng.Render(ctx, next.Tree)
	if err != nil {
		return DiffResponse{}, err
	}

	resp := DiffResponse{
		Mutations: make([]string, len(muts)),
		Calls:     host.Calls()[mounted:],
	}
	for i, m := range muts {
		resp.Mutations[i] = m.String()
	}
	resp.Stale = report.Stale
	return resp, nil
}

func (s *Server) handlePartition(ctx context.Context, _ mcp.CallToolRequest, args PartitionArgs) (PartitionResponse, error) {
	doc, err := s.parser.Parse([]byte(args.Tree))
	if err != nil {
		return PartitionResponse{}, err
	}
	eng, _ := s.engine(args.Threshold, doc.Schema)
	if _, err := eng.Render(ctx, doc.Tree); err != nil {
		return PartitionResponse{}, err
	}
	return PartitionResponse{Boundaries: eng.Boundaries(), Views: eng.Views()}, nil
}

func (s *Server) handleCreatePage(ctx context.Context, _ mcp.CallToolRequest, args PageArgs) (PageResponse, error) {
	tree, err := s.parser.ParseTree([]byte(args.Tree))
	if err != nil {
		return PageResponse{}, err
	}
	id, report, err := s.pages.Create(ctx, tree)
	if id == "" {
		return PageResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return pageResponse(id, report, err), nil
}

func (s *Server) handleUpdatePage(ctx context.Context, _ mcp.CallToolRequest, args PageArgs) (PageResponse, error) {
	tree, err := s.parser.ParseTree([]byte(args.Tree))
	if err != nil {
		return PageResponse{}, err
	}
	report, err := s.pages.Update(ctx, args.ID, tree)
	if report == nil && err != nil {
		return PageResponse{}, fmt.Errorf("update failed: %w", err)
	}
	return pageResponse(args.ID, report, err), nil
}

func (s *Server) handleGetPage(ctx context.Context, _ mcp.CallToolRequest, args PageArgs) (PageResponse, error) {
	snap, err := s.pages.Get(ctx, args.ID)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			return PageResponse{}, fmt.Errorf("page %s not found", args.ID)
		}
		return PageResponse{}, err
	}
	return PageResponse{ID: args.ID, Snapshot: snap}, nil
}

// pageResponse keeps host failures visible without failing the tool call:
// the pass was committed anyway.
func pageResponse(id string, report *domain.PassReport, err error) PageResponse {
	resp := PageResponse{ID: id, Report: report}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
