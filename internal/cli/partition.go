package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/scheduler"
)

// PartitionOptions configures the partition command.
type PartitionOptions struct {
	Options
	Path  string
	Views bool // include the host view of every boundary in JSON output
	JSON  bool
}

type partitionResult struct {
	Boundaries []domain.Boundary                    `json:"boundaries"`
	Views      map[domain.BoundaryID]map[string]any `json:"views,omitempty"`
}

// mount renders the document at path once on a fresh in-memory host.
func mount(ctx context.Context, opts Options, path string) (*mounted, error) {
	doc, err := compiler.NewParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	host := memory.NewHost()
	opts.Config.Flush = scheduler.FlushSync
	eng, err := createEngine(opts, doc.Schema, host)
	if err != nil {
		return nil, err
	}
	report, err := eng.Render(ctx, doc.Tree)
	if err != nil {
		return nil, err
	}
	return &mounted{doc: doc, eng: eng, host: host, report: report}, nil
}

type mounted struct {
	doc    *compiler.Document
	eng    *arbor.Engine
	host   *memory.Host
	report *domain.PassReport
}

// RunPartition prints the boundaries a document is partitioned into.
func RunPartition(ctx context.Context, w io.Writer, opts PartitionOptions) error {
	m, err := mount(ctx, opts.Options, opts.Path)
	if err != nil {
		return err
	}

	if opts.JSON {
		res := partitionResult{Boundaries: m.eng.Boundaries()}
		if opts.Views {
			res.Views = m.eng.Views()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPARENT\tCAUSE\tDEPTH\tKIND\tROOT")
	for _, b := range m.eng.Boundaries() {
		parent := "-"
		if b.ID != domain.PageBoundary {
			parent = fmt.Sprint(b.ParentID)
		}
		root := b.Root.String()
		if root == "" {
			root = "."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", b.ID, parent, b.Cause, b.Depth, b.RootKind, root)
	}
	return tw.Flush()
}
