package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/scheduler"
)

// ReplayOptions configures the replay command.
type ReplayOptions struct {
	Options
	Path string // multi-document YAML stream, one tree per document
	JSON bool
}

// RunReplay renders every document of a stream in order. In deferred flush
// mode the renders after the first are coalesced into a single pass.
func RunReplay(ctx context.Context, w io.Writer, opts ReplayOptions) error {
	f, err := os.Open(opts.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	docs, err := compiler.NewParser().ParseStream(f)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("%s: no documents", opts.Path)
	}

	host := memory.NewHost()
	// The first document mounts synchronously so the rest has something to update.
	mode := opts.Config.Flush
	opts.Config.Flush = scheduler.FlushSync
	eng, err := createEngine(opts.Options, docs[0].Schema, host)
	if err != nil {
		return err
	}
	first, err := eng.Render(ctx, docs[0].Tree)
	if err != nil {
		return err
	}
	reports := []*domain.PassReport{first}

	if mode == scheduler.FlushDeferred {
		pass, err := eng.Begin(ctx)
		if err != nil {
			return err
		}
		for _, doc := range docs[1:] {
			if err := pass.Render(doc.Tree); err != nil {
				pass.Abort()
				return err
			}
		}
		report, err := pass.Commit(ctx)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	} else {
		for _, doc := range docs[1:] {
			report, err := eng.Render(ctx, doc.Tree)
			if err != nil {
				return err
			}
			reports = append(reports, report)
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	for _, r := range reports {
		fmt.Fprintf(w, "pass %d: %d renders, %d mutations, %d patches, %d calls\n",
			r.PassID, r.Renders, r.Mutations, r.Patches, len(r.Calls))
	}
	printSystemMessage(w, "%d documents, %d passes, %d host calls", len(docs), len(reports), len(host.Calls()))
	return nil
}
