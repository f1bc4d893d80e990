package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffOptions configures the diff command.
type DiffOptions struct {
	Options
	Prev, Next string // document paths
	Views      bool   // also print a line diff of every changed boundary view
	JSON       bool
}

// diffResult is the JSON form of the diff command.
type diffResult struct {
	Report *domain.PassReport `json:"report"`
	Calls  []domain.HostCall  `json:"calls"`
}

// RunDiff mounts the previous tree, renders the next one and prints the host
// calls the pass delivered.
func RunDiff(ctx context.Context, w io.Writer, opts DiffOptions) error {
	m, err := mount(ctx, opts.Options, opts.Prev)
	if err != nil {
		return fmt.Errorf("mount %s: %w", opts.Prev, err)
	}
	next, err := compiler.NewParser().ParseFile(opts.Next)
	if err != nil {
		return err
	}
	before := m.eng.Views()
	mounted := len(m.host.Calls())

	report, err := m.eng.Render(ctx, next.Tree)
	if err != nil {
		return err
	}
	calls := m.host.Calls()[mounted:]

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(diffResult{Report: report, Calls: calls})
	}
	if err := printMarkdown(w, tui.ReportMarkdown(fmt.Sprintf("%s → %s", opts.Prev, opts.Next), report, calls)); err != nil {
		return err
	}
	if opts.Views {
		out, err := viewDiff(before, m.eng.Views(), isTerminal(w))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	return nil
}

// viewDiff renders a line diff of the indented JSON view of every boundary
// whose view changed.
func viewDiff(before, after map[domain.BoundaryID]map[string]any, colored bool) (string, error) {
	ids := make(map[domain.BoundaryID]struct{}, len(before)+len(after))
	for id := range before {
		ids[id] = struct{}{}
	}
	for id := range after {
		ids[id] = struct{}{}
	}
	sorted := make([]domain.BoundaryID, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	dmp := diffmatchpatch.New()

	var sb strings.Builder
	for _, id := range sorted {
		a, err := indent(before[id])
		if err != nil {
			return "", err
		}
		b, err := indent(after[id])
		if err != nil {
			return "", err
		}
		if a == b {
			continue
		}

		fmt.Fprintf(&sb, "--- boundary %d\n", id)
		ca, cb, lines := dmp.DiffLinesToChars(a, b)
		diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
		for _, d := range diffs {
			prefix, c := "  ", (*color.Color)(nil)
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				prefix, c = "+ ", added
			case diffmatchpatch.DiffDelete:
				prefix, c = "- ", removed
			}
			for _, line := range strings.SplitAfter(d.Text, "\n") {
				if line == "" {
					continue
				}
				line = prefix + strings.TrimSuffix(line, "\n")
				if colored && c != nil {
					line = c.Sprint(line)
				}
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}

func indent(view map[string]any) (string, error) {
	if view == nil {
		return "", nil
	}
	b, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
