package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/fatih/color"
)

var opColors = map[domain.Op]*color.Color{
	domain.OpSet:    color.New(color.FgYellow),
	domain.OpDelete: color.New(color.FgRed),
	domain.OpInsert: color.New(color.FgGreen),
	domain.OpRemove: color.New(color.FgRed, color.Bold),
	domain.OpMove:   color.New(color.FgCyan),
	domain.OpMount:  color.New(color.FgGreen, color.Bold),
}

// FormatPatch renders one patch on a single line, optionally colored by op.
func FormatPatch(p domain.Patch, colored bool) string {
	op := string(p.Op)
	if c, ok := opColors[p.Op]; ok && colored {
		op = c.Sprint(op)
	}
	path := p.Path
	if path == "" {
		path = "."
	}
	switch p.Op {
	case domain.OpMove:
		return fmt.Sprintf("%-6s %s <- %s", op, path, p.From)
	case domain.OpSet:
		return fmt.Sprintf("%-6s %s = %v", op, path, p.Value)
	default:
		return fmt.Sprintf("%-6s %s", op, path)
	}
}

// ReportMarkdown summarizes a pass as markdown: totals, then one section per
// host call with its patches.
func ReportMarkdown(title string, report *domain.PassReport, calls []domain.HostCall) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if report != nil {
		fmt.Fprintf(&sb, "- **mutations**: %d\n- **patches**: %d\n- **host calls**: %d\n",
			report.Mutations, report.Patches, len(report.Calls))
		if len(report.Created) > 0 {
			fmt.Fprintf(&sb, "- **created**: %v\n", report.Created)
		}
		if len(report.Destroyed) > 0 {
			fmt.Fprintf(&sb, "- **destroyed**: %v\n", report.Destroyed)
		}
		if len(report.Stale) > 0 {
			fmt.Fprintf(&sb, "- **stale (dropped)**: %v\n", report.Stale)
		}
		sb.WriteString("\n")
	}
	for _, call := range calls {
		fmt.Fprintf(&sb, "## boundary %d (%d bytes)\n\n```\n", call.BoundaryID, call.PayloadSize())
		for _, p := range call.Patches {
			sb.WriteString(FormatPatch(p, false))
			sb.WriteString("\n")
		}
		sb.WriteString("```\n\n")
	}
	return sb.String()
}
