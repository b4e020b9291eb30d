package tui

import (
	"fmt"
	"strings"

	"patchstack.dev/patchstack/internal/engine"
)

// Series markers, one per patch line
const (
	MarkApplied   = "+"
	MarkTop       = ">"
	MarkUnapplied = "-"
	MarkHidden    = "!"
)

// SeriesOptions controls RenderSeries
type SeriesOptions struct {
	// Description appends the subject line of each patch
	Description bool
	// Conflicted names the patch a paused transaction stopped on
	Conflicted string
	// NoPrefix drops the markers, leaving bare names
	NoPrefix bool
}

// RenderSeries renders one line per patch in the order given
func RenderSeries(patches []engine.Patch, opts SeriesOptions) string {
	top := ""
	for _, p := range patches {
		if p.List == engine.ListApplied {
			top = p.Name
		}
	}
	width := 0
	for _, p := range patches {
		width = max(width, len(p.Name))
	}

	var b strings.Builder
	for _, p := range patches {
		mark, style := MarkUnapplied, unappliedStyle
		switch {
		case p.List == engine.ListApplied && p.Name == top:
			mark, style = MarkTop, topStyle
		case p.List == engine.ListApplied:
			mark, style = MarkApplied, appliedStyle
		case p.List == engine.ListHidden:
			mark, style = MarkHidden, hiddenStyle
		}

		line := p.Name
		if !opts.NoPrefix {
			line = mark + " " + line
		}
		if opts.Description {
			line = fmt.Sprintf("%-*s  # %s", width+len(line)-len(p.Name), line, p.Subject())
		}
		line = style.Render(line)
		if p.Empty {
			line += " " + ColorDim("(empty)")
		}
		if p.Name == opts.Conflicted {
			line += " " + ColorRed("(conflict)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderConflict describes a paused transaction and how to continue
func RenderConflict(command, patch string, files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s stopped: patch %s does not apply cleanly.\n", command, ColorYellow(patch))
	if len(files) > 0 {
		b.WriteString("Conflicts in:\n")
		for _, f := range files {
			fmt.Fprintf(&b, "  %s\n", ColorRed(f))
		}
	}
	b.WriteString("Resolve the conflicts, then run " + ColorCyan("patchstack resume") +
		", or run " + ColorCyan("patchstack abort") + " to go back.\n")
	return b.String()
}
