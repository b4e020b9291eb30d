package actions

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// ShowOptions contains options for the show command
type ShowOptions struct {
	// Name is the patch to show; empty shows the top patch
	Name string
	// Stat limits the diff to a summary of changed files
	Stat bool
}

// commitFileReader is implemented by backends that keep commits as file maps
type commitFileReader interface {
	CommitFiles(id string) (map[string]string, error)
}

// ShowAction prints a patch: its header, message and diff
func ShowAction(ctx *runtime.Context, opts ShowOptions) error {
	name := opts.Name
	if name == "" {
		top, err := ctx.Stack.Top()
		if err != nil {
			return err
		}
		name = top
	}
	patch, err := ctx.Stack.Query(ctx.Context, name)
	if err != nil {
		return err
	}

	ctx.Splog.Page(formatPatchHeader(patch))
	diff, err := patchDiff(ctx, patch, opts.Stat)
	if err != nil {
		return err
	}
	if diff != "" {
		ctx.Splog.Newline()
		ctx.Splog.Page(diff)
	}
	return nil
}

func formatPatchHeader(p engine.Patch) string {
	var b strings.Builder
	state := p.List.String()
	if p.Empty {
		state += ", empty"
	}
	fmt.Fprintf(&b, "%s %s\n", tui.ColorYellow("patch "+p.Name), tui.ColorDim("("+state+")"))
	fmt.Fprintf(&b, "commit %s\n", p.Commit)
	if p.Author.Name != "" {
		fmt.Fprintf(&b, "Author: %s <%s>\n", p.Author.Name, p.Author.Email)
	}
	if !p.Date().IsZero() {
		fmt.Fprintf(&b, "Date:   %s\n", p.Date().Format("Mon Jan 2 15:04:05 2006 -0700"))
	}
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(p.Message, "\n"), "\n") {
		b.WriteString("    " + line + "\n")
	}
	return b.String()
}

// patchDiff renders the change a patch makes relative to its parent
func patchDiff(ctx *runtime.Context, p engine.Patch, stat bool) (string, error) {
	if ctx.Git != nil {
		args := []string{"show", "--format=", "--stat"}
		if !stat {
			args = append(args, "--patch")
		}
		out, err := ctx.Git.Runner().RunRaw(ctx.Context, append(args, p.Commit)...)
		if err != nil {
			return "", fmt.Errorf("failed to show patch %s: %w", p.Name, err)
		}
		return strings.TrimLeft(out, "\n"), nil
	}

	files, ok := ctx.Repo.(commitFileReader)
	if !ok {
		return "", nil
	}
	meta, err := ctx.Repo.ReadCommit(ctx.Context, p.Commit)
	if err != nil {
		return "", err
	}
	after, err := files.CommitFiles(p.Commit)
	if err != nil {
		return "", err
	}
	before := map[string]string{}
	if parent := meta.Parent(); parent != "" {
		if before, err = files.CommitFiles(parent); err != nil {
			return "", err
		}
	}
	return fileChanges(before, after), nil
}

// fileChanges lists added, modified and deleted paths between two file maps
func fileChanges(before, after map[string]string) string {
	paths := slices.Sorted(maps.Keys(after))
	for path := range before {
		if _, ok := after[path]; !ok {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	var b strings.Builder
	for _, path := range paths {
		old, hadOld := before[path]
		content, hasNew := after[path]
		switch {
		case !hadOld:
			b.WriteString(tui.ColorCyan("A") + " " + path + "\n")
		case !hasNew:
			b.WriteString(tui.ColorRed("D") + " " + path + "\n")
		case old != content:
			b.WriteString(tui.ColorYellow("M") + " " + path + "\n")
		}
	}
	return b.String()
}
