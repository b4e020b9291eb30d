package actions

import (
	"slices"

	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// SeriesOptions contains options for the series, applied, unapplied and
// hidden commands
type SeriesOptions struct {
	// Lists selects the sequences to print; empty means applied and unapplied
	Lists []engine.ListKind
	// All adds the hidden patches to the default selection
	All         bool
	Description bool
	NoPrefix    bool
}

// SeriesAction prints the patches of the stack, bottom first
func SeriesAction(ctx *runtime.Context, opts SeriesOptions) error {
	lists := opts.Lists
	if len(lists) == 0 {
		lists = []engine.ListKind{engine.ListApplied, engine.ListUnapplied}
		if opts.All {
			lists = append(lists, engine.ListHidden)
		}
	}

	patches, err := ctx.Stack.Series(ctx.Context)
	if err != nil {
		return err
	}
	patches = slices.DeleteFunc(patches, func(p engine.Patch) bool {
		return !slices.Contains(lists, p.List)
	})
	if len(patches) == 0 {
		return nil
	}

	conflicted := ""
	if tx := ctx.Stack.Paused(); tx != nil {
		conflicted = tx.ConflictedPatch()
	}
	ctx.Splog.Page(tui.RenderSeries(patches, tui.SeriesOptions{
		Description: opts.Description,
		Conflicted:  conflicted,
		NoPrefix:    opts.NoPrefix,
	}))
	return nil
}
