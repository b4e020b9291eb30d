package actions

import (
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// RefreshOptions contains options for the refresh command
type RefreshOptions struct{}

// RefreshAction folds the working-tree changes into the top patch
func RefreshAction(ctx *runtime.Context, _ RefreshOptions) error {
	res, err := ctx.Stack.Refresh(ctx.Context)
	if err != nil {
		return err
	}
	top := ctx.Stack.Order().Top()
	ctx.Splog.Info("Refreshed patch %s", tui.ColorCyan(top))
	for _, step := range res.Steps {
		if step.Outcome == engine.ApplyEmpty {
			ctx.Splog.Warn("patch %s is now empty", step.Patch)
		}
	}
	return nil
}
