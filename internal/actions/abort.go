package actions

import (
	"fmt"

	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// AbortOptions contains options for the abort command
type AbortOptions struct {
	Force bool
}

// AbortAction discards the paused operation and restores the stack as it
// was before the operation started
func AbortAction(ctx *runtime.Context, opts AbortOptions) error {
	splog := ctx.Splog

	tx := ctx.Stack.Paused()
	if tx == nil {
		return pserrors.ErrNoConflict
	}

	if !opts.Force && tui.IsTTY() {
		confirmed, err := tui.PromptConfirm(
			fmt.Sprintf("Abort the paused %s? Conflict resolutions in the working tree will be lost.", tx.Command), false)
		if err != nil {
			return err
		}
		if !confirmed {
			splog.Info("Abort canceled")
			return nil
		}
	}

	if err := ctx.Stack.Abort(ctx.Context); err != nil {
		return err
	}
	splog.Info("Aborted %s", tx.Command)
	reportPosition(ctx)
	return nil
}
