package actions

import (
	"errors"

	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// ReorderOptions contains options for the reorder command
type ReorderOptions struct {
	// Order is the new series, bottom first. The first len(applied) names
	// end up applied. Empty opens the interactive editor.
	Order []string
}

// ReorderAction rearranges the applied and unapplied patches
func ReorderAction(ctx *runtime.Context, opts ReorderOptions) error {
	newOrder := opts.Order
	if len(newOrder) == 0 {
		picked, err := pickOrder(ctx)
		if errors.Is(err, tui.ErrCanceled) {
			ctx.Splog.Info("Reorder canceled")
			return nil
		}
		if err != nil {
			return err
		}
		newOrder = picked
	}

	res, err := ctx.Stack.Reorder(ctx.Context, newOrder)
	if err != nil {
		return handleStackError(ctx, "reorder", res, err)
	}
	if len(res.Steps) == 0 && res.Seq == 0 {
		ctx.Splog.Info("Order unchanged")
		return nil
	}
	reportResult(ctx, res)
	reportPosition(ctx)
	return nil
}

// pickOrder asks for a new order in the reorder TUI, or in the editor
// when not attached to a terminal
func pickOrder(ctx *runtime.Context) ([]string, error) {
	order := ctx.Stack.Order()
	series := order.Series()
	if len(series) == 0 {
		return nil, errors.New("no patches to reorder")
	}
	applied := len(order.Applied())
	if tui.IsTTY() {
		return tui.RunReorderTUI(series, applied)
	}
	return tui.EditOrder(series, applied)
}
