package actions

import (
	"strings"

	"patchstack.dev/patchstack/internal/runtime"
)

// HideOptions contains options for the hide and unhide commands
type HideOptions struct {
	Names []string
}

// HideAction moves unapplied patches to the hidden list
func HideAction(ctx *runtime.Context, opts HideOptions) error {
	if err := requireNames("hide", opts.Names); err != nil {
		return err
	}
	if _, err := ctx.Stack.Hide(ctx.Context, opts.Names); err != nil {
		return err
	}
	ctx.Splog.Info("Hid %s", strings.Join(opts.Names, ", "))
	return nil
}

// UnhideAction moves hidden patches back to the end of the unapplied list
func UnhideAction(ctx *runtime.Context, opts HideOptions) error {
	if err := requireNames("unhide", opts.Names); err != nil {
		return err
	}
	if _, err := ctx.Stack.Unhide(ctx.Context, opts.Names); err != nil {
		return err
	}
	ctx.Splog.Info("Unhid %s", strings.Join(opts.Names, ", "))
	return nil
}
