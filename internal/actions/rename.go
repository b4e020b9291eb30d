package actions

import (
	"patchstack.dev/patchstack/internal/runtime"
)

// RenameOptions contains options for the rename command
type RenameOptions struct {
	// OldName defaults to the top patch
	OldName string
	NewName string
}

// RenameAction gives a patch a new name
func RenameAction(ctx *runtime.Context, opts RenameOptions) error {
	oldName := opts.OldName
	if oldName == "" {
		top, err := ctx.Stack.Top()
		if err != nil {
			return err
		}
		oldName = top
	}
	if _, err := ctx.Stack.Rename(ctx.Context, oldName, opts.NewName); err != nil {
		return err
	}
	ctx.Splog.Info("Renamed %s to %s", oldName, opts.NewName)
	return nil
}
