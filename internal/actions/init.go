package actions

import (
	"patchstack.dev/patchstack/internal/config"
	"patchstack.dev/patchstack/internal/runtime"
)

// InitOptions contains options for the init command
type InitOptions struct{}

// InitAction creates the patch stack of the current branch, based on the
// commit the branch points at
func InitAction(ctx *runtime.Context, _ InitOptions) error {
	if ctx.Git != nil {
		if err := config.WriteDefault(ctx.Git.GitDir()); err != nil {
			return err
		}
	}
	stack, err := ctx.InitStack()
	if err != nil {
		return err
	}
	ctx.Splog.Info("Initialized patch stack on %s at %s", stack.Branch(), shortID(stack.Base()))
	return nil
}
