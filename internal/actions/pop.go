package actions

import (
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
)

// PopOptions contains options for the pop command
type PopOptions struct {
	Count int
	Name  string
	All   bool
}

// PopAction unapplies patches from the top of the stack
func PopAction(ctx *runtime.Context, opts PopOptions) error {
	res, err := ctx.Stack.Pop(ctx.Context, engine.PopOptions{
		Count: opts.Count,
		Name:  opts.Name,
		All:   opts.All,
	})
	if err != nil {
		return err
	}
	reportResult(ctx, res)
	reportPosition(ctx)
	return nil
}
