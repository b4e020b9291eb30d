package actions

import (
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
)

// PushOptions contains options for the push command
type PushOptions struct {
	// Count is the number of patches to push; zero uses push.default_count
	Count int
	Name  string
	All   bool
	// Force allows pushing a hidden patch named explicitly
	Force bool
}

// PushAction applies unapplied patches on top of the stack
func PushAction(ctx *runtime.Context, opts PushOptions) error {
	count := opts.Count
	if count == 0 && opts.Name == "" && !opts.All {
		count = ctx.Config.PushDefaultCount
	}

	res, err := ctx.Stack.Push(ctx.Context, engine.PushOptions{
		Count: count,
		Name:  opts.Name,
		All:   opts.All,
		Force: opts.Force,
	})
	if err != nil {
		return handleStackError(ctx, "push", res, err)
	}
	reportResult(ctx, res)
	reportPosition(ctx)
	return nil
}
