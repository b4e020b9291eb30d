package actions

import (
	"patchstack.dev/patchstack/internal/runtime"
)

// TopAction prints the name of the topmost applied patch
func TopAction(ctx *runtime.Context) error {
	name, err := ctx.Stack.Top()
	if err != nil {
		return err
	}
	ctx.Splog.Info("%s", name)
	return nil
}

// NextAction prints the name of the patch the next push would apply
func NextAction(ctx *runtime.Context) error {
	name, err := ctx.Stack.Next()
	if err != nil {
		return err
	}
	ctx.Splog.Info("%s", name)
	return nil
}
