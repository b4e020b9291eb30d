package actions

import (
	"patchstack.dev/patchstack/internal/runtime"
)

// ResumeOptions contains options for the resume command
type ResumeOptions struct{}

// ResumeAction continues the paused operation from the resolved working tree
func ResumeAction(ctx *runtime.Context, _ ResumeOptions) error {
	command := "resume"
	if tx := ctx.Stack.Paused(); tx != nil {
		command = tx.Command
	}
	res, err := ctx.Stack.Resume(ctx.Context)
	if err != nil {
		return handleStackError(ctx, command, res, err)
	}
	ctx.Splog.Info("Resumed %s", command)
	reportResult(ctx, res)
	reportPosition(ctx)
	return nil
}
