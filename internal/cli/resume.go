package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newResumeCmd creates the resume command
func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resume",
		Aliases: []string{"continue"},
		Short:   "Continue a paused operation after resolving its conflict",
		Long: `Continue a paused operation after resolving its conflict.

Edit the conflicted files until no conflict markers remain, then run
resume. The resolved working tree becomes the content of the conflicted
patch and the remaining steps of the operation run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.ResumeAction(ctx, actions.ResumeOptions{})
			})
		},
	}
}
