package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newAbortCmd creates the abort command
func newAbortCmd() *cobra.Command {
	var opts actions.AbortOptions

	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Abandon a paused operation",
		Long: `Abandon a paused operation.

The branch, the working tree and the stack return to the state they had
before the operation started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.AbortAction(ctx, opts)
			})
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Do not ask for confirmation")
	return cmd
}
