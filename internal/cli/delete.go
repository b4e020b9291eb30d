package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	var opts actions.DeleteOptions

	cmd := &cobra.Command{
		Use:   "delete [patch...]",
		Short: "Remove patches from the stack",
		Long: `Remove patches from the stack.

Applied patches are only deleted with --force, and only when they are the
topmost applied patches; they are popped first. Without arguments, the
patches are picked interactively. A delete can be reverted with undo.`,
		ValidArgsFunction: completePatches(allLists...),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Names = args
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.DeleteAction(ctx, opts)
			})
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Allow deleting applied patches")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
