package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newRenameCmd creates the rename command
func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rename [old] <new>",
		Short:             "Rename a patch",
		Long:              "Rename a patch. With a single name, the top patch is renamed.",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completePatches(allLists...),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := actions.RenameOptions{NewName: args[len(args)-1]}
			if len(args) == 2 {
				opts.OldName = args[0]
			}
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.RenameAction(ctx, opts)
			})
		},
	}
}
