package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
)

// newPopCmd creates the pop command
func newPopCmd() *cobra.Command {
	var opts actions.PopOptions

	cmd := &cobra.Command{
		Use:   "pop [patch]",
		Short: "Unapply patches from the top of the stack",
		Long: `Unapply patches from the top of the stack.

With a patch name, every applied patch down to and including it is popped.
Without arguments, the top patch is popped. Popped patches keep their
place at the front of the unapplied list.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePatches(engine.ListApplied),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.PopAction(ctx, opts)
			})
		},
	}
	cmd.Flags().IntVarP(&opts.Count, "number", "n", 0, "Pop this many patches")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Pop every applied patch")
	cmd.MarkFlagsMutuallyExclusive("number", "all")
	return cmd
}
