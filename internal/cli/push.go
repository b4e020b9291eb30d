package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
)

// newPushCmd creates the push command
func newPushCmd() *cobra.Command {
	var opts actions.PushOptions

	cmd := &cobra.Command{
		Use:   "push [patch]",
		Short: "Apply unapplied patches on top of the stack",
		Long: `Apply unapplied patches on top of the stack.

With a patch name, every unapplied patch up to and including it is pushed.
Without arguments, push.default_count patches are pushed (one by default).

If a patch does not apply cleanly, push stops with conflict markers in the
working tree. Resolve them and run 'patchstack resume', or run
'patchstack abort' to return to where push started.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePatches(engine.ListUnapplied, engine.ListHidden),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.PushAction(ctx, opts)
			})
		},
	}
	cmd.Flags().IntVarP(&opts.Count, "number", "n", 0, "Push this many patches")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Push every unapplied patch")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Allow pushing a hidden patch named explicitly")
	cmd.MarkFlagsMutuallyExclusive("number", "all")
	return cmd
}
