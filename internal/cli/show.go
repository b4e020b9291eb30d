package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newShowCmd creates the show command
func newShowCmd() *cobra.Command {
	var opts actions.ShowOptions

	cmd := &cobra.Command{
		Use:               "show [patch]",
		Short:             "Show a patch: its message and its diff",
		Long:              "Show a patch: its message and its diff. Without a name, the top patch is shown.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePatches(allLists...),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			return run(cmd, readAccess, func(ctx *runtime.Context) error {
				return actions.ShowAction(ctx, opts)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Stat, "stat", false, "Only summarize the changed files")
	return cmd
}
