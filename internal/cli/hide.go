package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
)

// newHideCmd creates the hide command
func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "hide <patch>...",
		Short:             "Hide unapplied patches from series and push",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completePatches(engine.ListUnapplied),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.HideAction(ctx, actions.HideOptions{Names: args})
			})
		},
	}
}

// newUnhideCmd creates the unhide command
func newUnhideCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "unhide <patch>...",
		Short:             "Move hidden patches back to the end of the unapplied list",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completePatches(engine.ListHidden),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.UnhideAction(ctx, actions.HideOptions{Names: args})
			})
		},
	}
}
