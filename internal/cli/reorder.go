package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
)

// newReorderCmd creates the reorder command
func newReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder [patch...]",
		Short: "Rearrange the applied and unapplied patches",
		Long: `Rearrange the applied and unapplied patches.

Name every applied and unapplied patch in the new order, bottom first. As
many patches as are applied now end up applied. Without arguments, the
order is edited interactively in a terminal, or in $EDITOR otherwise.

Only the patches above the first changed position are popped and pushed
again. A conflict pauses the reorder like a push.`,
		ValidArgsFunction: completePatches(engine.ListApplied, engine.ListUnapplied),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.ReorderAction(ctx, actions.ReorderOptions{Order: args})
			})
		},
	}
}
