package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newUndoCmd creates the undo command
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo [seq]",
		Short: "Restore the stack as it was before a logged operation",
		Long: `Restore the stack as it was before a logged operation.

Without arguments the newest entry of 'patchstack log' is undone. The undo
is logged itself, so running undo twice returns to where you started.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts actions.UndoOptions
			if len(args) == 1 {
				seq, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil || seq == 0 {
					return fmt.Errorf("invalid log entry %q: expected a positive number", args[0])
				}
				opts.Seq = seq
			}
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.UndoAction(ctx, opts)
			})
		},
	}
}
