package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	var opts actions.LogOptions

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the transaction log of the stack",
		Long: `Show the transaction log of the stack, newest first.

Each entry is one completed operation and can be passed to undo. With
--prune, old entries are dropped instead, keeping the newest --keep.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := readAccess
			if opts.Prune {
				mode = writeAccess
			}
			return run(cmd, mode, func(ctx *runtime.Context) error {
				return actions.LogAction(ctx, opts)
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&opts.Limit, "number", "n", 0, "Show at most this many entries")
	flags.BoolVar(&opts.Prune, "prune", false, "Drop old log entries")
	flags.IntVar(&opts.Keep, "keep", 0, "Entries to keep when pruning")
	flags.BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
