package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newNewCmd creates the new command
func newNewCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Record the working-tree changes as a new patch",
		Long: `Record the working-tree changes as a new patch on top of the stack.

Without a name, the name is derived from the message, or asked for when
running in a terminal. Without a message, the name is used as the message.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := actions.NewOptions{Message: message}
			if len(args) == 1 {
				opts.Name = args[0]
			}
			return run(cmd, writeAccess, func(ctx *runtime.Context) error {
				return actions.NewAction(ctx, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message of the patch commit")
	return cmd
}
