package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
)

// newTopCmd creates the top command
func newTopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Print the name of the topmost applied patch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, readAccess, actions.TopAction)
		},
	}
}

// newNextCmd creates the next command
func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Print the name of the next patch to be pushed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, readAccess, actions.NextAction)
		},
	}
}
