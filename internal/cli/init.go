package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/runtime"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Start a patch stack on the current branch",
		Long: `Start a patch stack on the current branch.

The commit the branch points at becomes the base of the stack. Patches
created afterwards are stacked on top of it. init also writes a default
config file to .git/patchstack/config.yaml if none exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, initAccess, func(ctx *runtime.Context) error {
				return actions.InitAction(ctx, actions.InitOptions{})
			})
		},
	}
}
