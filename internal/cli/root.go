package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "patchstack",
		Short: "Manage a stack of patches on top of a git branch",
		Long: `patchstack keeps an ordered series of named patches on top of a git branch.

Patches can be pushed and popped, reordered, hidden and renamed. Every
change to the stack runs as a transaction: it either completes, or stops
at a conflict that you resolve and resume, or abort. Every completed
transaction is logged and can be undone.

Set PATCHSTACK_DEMO=1 to try the commands against an in-memory demo repository.`,
		Version:       version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("patchstack %s (commit %s, built %s)\n", version, commit, date))

	flags := rootCmd.PersistentFlags()
	flags.StringP("branch", "b", "", "Operate on the stack of this branch instead of the current one")
	flags.Bool("debug", false, "Print debug output")
	flags.Bool("no-color", false, "Disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupStack, Title: "Stack commands:"},
		&cobra.Group{ID: groupPatch, Title: "Patch commands:"},
		&cobra.Group{ID: groupQuery, Title: "Query commands:"},
		&cobra.Group{ID: groupHistory, Title: "History commands:"},
	)

	add := func(group string, cmds ...*cobra.Command) {
		for _, cmd := range cmds {
			cmd.GroupID = group
			rootCmd.AddCommand(cmd)
		}
	}
	add(groupStack, newInitCmd(), newPushCmd(), newPopCmd(), newReorderCmd(), newResumeCmd(), newAbortCmd())
	add(groupPatch, newNewCmd(), newRefreshCmd(), newHideCmd(), newUnhideCmd(), newDeleteCmd(), newRenameCmd())
	add(groupQuery, newSeriesCmd(), newAppliedCmd(), newUnappliedCmd(), newHiddenCmd(),
		newTopCmd(), newNextCmd(), newShowCmd(), newStatusCmd())
	add(groupHistory, newUndoCmd(), newLogCmd())

	return rootCmd
}

const (
	groupStack   = "stack"
	groupPatch   = "patch"
	groupQuery   = "query"
	groupHistory = "history"
)
