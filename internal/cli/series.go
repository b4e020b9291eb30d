package cli

import (
	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
)

// newSeriesCmd creates the series command
func newSeriesCmd() *cobra.Command {
	var (
		opts                       actions.SeriesOptions
		applied, unapplied, hidden bool
	)

	cmd := &cobra.Command{
		Use:     "series",
		Aliases: []string{"list"},
		Short:   "List the patches of the stack",
		Long: `List the patches of the stack, bottom first.

Applied patches are marked '+', the top patch '>', unapplied patches '-'
and hidden patches '!'. Hidden patches are only listed with --all or
--hidden.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if applied {
				opts.Lists = append(opts.Lists, engine.ListApplied)
			}
			if unapplied {
				opts.Lists = append(opts.Lists, engine.ListUnapplied)
			}
			if hidden {
				opts.Lists = append(opts.Lists, engine.ListHidden)
			}
			return runSeries(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&opts.All, "all", "a", false, "Include hidden patches")
	flags.BoolVarP(&applied, "applied", "A", false, "List applied patches")
	flags.BoolVarP(&unapplied, "unapplied", "U", false, "List unapplied patches")
	flags.BoolVarP(&hidden, "hidden", "H", false, "List hidden patches")
	flags.BoolVarP(&opts.Description, "description", "d", false, "Show the subject line of each patch")
	flags.BoolVar(&opts.NoPrefix, "no-prefix", false, "Do not show the patch markers")
	return cmd
}

// newListCmd builds one of the applied, unapplied and hidden commands,
// which print bare patch names of a single list
func newListCmd(kind engine.ListKind, short string) *cobra.Command {
	opts := actions.SeriesOptions{Lists: []engine.ListKind{kind}, NoPrefix: true}

	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeries(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Description, "description", "d", false, "Show the subject line of each patch")
	return cmd
}

func newAppliedCmd() *cobra.Command {
	return newListCmd(engine.ListApplied, "List the applied patches")
}

func newUnappliedCmd() *cobra.Command {
	return newListCmd(engine.ListUnapplied, "List the unapplied patches")
}

func newHiddenCmd() *cobra.Command {
	return newListCmd(engine.ListHidden, "List the hidden patches")
}

func runSeries(cmd *cobra.Command, opts actions.SeriesOptions) error {
	return run(cmd, readAccess, func(ctx *runtime.Context) error {
		return actions.SeriesAction(ctx, opts)
	})
}
