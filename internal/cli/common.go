package cli

import (
	"errors"
	"slices"

	"github.com/spf13/cobra"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/runtime"
)

// access is how a command uses the stack
type access int

const (
	// writeAccess takes the branch lock and opens the stack
	writeAccess access = iota
	// readAccess opens the stack without the lock, on any branch
	readAccess
	// initAccess takes the branch lock without opening the stack
	initAccess
)

// run opens the runtime context for cmd, runs fn and releases the context.
// A conflict is reported by the action itself, so cobra does not print it again.
func run(cmd *cobra.Command, mode access, fn func(ctx *runtime.Context) error) (err error) {
	opts := runtime.Options{
		Writer:    cmd.OutOrStdout(),
		ReadOnly:  mode == readAccess,
		SkipStack: mode == initAccess,
	}
	flags := cmd.Flags()
	opts.Branch, _ = flags.GetString("branch")
	opts.Debug, _ = flags.GetBool("debug")
	opts.NoColor, _ = flags.GetBool("no-color")

	ctx, err := runtime.Open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ctx.Close())
	}()

	err = fn(ctx)
	var conflict *pserrors.ConflictError
	if errors.As(err, &conflict) {
		cmd.SilenceErrors = true
		cmd.Root().SilenceErrors = true
	}
	return err
}

// completePatches returns a completion function offering the patches of the
// given lists
func completePatches(lists ...engine.ListKind) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		err := run(cmd, readAccess, func(ctx *runtime.Context) error {
			ctx.Splog.SetQuiet(true)
			order := ctx.Stack.Order()
			for _, kind := range lists {
				for _, name := range order.List(kind) {
					if !slices.Contains(args, name) {
						names = append(names, name)
					}
				}
			}
			return nil
		})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

var allLists = []engine.ListKind{engine.ListApplied, engine.ListUnapplied, engine.ListHidden}
