package actions

import (
	"fmt"
	"strings"

	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// DeleteOptions contains options for the delete command
type DeleteOptions struct {
	Names []string
	// Force allows deleting applied patches from the top of the stack
	Force bool
	// Yes skips the confirmation prompt
	Yes bool
}

// DeleteAction removes patches from the stack. Their commits stay in the
// transaction log until it is pruned, so undo can bring them back.
func DeleteAction(ctx *runtime.Context, opts DeleteOptions) error {
	splog := ctx.Splog
	names := opts.Names
	interactive := tui.IsTTY()

	if len(names) == 0 {
		if !interactive {
			return requireNames("delete", names)
		}
		picked, err := tui.PromptPatches("Patches to delete:", ctx.Stack.Order().Names())
		if err != nil {
			return err
		}
		if len(picked) == 0 {
			splog.Info("Nothing selected")
			return nil
		}
		names = picked
	}

	if !opts.Yes && interactive {
		confirmed, err := tui.PromptConfirm(fmt.Sprintf("Delete %s?", strings.Join(names, ", ")), false)
		if err != nil {
			return err
		}
		if !confirmed {
			splog.Info("Delete canceled")
			return nil
		}
	}

	res, err := ctx.Stack.Delete(ctx.Context, names, opts.Force)
	if err != nil {
		return err
	}
	reportResult(ctx, res)
	splog.Info("Deleted %s", strings.Join(names, ", "))
	splog.Tip("run %s to bring them back", tui.ColorCyan("patchstack undo"))
	return nil
}
