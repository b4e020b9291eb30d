package actions

import (
	"strings"

	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// StatusAction prints the state of the stack and any paused operation
func StatusAction(ctx *runtime.Context) error {
	stack := ctx.Stack
	splog := ctx.Splog
	order := stack.Order()

	splog.Info("On branch %s, based on %s", tui.ColorCyan(stack.Branch()), shortID(stack.Base()))
	splog.Info("%d applied, %d unapplied, %d hidden",
		len(order.Applied()), len(order.Unapplied()), len(order.Hidden()))
	if top := order.Top(); top != "" {
		splog.Info("Top patch: %s", top)
	}

	tx := stack.Paused()
	if stack.Status() == engine.StackClean || tx == nil {
		splog.Info("Status: %s", stack.Status())
		return nil
	}

	splog.Info("Status: %s", tui.ColorRed(stack.Status().String()))
	splog.Newline()
	command := tx.Command
	if len(tx.Args) > 0 {
		command += " " + strings.Join(tx.Args, " ")
	}
	var files []string
	if tx.Conflict != nil {
		files = tx.Conflict.Files
	}
	if ctx.Git != nil {
		if unmerged, err := ctx.Git.ConflictedFiles(ctx.Context); err == nil && len(unmerged) > 0 {
			files = unmerged
		}
	}
	splog.Page(tui.RenderConflict(command, tx.ConflictedPatch(), files))
	return nil
}
