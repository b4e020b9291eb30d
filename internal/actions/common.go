package actions

import (
	"errors"
	"fmt"
	"strings"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// reportResult prints what a committed or paused operation did to the stack
func reportResult(ctx *runtime.Context, res *engine.Result) {
	if res == nil {
		return
	}
	splog := ctx.Splog
	if popped := res.Popped(); len(popped) > 0 {
		splog.Info("Popped %s", strings.Join(popped, ", "))
	}
	if pushed := res.Pushed(); len(pushed) > 0 {
		splog.Info("Pushed %s", strings.Join(pushed, ", "))
	}
	for _, name := range res.EmptyPatches() {
		splog.Warn("patch %s is now empty", name)
	}
}

// reportPosition prints the top patch of the stack
func reportPosition(ctx *runtime.Context) {
	if top := ctx.Stack.Order().Top(); top != "" {
		ctx.Splog.Info("Now at patch %s", tui.ColorCyan(top))
		return
	}
	ctx.Splog.Info("No patches applied")
}

// handleStackError reports a paused transaction and passes err through
func handleStackError(ctx *runtime.Context, command string, res *engine.Result, err error) error {
	var conflict *pserrors.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	reportResult(ctx, res)
	files := conflict.Files
	if len(files) == 0 && ctx.Git != nil {
		if unmerged, ferr := ctx.Git.ConflictedFiles(ctx.Context); ferr == nil {
			files = unmerged
		}
	}
	ctx.Splog.Page(tui.RenderConflict(command, conflict.Patch, files))
	return err
}

// shortID abbreviates a commit id for display
func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// requireNames fails when a command that needs patch names got none
func requireNames(command string, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%s: at least one patch name is required", command)
	}
	return nil
}
