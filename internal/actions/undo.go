package actions

import (
	"fmt"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/runtime"
)

// UndoOptions contains options for the undo command
type UndoOptions struct {
	// Seq is the log entry to undo; zero undoes the newest one
	Seq uint64
}

// UndoAction restores the stack as it was before a logged transaction
func UndoAction(ctx *runtime.Context, opts UndoOptions) error {
	entries, err := ctx.Stack.Log()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.Splog.Info("No undo history available.")
		return nil
	}
	target, err := findLogEntry(entries, opts.Seq)
	if err != nil {
		return err
	}

	res, err := ctx.Stack.UndoTo(ctx.Context, target.Seq)
	if err != nil {
		return err
	}
	ctx.Splog.Info("Undid %s (#%d)", describeEntry(target), target.Seq)
	if res.Seq != 0 {
		ctx.Splog.Debug("recorded as #%d", res.Seq)
	}
	reportPosition(ctx)
	return nil
}

func findLogEntry(entries []engine.LogEntry, seq uint64) (engine.LogEntry, error) {
	if seq == 0 {
		return entries[len(entries)-1], nil
	}
	for _, e := range entries {
		if e.Seq == seq {
			return e, nil
		}
	}
	return engine.LogEntry{}, fmt.Errorf("log entry #%d: %w", seq, pserrors.ErrNoLogEntry)
}
