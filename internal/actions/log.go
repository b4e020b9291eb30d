package actions

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// LogOptions contains options for the log command
type LogOptions struct {
	// Limit caps the number of entries printed; zero prints all
	Limit int
	// Prune drops old entries instead of printing, keeping the newest Keep
	Prune bool
	Keep  int
	// Yes skips the prune confirmation
	Yes bool
}

// LogAction prints the transaction log of the stack, newest first, or prunes it
func LogAction(ctx *runtime.Context, opts LogOptions) error {
	if opts.Prune {
		return pruneLog(ctx, opts)
	}

	entries, err := ctx.Stack.Log()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.Splog.Info("No transactions recorded.")
		return nil
	}
	slices.Reverse(entries)
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}

	now := time.Now()
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s %s\n",
			tui.ColorYellow(fmt.Sprintf("#%-4d", e.Seq)),
			tui.ColorDim(fmt.Sprintf("%-16s", relativeTime(now, e.Time))),
			describeEntry(e))
		if top := e.After.Order.Applied; len(top) > 0 {
			fmt.Fprintf(&b, "      %s\n", tui.ColorDim("now at "+top[len(top)-1]))
		}
	}
	ctx.Splog.Page(b.String())
	return nil
}

func pruneLog(ctx *runtime.Context, opts LogOptions) error {
	if opts.Keep < 0 {
		return fmt.Errorf("--keep must not be negative")
	}
	if !opts.Yes && tui.IsTTY() {
		confirmed, err := tui.PromptConfirm(
			fmt.Sprintf("Prune the transaction log down to %d entries? Pruned entries cannot be undone.", opts.Keep), false)
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Splog.Info("Prune canceled")
			return nil
		}
	}
	removed, err := ctx.Stack.Prune(ctx.Context, opts.Keep)
	if err != nil {
		return err
	}
	ctx.Splog.Info("Pruned %d log entries", removed)
	return nil
}

// describeEntry renders the command line a log entry was recorded for
func describeEntry(e engine.LogEntry) string {
	if len(e.Args) == 0 {
		return e.Command
	}
	return e.Command + " " + strings.Join(e.Args, " ")
}

// relativeTime renders how long ago t was, at the coarsest useful unit
func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return t.Format("2006-01-02")
	}
}
