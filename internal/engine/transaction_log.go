package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// TransactionLog opens, pauses, commits and aborts transactions, and keeps
// the append-only history used by undo.
type TransactionLog struct {
	repo   RepositoryAdapter
	store  StateStore
	logger *slog.Logger
	now    func() time.Time
}

// NewTransactionLog creates a TransactionLog
func NewTransactionLog(repo RepositoryAdapter, store StateStore, logger *slog.Logger) *TransactionLog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TransactionLog{repo: repo, store: store, logger: logger, now: time.Now}
}

// StateRef names the persisted stack state of a branch in RefMovedError values
func StateRef(branch string) string {
	return "state:" + branch
}

// Begin snapshots state and opens a transaction targeting the same order
func (l *TransactionLog) Begin(state *StackState, command string, args []string) *Transaction {
	snap := snapshotOf(state)
	patches := maps.Clone(state.Patches)
	if patches == nil {
		patches = map[string]PatchRecord{}
	}
	tx := &Transaction{
		ID:        uuid.NewString(),
		Branch:    state.Branch,
		Command:   command,
		Args:      slices.Clone(args),
		StartedAt: l.now(),
		Status:    TxActive,
		Prior:     snap,
		Base:      state.Base,
		Target:    cloneRecord(state.Order),
		Patches:   patches,
		Applied:   slices.Clone(state.Order.Applied),
		Top:       snap.Head,
		Worktree:  snap.Head,
	}
	l.logger.Debug("transaction started", "branch", tx.Branch, "tx", tx.ID, "command", command)
	return tx
}

// RecordStep appends an executed step to tx and advances its working state
func (l *TransactionLog) RecordStep(tx *Transaction, step Step, res Resolution) error {
	switch step.Action {
	case StepPop:
		if len(tx.Applied) == 0 || tx.Applied[len(tx.Applied)-1] != step.Patch {
			return fmt.Errorf("cannot pop %s: it is not the top of the working stack", step.Patch)
		}
		tx.Applied = tx.Applied[:len(tx.Applied)-1]
		tx.Top = tx.headOf(tx.Applied)
		res.Commit = tx.Patches[step.Patch].Commit
	case StepPush, StepNew:
		tx.Stage(step.Patch, PatchRecord{Commit: res.Commit, Empty: res.Outcome == ApplyEmpty})
		tx.Applied = append(tx.Applied, step.Patch)
		tx.Top = res.Commit
	case StepRefresh:
		if len(tx.Applied) == 0 || tx.Applied[len(tx.Applied)-1] != step.Patch {
			return fmt.Errorf("cannot refresh %s: it is not the top of the working stack", step.Patch)
		}
		tx.Stage(step.Patch, PatchRecord{Commit: res.Commit, Empty: res.Outcome == ApplyEmpty})
		tx.Top = res.Commit
	default:
		return fmt.Errorf("unknown step action %q", step.Action)
	}

	if next, ok := tx.Next(); ok && next == step {
		tx.Pending = tx.Pending[1:]
	}
	tx.Done = append(tx.Done, StepRecord{Step: step, Outcome: res.Outcome, Commit: res.Commit})
	l.logger.Debug("step recorded", "branch", tx.Branch, "tx", tx.ID, "step", step.String(), "outcome", res.Outcome.String())
	return nil
}

// Commit makes the staged state of tx visible. The working tree is moved to
// the new top first; the branch reference compare-and-swap is the
// linearisation point. If the swap or the state write fails, the reference
// and the working tree are moved back.
func (l *TransactionLog) Commit(ctx context.Context, tx *Transaction) (*StackState, *LogEntry, error) {
	target, err := tx.TargetOrder()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid target order: %w", err)
	}
	if len(tx.Pending) > 0 {
		return nil, nil, fmt.Errorf("transaction %s still has %d pending steps", tx.ID, len(tx.Pending))
	}
	if !slices.Equal(tx.Applied, target.applied) {
		return nil, nil, fmt.Errorf("transaction %s reached applied %v but targets %v", tx.ID, tx.Applied, target.applied)
	}
	for _, name := range target.Names() {
		if _, ok := tx.Patches[name]; !ok {
			return nil, nil, fmt.Errorf("transaction %s has no commit for patch %s", tx.ID, name)
		}
	}
	if head := tx.headOf(tx.Applied); head != tx.Top {
		return nil, nil, fmt.Errorf("transaction %s top %s does not match applied head %s", tx.ID, tx.Top, head)
	}
	for name := range tx.Patches {
		if !target.Contains(name) {
			tx.Drop(name)
		}
	}

	current, err := l.store.LoadStack(tx.Branch)
	if err != nil {
		return nil, nil, err
	}
	if current.Version != tx.Prior.Version {
		return nil, nil, pserrors.NewRefMovedError(StateRef(tx.Branch),
			strconv.FormatUint(tx.Prior.Version, 10), strconv.FormatUint(current.Version, 10))
	}

	// The working tree moves before the reference, so a refused checkout
	// leaves nothing committed.
	from := tx.Worktree
	if from != tx.Top {
		if err := l.repo.CheckoutTree(ctx, from, tx.Top); err != nil {
			return nil, nil, fmt.Errorf("failed to check out the working tree: %w", err)
		}
		tx.Worktree = tx.Top
	}
	rollback := func(err error) error {
		if rerr := l.restoreWorktree(context.WithoutCancel(ctx), tx, from); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}

	ref := BranchRef(tx.Branch)
	if tx.Top != tx.Prior.Head {
		if err := l.repo.UpdateRef(ctx, ref, tx.Prior.Head, tx.Top); err != nil {
			return nil, nil, rollback(err)
		}
	} else {
		actual, err := l.repo.ReadRef(ctx, ref)
		if err != nil {
			return nil, nil, rollback(err)
		}
		if actual != tx.Prior.Head {
			return nil, nil, rollback(pserrors.NewRefMovedError(ref, tx.Prior.Head, actual))
		}
	}

	next := &StackState{
		Branch:  tx.Branch,
		Base:    tx.Base,
		Version: tx.Prior.Version + 1,
		Order:   target.Record(),
		Patches: maps.Clone(tx.Patches),
	}
	if err := l.store.SaveStack(next, tx.Prior.Version); err != nil {
		if tx.Top != tx.Prior.Head {
			if rerr := l.repo.UpdateRef(context.WithoutCancel(ctx), ref, tx.Top, tx.Prior.Head); rerr != nil {
				l.logger.Error("failed to restore branch reference", "branch", tx.Branch, "tx", tx.ID, "error", rerr)
			}
		}
		return nil, nil, rollback(err)
	}

	l.updatePins(ctx, tx)
	tx.Status = TxCommitted

	if tx.Paused {
		if err := l.store.ClearTransaction(tx.Branch); err != nil {
			return next, nil, fmt.Errorf("failed to clear paused transaction: %w", err)
		}
	}

	entry := &LogEntry{
		Transaction: tx.ID,
		Command:     tx.Command,
		Args:        slices.Clone(tx.Args),
		Time:        l.now(),
		Before:      tx.Prior,
		After:       snapshotOf(next),
		Steps:       slices.Clone(tx.Done),
	}
	seq, err := l.store.AppendLog(tx.Branch, entry)
	if err != nil {
		l.logger.Warn("failed to append transaction log entry", "branch", tx.Branch, "tx", tx.ID, "error", err)
	} else {
		entry.Seq = seq
	}

	l.logger.Debug("transaction committed", "branch", tx.Branch, "tx", tx.ID, "seq", entry.Seq, "head", tx.Top)
	return next, entry, nil
}

// restoreWorktree moves the working tree of tx back to tree after a failed commit
func (l *TransactionLog) restoreWorktree(ctx context.Context, tx *Transaction, tree string) error {
	if tx.Worktree == tree {
		return nil
	}
	if err := l.repo.CheckoutTree(ctx, tx.Worktree, tree); err != nil {
		return fmt.Errorf("failed to restore working tree: %w", err)
	}
	tx.Worktree = tree
	return nil
}

// Pause persists tx as conflicted and materialises the conflict markers in
// the working tree.
func (l *TransactionLog) Pause(ctx context.Context, tx *Transaction, reason string, markers *MarkerState) error {
	tx.Status = TxConflicted
	tx.Paused = true
	tx.Reason = reason
	tx.Conflict = markers
	if markers != nil && markers.Tree != "" && markers.Tree != tx.Worktree {
		if err := l.repo.CheckoutTree(ctx, tx.Worktree, markers.Tree); err != nil {
			return fmt.Errorf("failed to check out conflict markers: %w", err)
		}
		tx.Worktree = markers.Tree
	}
	if err := l.store.SaveTransaction(tx); err != nil {
		return fmt.Errorf("failed to save paused transaction: %w", err)
	}
	l.logger.Debug("transaction paused", "branch", tx.Branch, "tx", tx.ID, "patch", tx.ConflictedPatch(), "reason", reason)
	return nil
}

// Resume loads the paused transaction of branch
func (l *TransactionLog) Resume(branch string) (*Transaction, error) {
	tx, err := l.store.LoadTransaction(branch)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, pserrors.ErrNoConflict
	}
	return tx, nil
}

// Abort discards the staged state of tx and restores the working tree to
// the reference value recorded at Begin.
func (l *TransactionLog) Abort(ctx context.Context, tx *Transaction) error {
	if tx.Worktree != tx.Prior.Head {
		if err := l.repo.ResetWorkingTree(ctx, tx.Prior.Head); err != nil {
			return fmt.Errorf("failed to restore working tree: %w", err)
		}
		tx.Worktree = tx.Prior.Head
	}
	if tx.Paused {
		if err := l.store.ClearTransaction(tx.Branch); err != nil {
			return fmt.Errorf("failed to clear paused transaction: %w", err)
		}
	}
	tx.Status = TxAborted
	l.logger.Debug("transaction aborted", "branch", tx.Branch, "tx", tx.ID)
	return nil
}

// Entries returns the committed history of branch, oldest first
func (l *TransactionLog) Entries(branch string) ([]LogEntry, error) {
	return l.store.ListLog(branch)
}

// Entry returns one committed history entry; zero selects the newest
func (l *TransactionLog) Entry(branch string, seq uint64) (*LogEntry, error) {
	return l.store.ReadLog(branch, seq)
}

// Prune keeps the newest keep entries of the history and releases the log
// pins of commits that no remaining entry or the patch table refers to.
func (l *TransactionLog) Prune(ctx context.Context, branch string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	entries, err := l.store.ListLog(branch)
	if err != nil {
		return 0, err
	}
	removed, err := l.store.PruneLog(branch, keep)
	if err != nil || removed == 0 {
		return removed, err
	}

	live := map[string]struct{}{}
	if current, err := l.store.LoadStack(branch); err == nil {
		addCommits(live, current.Patches)
	}
	for _, entry := range entries[min(removed, len(entries)):] {
		addCommits(live, entry.Before.Patches)
		addCommits(live, entry.After.Patches)
	}
	dropped := map[string]struct{}{}
	for _, entry := range entries[:min(removed, len(entries))] {
		addCommits(dropped, entry.Before.Patches)
		addCommits(dropped, entry.After.Patches)
	}
	for _, id := range slices.Sorted(maps.Keys(dropped)) {
		if _, ok := live[id]; ok {
			continue
		}
		l.releaseCommit(ctx, branch, id)
	}
	return removed, nil
}

func addCommits(set map[string]struct{}, patches map[string]PatchRecord) {
	for _, rec := range patches {
		if rec.Commit != "" {
			set[rec.Commit] = struct{}{}
		}
	}
}

// keepCommit pins a commit that is leaving the patch table so undo can
// still reach it
func (l *TransactionLog) keepCommit(ctx context.Context, branch, id string) {
	ref := LogPinRef(branch, id)
	current, err := l.repo.ReadRef(ctx, ref)
	if err == nil && current == id {
		return
	}
	if err == nil {
		err = l.repo.UpdateRef(ctx, ref, current, id)
	}
	if err != nil {
		l.logger.Warn("failed to pin replaced commit", "branch", branch, "commit", id, "error", err)
	}
}

func (l *TransactionLog) releaseCommit(ctx context.Context, branch, id string) {
	ref := LogPinRef(branch, id)
	current, err := l.repo.ReadRef(ctx, ref)
	if err == nil && current == "" {
		return
	}
	if err == nil {
		err = l.repo.UpdateRef(ctx, ref, current, "")
	}
	if err != nil {
		l.logger.Warn("failed to release log pin", "branch", branch, "commit", id, "error", err)
	}
}

// updatePins moves the per-patch references so every patch commit in the
// table stays reachable, including unapplied and hidden ones. Commits that
// leave the table are handed to a log pin until the log is pruned.
func (l *TransactionLog) updatePins(ctx context.Context, tx *Transaction) {
	names := make(map[string]struct{}, len(tx.Patches)+len(tx.Prior.Patches))
	for name := range tx.Patches {
		names[name] = struct{}{}
	}
	for name := range tx.Prior.Patches {
		names[name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		from := tx.Prior.Patches[name].Commit
		to := tx.Patches[name].Commit
		if from == to {
			continue
		}
		if from != "" {
			l.keepCommit(ctx, tx.Branch, from)
		}
		if err := l.repo.UpdateRef(ctx, PatchRef(tx.Branch, name), from, to); err != nil {
			l.logger.Warn("failed to update patch reference", "branch", tx.Branch, "patch", name, "error", err)
		}
	}
}
