package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// Push applies unapplied patches on top of the stack. On the first conflict
// the transaction is paused, the stack becomes Conflicted and a
// *errors.ConflictError is returned together with the steps done so far.
func (s *Stack) Push(ctx context.Context, opts PushOptions) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx, false); err != nil {
		return nil, err
	}
	p, err := planPush(s.order(), opts)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, p, "push", pushArgs(opts))
}

// Pop unapplies patches from the top of the stack, moving them to the front
// of the unapplied list in their original order.
func (s *Stack) Pop(ctx context.Context, opts PopOptions) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx, false); err != nil {
		return nil, err
	}
	p, err := planPop(s.order(), opts)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, p, "pop", popArgs(opts))
}

// Reorder rearranges applied and unapplied patches. newOrder must be a
// permutation of the series; its first len(applied) names end up applied.
func (s *Stack) Reorder(ctx context.Context, newOrder []string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx, false); err != nil {
		return nil, err
	}
	order := s.order()
	p, err := planReorder(order, newOrder)
	if err != nil {
		return nil, err
	}
	if p.empty() && p.target.Equal(order) {
		return &Result{Order: order}, nil
	}
	return s.execute(ctx, p, "reorder", newOrder)
}

// Resume completes the conflicted step of the paused transaction from the
// resolved working tree and continues with the remaining steps.
func (s *Stack) Resume(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused == nil {
		return nil, pserrors.ErrNoConflict
	}
	tx, err := s.txlog.Resume(s.branch)
	if err != nil {
		return nil, err
	}
	status, err := s.repo.WorkingTreeStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status == WorkingTreeConflicted {
		return nil, pserrors.ErrConflictMarkers
	}
	step, ok := tx.Next()
	if !ok || step.Action != StepPush {
		return nil, fmt.Errorf("paused transaction %s has no conflicted push to complete", tx.ID)
	}

	tree, err := s.repo.SnapshotWorkingTree(ctx)
	if err != nil {
		return nil, err
	}
	tx.Worktree = tree
	res, err := s.resolver.Complete(ctx, tx.Top, tx.Patches[step.Patch].Commit, tree)
	if err != nil {
		return nil, err
	}
	tx.Status = TxActive
	tx.Conflict = nil
	tx.Reason = ""
	if err := s.txlog.RecordStep(tx, step, res); err != nil {
		return nil, err
	}
	s.logger.Debug("conflict resolved", "branch", s.branch, "tx", tx.ID, "patch", step.Patch)
	return s.run(ctx, tx)
}

// Abort discards the paused transaction and restores the working tree
func (s *Stack) Abort(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused == nil {
		return pserrors.ErrNoConflict
	}
	tx, err := s.txlog.Resume(s.branch)
	if err != nil {
		return err
	}
	if err := s.txlog.Abort(ctx, tx); err != nil {
		return err
	}
	s.paused = nil
	return nil
}

// execute opens a transaction for p and runs it
func (s *Stack) execute(ctx context.Context, p plan, command string, args []string) (*Result, error) {
	tx := s.txlog.Begin(s.state, command, args)
	tx.SetTarget(p.target)
	tx.Pending = append(tx.Pending, p.steps...)
	return s.run(ctx, tx)
}

// run executes the pending steps of tx and commits it
func (s *Stack) run(ctx context.Context, tx *Transaction) (*Result, error) {
	for {
		step, ok := tx.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, s.fail(ctx, tx, err)
		}

		switch step.Action {
		case StepPop:
			if err := s.txlog.RecordStep(tx, step, Resolution{Outcome: ApplyClean}); err != nil {
				return nil, s.fail(ctx, tx, err)
			}
		case StepPush:
			rec, ok := tx.Patches[step.Patch]
			if !ok {
				return nil, s.fail(ctx, tx, pserrors.NewUnknownPatchError(step.Patch))
			}
			res, err := s.resolver.Apply(ctx, tx.Top, rec.Commit)
			if err != nil {
				return nil, s.fail(ctx, tx, err)
			}
			if res.Outcome == ApplyConflicted {
				return s.pause(ctx, tx, step, res.Markers)
			}
			if err := s.txlog.RecordStep(tx, step, res); err != nil {
				return nil, s.fail(ctx, tx, err)
			}
		default:
			return nil, s.fail(ctx, tx, fmt.Errorf("step %s cannot be replayed", step))
		}
	}
	return s.commit(ctx, tx)
}

func (s *Stack) commit(ctx context.Context, tx *Transaction) (*Result, error) {
	state, entry, err := s.txlog.Commit(ctx, tx)
	if state == nil {
		return nil, s.fail(ctx, tx, err)
	}
	return s.committed(tx, state, entry, err)
}

// commitInPlace commits a transaction whose top commit was written from the
// working tree itself. On failure the working tree is left alone.
func (s *Stack) commitInPlace(ctx context.Context, tx *Transaction) (*Result, error) {
	tx.Worktree = tx.Top
	state, entry, err := s.txlog.Commit(ctx, tx)
	if state == nil {
		return nil, err
	}
	return s.committed(tx, state, entry, err)
}

func (s *Stack) committed(tx *Transaction, state *StackState, entry *LogEntry, err error) (*Result, error) {
	s.state = state
	s.paused = nil

	var seq uint64
	if entry != nil {
		seq = entry.Seq
	}
	return s.resultOf(tx, seq), err
}

func (s *Stack) pause(ctx context.Context, tx *Transaction, step Step, markers *MarkerState) (*Result, error) {
	wasPaused := tx.Paused
	if err := s.txlog.Pause(ctx, tx, "conflict while pushing "+step.Patch, markers); err != nil {
		tx.Paused = wasPaused
		return nil, s.fail(ctx, tx, err)
	}
	s.paused = tx.Clone()
	return s.resultOf(tx, 0), pserrors.NewConflictError(step.Patch, markers.Files)
}

// fail handles an error that stops a transaction. A transaction that was
// never paused is aborted; a paused one stays resumable.
func (s *Stack) fail(ctx context.Context, tx *Transaction, err error) error {
	if tx.Paused {
		return err
	}
	if abortErr := s.txlog.Abort(context.WithoutCancel(ctx), tx); abortErr != nil {
		return errors.Join(err, abortErr)
	}
	return err
}

func pushArgs(opts PushOptions) []string {
	var args []string
	switch {
	case opts.All:
		args = append(args, "--all")
	case opts.Name != "":
		args = append(args, opts.Name)
	case opts.Count > 1:
		args = append(args, "-n", strconv.Itoa(opts.Count))
	}
	if opts.Force {
		args = append(args, "--force")
	}
	return args
}

func popArgs(opts PopOptions) []string {
	switch {
	case opts.All:
		return []string{"--all"}
	case opts.Name != "":
		return []string{opts.Name}
	case opts.Count > 1:
		return []string{"-n", strconv.Itoa(opts.Count)}
	}
	return nil
}
