package engine

import (
	"context"
	"fmt"
	"slices"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// New records the working-tree changes as a new patch on top of the stack
func (s *Stack) New(ctx context.Context, name, message string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidatePatchName(name); err != nil {
		return nil, err
	}
	if err := s.checkWritable(ctx, true); err != nil {
		return nil, err
	}
	order := s.order()
	target, err := order.Insert(name, ListApplied, len(order.applied))
	if err != nil {
		return nil, err
	}
	if message == "" {
		message = name
	}

	head := s.state.Head()
	headMeta, err := s.repo.ReadCommit(ctx, head)
	if err != nil {
		return nil, err
	}
	tree, err := s.repo.SnapshotWorkingTree(ctx)
	if err != nil {
		return nil, err
	}
	commit, err := s.repo.CreateCommit(ctx, CommitRequest{Parent: head, Tree: tree, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to create patch commit: %w", err)
	}
	outcome := ApplyClean
	if tree == headMeta.Tree {
		outcome = ApplyEmpty
	}

	tx := s.txlog.Begin(s.state, "new", []string{name})
	tx.SetTarget(target)
	if err := s.txlog.RecordStep(tx, Step{Patch: name, Action: StepNew}, Resolution{Outcome: outcome, Commit: commit}); err != nil {
		return nil, err
	}
	return s.commitInPlace(ctx, tx)
}

// Refresh folds the working-tree changes into the top patch
func (s *Stack) Refresh(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx, true); err != nil {
		return nil, err
	}
	top := s.order().Top()
	if top == "" {
		return nil, fmt.Errorf("no patches applied: %w", pserrors.ErrNothingToDo)
	}
	meta, err := s.repo.ReadCommit(ctx, s.state.Patches[top].Commit)
	if err != nil {
		return nil, err
	}
	tree, err := s.repo.SnapshotWorkingTree(ctx)
	if err != nil {
		return nil, err
	}
	if tree == meta.Tree {
		return nil, fmt.Errorf("no changes to refresh into %s: %w", top, pserrors.ErrNothingToDo)
	}
	parent, err := s.repo.ReadCommit(ctx, meta.Parent())
	if err != nil {
		return nil, err
	}
	commit, err := s.repo.CreateCommit(ctx, CommitRequest{
		Parent:  parent.ID,
		Tree:    tree,
		Message: meta.Message,
		Author:  &meta.Author,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create patch commit: %w", err)
	}
	outcome := ApplyClean
	if tree == parent.Tree {
		outcome = ApplyEmpty
	}

	tx := s.txlog.Begin(s.state, "refresh", []string{top})
	if err := s.txlog.RecordStep(tx, Step{Patch: top, Action: StepRefresh}, Resolution{Outcome: outcome, Commit: commit}); err != nil {
		return nil, err
	}
	return s.commitInPlace(ctx, tx)
}

// Hide moves unapplied patches to the hidden list
func (s *Stack) Hide(ctx context.Context, names []string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx, true); err != nil {
		return nil, err
	}
	target := s.order()
	for _, name := range names {
		kind, _, ok := target.ListOf(name)
		switch {
		case !ok:
			return nil, pserrors.NewUnknownPatchError(name)
		case kind == ListApplied:
			return nil, pserrors.NewPatchAppliedError(name)
		case kind == ListHidden:
			continue
		}
		next, err := target.Move(name, len(target.hidden), ListHidden)
		if err != nil {
			return nil, err
		}
		target = next
	}
	return s.reshape(ctx, target, "hide", names)
}

// Unhide moves hidden patches to the end of the unapplied list
func (s *Stack) Unhide(ctx context.Context, names []string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx, true); err != nil {
		return nil, err
	}
	target := s.order()
	for _, name := range names {
		kind, _, ok := target.ListOf(name)
		if !ok {
			return nil, pserrors.NewUnknownPatchError(name)
		}
		if kind != ListHidden {
			return nil, pserrors.NewInvalidOrderError(name, "patch is not hidden")
		}
		next, err := target.Move(name, len(target.unapplied), ListUnapplied)
		if err != nil {
			return nil, err
		}
		target = next
	}
	return s.reshape(ctx, target, "unhide", names)
}

// Rename binds a patch to a new name. The commit is unchanged.
func (s *Stack) Rename(ctx context.Context, oldName, newName string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidatePatchName(newName); err != nil {
		return nil, err
	}
	if err := s.checkWritable(ctx, true); err != nil {
		return nil, err
	}
	target, err := s.order().Rename(oldName, newName)
	if err != nil {
		return nil, err
	}
	if oldName == newName {
		return &Result{Order: target}, nil
	}

	tx := s.txlog.Begin(s.state, "rename", []string{oldName, newName})
	tx.SetTarget(target)
	tx.Stage(newName, tx.Patches[oldName])
	tx.Drop(oldName)
	tx.Applied = target.Applied()
	return s.run(ctx, tx)
}

// Delete removes patches from the stack. Applied patches need force and
// must form the topmost run of the applied list; they are popped first.
func (s *Stack) Delete(ctx context.Context, names []string, force bool) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.order()
	target := order
	var applied []string
	for _, name := range names {
		kind, _, ok := order.ListOf(name)
		if !ok {
			return nil, pserrors.NewUnknownPatchError(name)
		}
		if kind == ListApplied {
			if !force {
				return nil, pserrors.NewPatchAppliedError(name)
			}
			applied = append(applied, name)
		}
		next, err := target.Remove(name, force)
		if err != nil {
			return nil, err
		}
		target = next
	}

	k := len(order.applied) - len(applied)
	for _, name := range order.applied[k:] {
		if !slices.Contains(applied, name) {
			return nil, pserrors.NewInvalidOrderError(name,
				"only the topmost applied patches can be deleted; pop or reorder first")
		}
	}

	if err := s.checkWritable(ctx, len(applied) == 0); err != nil {
		return nil, err
	}
	steps := popFrom(order, k).steps
	return s.execute(ctx, plan{target: target, steps: steps}, "delete", names)
}

// reshape commits an order change that does not move the branch
func (s *Stack) reshape(ctx context.Context, target PatchOrder, command string, args []string) (*Result, error) {
	if target.Equal(s.order()) {
		return &Result{Order: target}, nil
	}
	return s.execute(ctx, plan{target: target}, command, args)
}
