package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// ConflictResolver drives the application of a single patch and classifies
// the result. It never retries and never recovers from a conflict.
type ConflictResolver struct {
	repo   RepositoryAdapter
	logger *slog.Logger
}

// NewConflictResolver creates a ConflictResolver
func NewConflictResolver(repo RepositoryAdapter, logger *slog.Logger) *ConflictResolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConflictResolver{repo: repo, logger: logger}
}

// Apply replays patchCommit onto base
func (r *ConflictResolver) Apply(ctx context.Context, base, patchCommit string) (Resolution, error) {
	patch, err := r.repo.ReadCommit(ctx, patchCommit)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to read patch commit %s: %w", patchCommit, err)
	}

	// The patch already sits on base: reuse it unchanged.
	if patch.Parent() == base {
		parent, err := r.repo.ReadCommit(ctx, base)
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to read base commit %s: %w", base, err)
		}
		outcome := ApplyClean
		if parent.Tree == patch.Tree {
			outcome = ApplyEmpty
		}
		return Resolution{Outcome: outcome, Commit: patchCommit}, nil
	}

	res, err := r.repo.ApplyPatchCommit(ctx, base, patchCommit)
	if err != nil {
		return Resolution{}, err
	}
	switch res.Outcome {
	case ApplyClean:
		return Resolution{Outcome: ApplyClean, Commit: res.Commit}, nil
	case ApplyEmpty:
		id, err := r.repo.CreateCommit(ctx, CommitRequest{
			Parent:  base,
			Message: patch.Message,
			Author:  &patch.Author,
		})
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to create empty commit: %w", err)
		}
		r.logger.Debug("patch is empty on its new base", "commit", patchCommit, "base", base)
		return Resolution{Outcome: ApplyEmpty, Commit: id}, nil
	case ApplyConflicted:
		markers := res.Markers
		if markers == nil {
			markers = &MarkerState{}
		}
		return Resolution{Outcome: ApplyConflicted, Markers: markers}, nil
	default:
		return Resolution{}, fmt.Errorf("unexpected apply outcome %v", res.Outcome)
	}
}

// Complete turns a resolved tree into the new commit of a conflicted patch,
// keeping the message and author of the original patch commit.
func (r *ConflictResolver) Complete(ctx context.Context, base, patchCommit, tree string) (Resolution, error) {
	patch, err := r.repo.ReadCommit(ctx, patchCommit)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to read patch commit %s: %w", patchCommit, err)
	}
	parent, err := r.repo.ReadCommit(ctx, base)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to read base commit %s: %w", base, err)
	}
	id, err := r.repo.CreateCommit(ctx, CommitRequest{
		Parent:  base,
		Tree:    tree,
		Message: patch.Message,
		Author:  &patch.Author,
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to commit resolved tree: %w", err)
	}
	outcome := ApplyClean
	if tree == parent.Tree {
		outcome = ApplyEmpty
	}
	return Resolution{Outcome: outcome, Commit: id}, nil
}
