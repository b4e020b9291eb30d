package engine

import (
	"context"
	"strings"
)

// RepositoryAdapter is everything the engine needs from the version control
// backend. The engine never touches object or ref storage directly.
type RepositoryAdapter interface {
	// CreateCommit writes a commit object and returns its id
	CreateCommit(ctx context.Context, req CommitRequest) (string, error)
	// ApplyPatchCommit replays patchCommit (relative to its first parent) onto base
	ApplyPatchCommit(ctx context.Context, base, patchCommit string) (ApplyResult, error)
	// ReadCommit returns the metadata of a commit
	ReadCommit(ctx context.Context, id string) (CommitMeta, error)
	// UpdateRef moves ref from one commit to another with compare-and-swap
	// semantics. An empty from creates the ref, an empty to deletes it.
	// A stale from yields an error matching errors.ErrRefMoved.
	UpdateRef(ctx context.Context, ref, from, to string) error
	// ReadRef returns the commit a ref points at, or "" when it does not exist
	ReadRef(ctx context.Context, ref string) (string, error)
	// WorkingTreeStatus reports whether the working tree has local changes
	WorkingTreeStatus(ctx context.Context) (WorkingTreeStatus, error)

	// CheckoutTree moves the index and working tree from one tree-ish to another
	CheckoutTree(ctx context.Context, from, to string) error
	// ResetWorkingTree discards local changes and restores the given tree-ish
	ResetWorkingTree(ctx context.Context, to string) error
	// SnapshotWorkingTree stages the working tree and returns the written tree id
	SnapshotWorkingTree(ctx context.Context) (string, error)
}

const (
	branchRefPrefix = "refs/heads/"
	patchRefPrefix  = "refs/patches/"
	logRefPrefix    = "refs/patch-log/"
)

// BranchRef returns the reference name of a branch
func BranchRef(branch string) string {
	if strings.HasPrefix(branch, branchRefPrefix) {
		return branch
	}
	return branchRefPrefix + branch
}

// PatchRef returns the pin reference that keeps a patch commit reachable
func PatchRef(branch, patch string) string {
	return patchRefPrefix + strings.TrimPrefix(branch, branchRefPrefix) + "/" + patch
}

// LogPinRef returns the reference that keeps a commit which left the patch
// table reachable while the transaction log still records it
func LogPinRef(branch, commit string) string {
	return logRefPrefix + strings.TrimPrefix(branch, branchRefPrefix) + "/" + commit
}
