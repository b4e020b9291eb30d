package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"

	"patchstack.dev/patchstack/internal/engine"
)

// WorkingTreeStatus reports whether the index or working tree differ from
// HEAD. Untracked files are ignored. Tracked changes that still carry
// conflict markers, and unmerged index entries, are reported as conflicted.
func (r *Repository) WorkingTreeStatus(ctx context.Context) (engine.WorkingTreeStatus, error) {
	changed, unmerged, err := r.changedPaths(ctx)
	if err != nil {
		return engine.WorkingTreeClean, err
	}
	if unmerged {
		return engine.WorkingTreeConflicted, nil
	}
	for _, path := range changed {
		if r.hasConflictMarkers(path) {
			return engine.WorkingTreeConflicted, nil
		}
	}
	if len(changed) > 0 {
		return engine.WorkingTreeDirty, nil
	}
	return engine.WorkingTreeClean, nil
}

// ConflictedFiles returns the changed paths that still carry conflict markers
func (r *Repository) ConflictedFiles(ctx context.Context) ([]string, error) {
	changed, _, err := r.changedPaths(ctx)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, path := range changed {
		if r.hasConflictMarkers(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// CheckoutTree moves the index and working tree from one tree-ish to another.
// Local changes to paths that differ between the two are refused by git.
func (r *Repository) CheckoutTree(ctx context.Context, from, to string) error {
	if _, err := r.runner.Run(ctx, "read-tree", "-u", "-m", from, to); err != nil {
		return fmt.Errorf("failed to check out %s: %w", to, err)
	}
	return nil
}

// ResetWorkingTree discards local changes and restores the given tree-ish
func (r *Repository) ResetWorkingTree(ctx context.Context, to string) error {
	if _, err := r.runner.Run(ctx, "read-tree", "-u", "--reset", to); err != nil {
		return fmt.Errorf("failed to reset working tree to %s: %w", to, err)
	}
	return nil
}

// SnapshotWorkingTree stages the working tree and returns the written tree id
func (r *Repository) SnapshotWorkingTree(ctx context.Context) (string, error) {
	if _, err := r.runner.Run(ctx, "add", "-A"); err != nil {
		return "", fmt.Errorf("failed to stage working tree: %w", err)
	}
	tree, err := r.runner.Run(ctx, "write-tree")
	if err != nil {
		return "", fmt.Errorf("failed to write tree: %w", err)
	}
	return tree, nil
}

// changedPaths lists tracked paths whose index or worktree state differs
// from HEAD, and whether any index entry is unmerged
func (r *Repository) changedPaths(ctx context.Context) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get status: %w", err)
	}

	var paths []string
	unmerged := false
	for path, st := range status {
		if st.Staging == git.Untracked && st.Worktree == git.Untracked {
			continue
		}
		if st.Staging == git.UpdatedButUnmerged || st.Worktree == git.UpdatedButUnmerged {
			unmerged = true
		}
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, unmerged, nil
}

var (
	markerOurs   = []byte("<<<<<<< ")
	markerSep    = []byte("=======")
	markerTheirs = []byte(">>>>>>> ")
)

// hasConflictMarkers reports whether the worktree file at path contains a
// complete ours/separator/theirs marker block
func (r *Repository) hasConflictMarkers(path string) bool {
	f, err := os.Open(filepath.Join(r.root, filepath.FromSlash(path)))
	if err != nil {
		return false
	}
	defer f.Close()

	state := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		switch {
		case state == 0 && bytes.HasPrefix(line, markerOurs):
			state = 1
		case state == 1 && bytes.Equal(bytes.TrimRight(line, "\r"), markerSep):
			state = 2
		case state == 2 && bytes.HasPrefix(line, markerTheirs):
			return true
		}
	}
	return false
}
