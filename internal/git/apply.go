package git

import (
	"context"
	"fmt"
	"strings"

	"patchstack.dev/patchstack/internal/engine"
)

// mergeTreeConflict is the exit status of git merge-tree for a conflicted merge
const mergeTreeConflict = 1

// ApplyPatchCommit replays patchCommit onto base with a three-way merge whose
// ancestor is the patch commit's parent. Conflicts are reported with the tree
// git wrote, which carries the conflict markers.
func (r *Repository) ApplyPatchCommit(ctx context.Context, base, patchCommit string) (engine.ApplyResult, error) {
	patch, err := r.ReadCommit(ctx, patchCommit)
	if err != nil {
		return engine.ApplyResult{}, err
	}
	if patch.Parent() == "" {
		return engine.ApplyResult{}, fmt.Errorf("patch commit %s has no parent", patchCommit)
	}
	baseMeta, err := r.ReadCommit(ctx, base)
	if err != nil {
		return engine.ApplyResult{}, err
	}

	out, err := r.runner.RunRaw(ctx, "merge-tree", "--write-tree", "--name-only", "--no-messages", "-z",
		"--merge-base="+patch.Parent(), base, patchCommit)
	conflicted := false
	if err != nil {
		if ExitCode(err) != mergeTreeConflict || ctx.Err() != nil {
			return engine.ApplyResult{}, fmt.Errorf("failed to merge %s onto %s: %w", patchCommit, base, err)
		}
		conflicted = true
	}

	tree, files := parseMergeTree(out)
	if tree == "" {
		return engine.ApplyResult{}, fmt.Errorf("merge-tree produced no tree for %s", patchCommit)
	}
	if conflicted {
		return engine.ApplyResult{
			Outcome: engine.ApplyConflicted,
			Markers: &engine.MarkerState{Tree: tree, Files: files},
		}, nil
	}
	if tree == baseMeta.Tree {
		return engine.ApplyResult{Outcome: engine.ApplyEmpty}, nil
	}

	id, err := r.CreateCommit(ctx, engine.CommitRequest{
		Parent:  base,
		Tree:    tree,
		Message: patch.Message,
		Author:  &patch.Author,
	})
	if err != nil {
		return engine.ApplyResult{}, err
	}
	return engine.ApplyResult{Outcome: engine.ApplyClean, Commit: id}, nil
}

// parseMergeTree splits the NUL-separated output of merge-tree -z into the
// written tree and the conflicted paths
func parseMergeTree(out string) (string, []string) {
	fields := strings.Split(out, "\x00")
	tree := strings.TrimSpace(fields[0])
	var files []string
	seen := make(map[string]bool)
	for _, f := range fields[1:] {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		files = append(files, f)
	}
	return tree, files
}
