// Package demo provides an in-memory repository backend for demo mode and
// for exercising the engine without a real git repository.
package demo

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
)

// Call is one recorded adapter invocation
type Call struct {
	Method string
	Args   []string
}

func (c Call) String() string {
	return c.Method + "(" + strings.Join(c.Args, ", ") + ")"
}

type commit struct {
	id      string
	tree    string
	parents []string
	message string
	author  engine.Signature
}

// Repository is an in-memory engine.RepositoryAdapter. Commits are file
// maps, merges are per-file three-way merges and the working tree is
// modelled so status, conflict markers and snapshots behave like git.
type Repository struct {
	mu       sync.Mutex
	trees    map[string]map[string]string
	commits  map[string]*commit
	refs     map[string]string
	worktree map[string]string
	// checkedOut is the tree the working tree was last synced to
	checkedOut string
	identity   engine.Signature
	clock      time.Time
	calls      []Call
	failures   map[string]error
}

var _ engine.RepositoryAdapter = (*Repository)(nil)

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	r := &Repository{
		trees:    map[string]map[string]string{},
		commits:  map[string]*commit{},
		refs:     map[string]string{},
		worktree: map[string]string{},
		identity: engine.Signature{Name: "Demo User", Email: "demo@example.com"},
		clock:    time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
	r.checkedOut = r.storeTree(map[string]string{})
	return r
}

// InitBranch creates a root commit holding files, points branch at it and
// checks it out.
func (r *Repository) InitBranch(branch string, files map[string]string, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := engine.BranchRef(branch)
	if _, ok := r.refs[ref]; ok {
		return "", fmt.Errorf("branch %s already exists", branch)
	}
	tree := r.storeTree(files)
	id := r.storeCommit(tree, nil, message, r.signature())
	r.refs[ref] = id
	r.worktree = maps.Clone(files)
	r.checkedOut = tree
	return id, nil
}

// CommitOnBranch adds a commit on top of branch without going through the
// engine, the way another tool or user would.
func (r *Repository) CommitOnBranch(branch string, files map[string]string, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := engine.BranchRef(branch)
	parent, ok := r.refs[ref]
	if !ok {
		return "", fmt.Errorf("branch %s does not exist", branch)
	}
	content := maps.Clone(r.trees[r.commits[parent].tree])
	maps.Copy(content, files)
	id := r.storeCommit(r.storeTree(content), []string{parent}, message, r.signature())
	r.refs[ref] = id
	return id, nil
}

// WriteFile changes a file in the working tree
func (r *Repository) WriteFile(path, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.worktree[path] = content
}

// RemoveFile deletes a file from the working tree
func (r *Repository) RemoveFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.worktree, path)
}

// ReadFile returns a file of the working tree
func (r *Repository) ReadFile(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.worktree[path]
	return content, ok
}

// WorktreeFiles returns a copy of the working tree
func (r *Repository) WorktreeFiles() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.worktree)
}

// CommitFiles returns the files of a commit or tree
func (r *Repository) CommitFiles(id string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tree, err := r.resolveTree(id)
	if err != nil {
		return nil, err
	}
	return maps.Clone(r.trees[tree]), nil
}

// Calls returns every adapter call recorded so far
func (r *Repository) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// ResetCalls forgets the recorded calls
func (r *Repository) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// FailNext makes the next call of method return err
func (r *Repository) FailNext(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures == nil {
		r.failures = map[string]error{}
	}
	r.failures[method] = err
}

func (r *Repository) CreateCommit(ctx context.Context, req engine.CommitRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "CreateCommit", req.Parent, req.Tree); err != nil {
		return "", err
	}
	var parents []string
	tree := req.Tree
	if req.Parent != "" {
		parent, ok := r.commits[req.Parent]
		if !ok {
			return "", fmt.Errorf("parent commit %s not found", req.Parent)
		}
		parents = []string{req.Parent}
		if tree == "" {
			tree = parent.tree
		}
	}
	if tree == "" {
		tree = r.storeTree(map[string]string{})
	}
	if _, ok := r.trees[tree]; !ok {
		return "", fmt.Errorf("tree %s not found", tree)
	}
	author := r.signature()
	if req.Author != nil {
		author = *req.Author
	}
	return r.storeCommit(tree, parents, req.Message, author), nil
}

func (r *Repository) ApplyPatchCommit(ctx context.Context, base, patchCommit string) (engine.ApplyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "ApplyPatchCommit", base, patchCommit); err != nil {
		return engine.ApplyResult{}, err
	}
	baseCommit, ok := r.commits[base]
	if !ok {
		return engine.ApplyResult{}, fmt.Errorf("base commit %s not found", base)
	}
	patch, ok := r.commits[patchCommit]
	if !ok {
		return engine.ApplyResult{}, fmt.Errorf("patch commit %s not found", patchCommit)
	}
	if len(patch.parents) == 0 {
		return engine.ApplyResult{}, fmt.Errorf("patch commit %s has no parent", patchCommit)
	}

	ancestor := r.trees[r.commits[patch.parents[0]].tree]
	theirs := r.trees[patch.tree]
	ours := r.trees[baseCommit.tree]

	result := maps.Clone(ours)
	var conflicts []string
	paths := slices.Sorted(maps.Keys(unionKeys(ancestor, theirs)))
	for _, path := range paths {
		a, aok := ancestor[path]
		t, tok := theirs[path]
		if aok == tok && a == t {
			continue
		}
		o, ook := ours[path]
		switch {
		case ook == aok && o == a:
			if tok {
				result[path] = t
			} else {
				delete(result, path)
			}
		case ook == tok && o == t:
			// already applied on this base
		default:
			conflicts = append(conflicts, path)
			result[path] = conflictMarkers(o, t)
		}
	}

	tree := r.storeTree(result)
	if len(conflicts) > 0 {
		return engine.ApplyResult{
			Outcome: engine.ApplyConflicted,
			Markers: &engine.MarkerState{Tree: tree, Files: conflicts},
		}, nil
	}
	if tree == baseCommit.tree {
		return engine.ApplyResult{Outcome: engine.ApplyEmpty}, nil
	}
	id := r.storeCommit(tree, []string{base}, patch.message, patch.author)
	return engine.ApplyResult{Outcome: engine.ApplyClean, Commit: id}, nil
}

func (r *Repository) ReadCommit(ctx context.Context, id string) (engine.CommitMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "ReadCommit", id); err != nil {
		return engine.CommitMeta{}, err
	}
	c, ok := r.commits[id]
	if !ok {
		return engine.CommitMeta{}, fmt.Errorf("commit %s not found", id)
	}
	return engine.CommitMeta{
		ID:      c.id,
		Tree:    c.tree,
		Parents: slices.Clone(c.parents),
		Message: c.message,
		Author:  c.author,
	}, nil
}

func (r *Repository) UpdateRef(ctx context.Context, ref, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "UpdateRef", ref, from, to); err != nil {
		return err
	}
	if current := r.refs[ref]; current != from {
		return pserrors.NewRefMovedError(ref, from, current)
	}
	if to == "" {
		delete(r.refs, ref)
		return nil
	}
	if _, ok := r.commits[to]; !ok {
		return fmt.Errorf("commit %s not found", to)
	}
	r.refs[ref] = to
	return nil
}

func (r *Repository) ReadRef(ctx context.Context, ref string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "ReadRef", ref); err != nil {
		return "", err
	}
	return r.refs[ref], nil
}

// Refs returns a copy of every reference
func (r *Repository) Refs() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.refs)
}

// GC drops every commit no reference reaches, the way git gc drops
// unreferenced objects once they expire. It returns how many were dropped.
func (r *Repository) GC() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	reachable := map[string]struct{}{}
	var walk []string
	for _, id := range r.refs {
		walk = append(walk, id)
	}
	for len(walk) > 0 {
		id := walk[len(walk)-1]
		walk = walk[:len(walk)-1]
		c, ok := r.commits[id]
		if !ok {
			continue
		}
		if _, seen := reachable[id]; seen {
			continue
		}
		reachable[id] = struct{}{}
		walk = append(walk, c.parents...)
	}
	dropped := 0
	for id := range r.commits {
		if _, ok := reachable[id]; !ok {
			delete(r.commits, id)
			dropped++
		}
	}
	return dropped
}

func (r *Repository) WorkingTreeStatus(ctx context.Context) (engine.WorkingTreeStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "WorkingTreeStatus"); err != nil {
		return engine.WorkingTreeClean, err
	}
	for _, content := range r.worktree {
		if hasConflictMarkers(content) {
			return engine.WorkingTreeConflicted, nil
		}
	}
	if !maps.Equal(r.worktree, r.trees[r.checkedOut]) {
		return engine.WorkingTreeDirty, nil
	}
	return engine.WorkingTreeClean, nil
}

func (r *Repository) CheckoutTree(ctx context.Context, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "CheckoutTree", from, to); err != nil {
		return err
	}
	fromTree, err := r.resolveTree(from)
	if err != nil {
		return err
	}
	toTree, err := r.resolveTree(to)
	if err != nil {
		return err
	}
	if !maps.Equal(r.worktree, r.trees[fromTree]) {
		return fmt.Errorf("local changes would be overwritten by checkout of %s", to)
	}
	r.worktree = maps.Clone(r.trees[toTree])
	r.checkedOut = toTree
	return nil
}

func (r *Repository) ResetWorkingTree(ctx context.Context, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "ResetWorkingTree", to); err != nil {
		return err
	}
	tree, err := r.resolveTree(to)
	if err != nil {
		return err
	}
	r.worktree = maps.Clone(r.trees[tree])
	r.checkedOut = tree
	return nil
}

func (r *Repository) SnapshotWorkingTree(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "SnapshotWorkingTree"); err != nil {
		return "", err
	}
	tree := r.storeTree(r.worktree)
	r.checkedOut = tree
	return tree, nil
}

// record appends a call and returns any injected failure or context error
func (r *Repository) record(ctx context.Context, method string, args ...string) error {
	r.calls = append(r.calls, Call{Method: method, Args: args})
	if err, ok := r.failures[method]; ok {
		delete(r.failures, method)
		return err
	}
	return ctx.Err()
}

func (r *Repository) resolveTree(id string) (string, error) {
	if c, ok := r.commits[id]; ok {
		return c.tree, nil
	}
	if _, ok := r.trees[id]; ok {
		return id, nil
	}
	return "", fmt.Errorf("object %s not found", id)
}

func (r *Repository) signature() engine.Signature {
	sig := r.identity
	sig.When = r.clock
	return sig
}

func (r *Repository) storeTree(files map[string]string) string {
	h := sha1.New()
	for _, path := range slices.Sorted(maps.Keys(files)) {
		fmt.Fprintf(h, "%s\x00%s\x00", path, files[path])
	}
	id := hex.EncodeToString(h.Sum(nil))
	if _, ok := r.trees[id]; !ok {
		r.trees[id] = maps.Clone(files)
	}
	return id
}

func (r *Repository) storeCommit(tree string, parents []string, message string, author engine.Signature) string {
	// every commit gets a distinct committer time, like consecutive git commits
	r.clock = r.clock.Add(time.Second)
	h := sha1.New()
	fmt.Fprintf(h, "tree %s\nparents %s\nauthor %s <%s> %d\ncommitter %d\n\n%s",
		tree, strings.Join(parents, " "), author.Name, author.Email, author.When.Unix(), r.clock.Unix(), message)
	id := hex.EncodeToString(h.Sum(nil))
	r.commits[id] = &commit{
		id:      id,
		tree:    tree,
		parents: slices.Clone(parents),
		message: message,
		author:  author,
	}
	return id
}

func unionKeys(a, b map[string]string) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func conflictMarkers(ours, theirs string) string {
	var b strings.Builder
	b.WriteString("<<<<<<< ours\n")
	b.WriteString(withNewline(ours))
	b.WriteString("=======\n")
	b.WriteString(withNewline(theirs))
	b.WriteString(">>>>>>> theirs\n")
	return b.String()
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func hasConflictMarkers(content string) bool {
	for line := range strings.Lines(content) {
		if strings.HasPrefix(line, "<<<<<<< ") || strings.HasPrefix(line, ">>>>>>> ") {
			return true
		}
	}
	return false
}
