// Package scenario provides a high-level test scenario that combines an
// in-memory repository, a state store and a Stack to provide a terse API for
// engine and action tests.
package scenario

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/demo"
	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
)

// Branch is the branch every scenario stacks patches on
const Branch = "main"

// Scenario represents a patch stack under test
type Scenario struct {
	T     *testing.T
	Ctx   context.Context
	Repo  *demo.Repository
	Store *engine.MemoryStore
	Stack *engine.Stack

	// Context runs actions against Stack; their console output goes to Out
	Context *runtime.Context
	Out     *bytes.Buffer
}

// NewScenario creates a repository with one commit on main holding files
// and initialises a stack on it.
func NewScenario(t *testing.T, files map[string]string) *Scenario {
	t.Helper()

	if files == nil {
		files = map[string]string{"README.md": "base\n"}
	}
	repo := demo.NewRepository()
	_, err := repo.InitBranch(Branch, files, "initial")
	require.NoError(t, err)

	store := engine.NewMemoryStore()
	ctx := context.Background()
	stack, err := engine.Init(ctx, repo, store, Branch)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{Writer: out})
	require.NoError(t, err)
	rc := runtime.NewContext(ctx, stack, splog)
	rc.Repo = repo
	rc.Store = store
	rc.Demo = true

	return &Scenario{
		T:       t,
		Ctx:     ctx,
		Repo:    repo,
		Store:   store,
		Stack:   stack,
		Context: rc,
		Out:     out,
	}
}

// Output returns the console output of the actions run so far and resets it
func (s *Scenario) Output() string {
	out := s.Out.String()
	s.Out.Reset()
	return out
}

// Write changes a file in the working tree
func (s *Scenario) Write(path, content string) *Scenario {
	s.Repo.WriteFile(path, content)
	return s
}

// NewPatch writes files and records them as a new applied patch
func (s *Scenario) NewPatch(name string, files map[string]string) *Scenario {
	s.T.Helper()
	for path, content := range files {
		s.Repo.WriteFile(path, content)
	}
	_, err := s.Stack.New(s.Ctx, name, "patch "+name)
	require.NoError(s.T, err)
	return s
}

// WithPatches creates one patch per name, each adding its own file
func (s *Scenario) WithPatches(names ...string) *Scenario {
	s.T.Helper()
	for _, name := range names {
		s.NewPatch(name, map[string]string{name + ".txt": "content of " + name + "\n"})
	}
	return s
}

// Pop pops count patches
func (s *Scenario) Pop(count int) *Scenario {
	s.T.Helper()
	_, err := s.Stack.Pop(s.Ctx, engine.PopOptions{Count: count})
	require.NoError(s.T, err)
	return s
}

// Reopen loads a second Stack over the same repository and store
func (s *Scenario) Reopen() *engine.Stack {
	s.T.Helper()
	stack, err := engine.Open(s.Ctx, s.Repo, s.Store, Branch)
	require.NoError(s.T, err)
	return stack
}

// PatchOf returns the name of the patch whose commit is id, or ""
func (s *Scenario) PatchOf(id string) string {
	state, err := s.Store.LoadStack(Branch)
	require.NoError(s.T, err)
	for name, rec := range state.Patches {
		if rec.Commit == id {
			return name
		}
	}
	return ""
}

// ExpectOrder asserts the three sequences of the stack
func (s *Scenario) ExpectOrder(applied, unapplied, hidden []string) *Scenario {
	s.T.Helper()
	order := s.Stack.Order()
	require.Equal(s.T, nonNil(applied), nonNil(order.Applied()), "applied")
	require.Equal(s.T, nonNil(unapplied), nonNil(order.Unapplied()), "unapplied")
	require.Equal(s.T, nonNil(hidden), nonNil(order.Hidden()), "hidden")
	return s
}

// ExpectConsistent asserts that the branch reference points at the head of
// the applied patches, the working tree matches it and every patch is pinned.
func (s *Scenario) ExpectConsistent() *Scenario {
	s.T.Helper()
	require.Equal(s.T, engine.StackClean, s.Stack.Status())
	require.NoError(s.T, s.Stack.Order().Validate())

	head := s.Stack.Head()
	ref, err := s.Repo.ReadRef(s.Ctx, engine.BranchRef(Branch))
	require.NoError(s.T, err)
	require.Equal(s.T, head, ref, "branch reference must point at the applied head")

	files, err := s.Repo.CommitFiles(head)
	require.NoError(s.T, err)
	require.Equal(s.T, files, s.Repo.WorktreeFiles(), "working tree must match the applied head")

	state, err := s.Store.LoadStack(Branch)
	require.NoError(s.T, err)
	base := state.Base
	for _, name := range s.Stack.Order().Applied() {
		meta, err := s.Repo.ReadCommit(s.Ctx, state.Patches[name].Commit)
		require.NoError(s.T, err)
		require.Equal(s.T, base, meta.Parent(), "applied patch %s must sit on the one below", name)
		base = meta.ID
	}
	refs := s.Repo.Refs()
	for name, rec := range state.Patches {
		require.Equal(s.T, rec.Commit, refs[engine.PatchRef(Branch, name)], "pin of %s", name)
	}
	return s
}

// AdapterCalls returns the recorded calls of one adapter method
func (s *Scenario) AdapterCalls(method string) []demo.Call {
	var calls []demo.Call
	for _, c := range s.Repo.Calls() {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
