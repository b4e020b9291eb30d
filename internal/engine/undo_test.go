package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/testhelpers/scenario"
)

func TestUndo(t *testing.T) {
	t.Run("restores the state before the last operation", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B", "C")
		head := s.Stack.Head()
		_, err := s.Stack.Reorder(s.Ctx, []string{"C", "A", "B"})
		require.NoError(t, err)
		require.NotEqual(t, head, s.Stack.Head())

		_, err = s.Stack.Undo(s.Ctx)
		require.NoError(t, err)
		require.Equal(t, head, s.Stack.Head())
		s.ExpectOrder([]string{"A", "B", "C"}, nil, nil).ExpectConsistent()
	})

	t.Run("undoing the undo redoes", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B")
		s.Pop(1)
		_, err := s.Stack.Undo(s.Ctx)
		require.NoError(t, err)
		s.ExpectOrder([]string{"A", "B"}, nil, nil)

		_, err = s.Stack.Undo(s.Ctx)
		require.NoError(t, err)
		s.ExpectOrder([]string{"A"}, []string{"B"}, nil).ExpectConsistent()
	})

	t.Run("undo to a sequence number", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B", "C")
		entries, err := s.Stack.Log()
		require.NoError(t, err)
		require.Len(t, entries, 3)

		_, err = s.Stack.UndoTo(s.Ctx, entries[1].Seq)
		require.NoError(t, err)
		s.ExpectOrder([]string{"A"}, nil, nil).ExpectConsistent()
	})

	t.Run("restores deleted patches", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B")
		_, err := s.Stack.Delete(s.Ctx, []string{"B"}, true)
		require.NoError(t, err)
		_, err = s.Stack.Undo(s.Ctx)
		require.NoError(t, err)
		s.ExpectOrder([]string{"A", "B"}, nil, nil).ExpectConsistent()
	})

	t.Run("restores a deleted patch after its pin is gone", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B")
		s.Pop(1)
		state, err := s.Store.LoadStack(scenario.Branch)
		require.NoError(t, err)
		deleted := state.Patches["B"].Commit

		_, err = s.Stack.Delete(s.Ctx, []string{"B"}, true)
		require.NoError(t, err)
		refs := s.Repo.Refs()
		require.NotContains(t, refs, engine.PatchRef(scenario.Branch, "B"))
		require.Equal(t, deleted, refs[engine.LogPinRef(scenario.Branch, deleted)])
		s.Repo.GC()

		_, err = s.Stack.Undo(s.Ctx)
		require.NoError(t, err)
		s.ExpectOrder([]string{"A"}, []string{"B"}, nil).ExpectConsistent()
		info, err := s.Stack.Query(s.Ctx, "B")
		require.NoError(t, err)
		require.Equal(t, "patch B", info.Subject())
	})

	t.Run("refuses when a recorded commit was collected", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B")
		s.Pop(1)
		state, err := s.Store.LoadStack(scenario.Branch)
		require.NoError(t, err)
		deleted := state.Patches["B"].Commit

		_, err = s.Stack.Delete(s.Ctx, []string{"B"}, true)
		require.NoError(t, err)
		require.NoError(t, s.Repo.UpdateRef(s.Ctx, engine.LogPinRef(scenario.Branch, deleted), deleted, ""))
		require.Positive(t, s.Repo.GC())

		_, err = s.Stack.Undo(s.Ctx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "of patch B")
		require.Contains(t, err.Error(), "no longer available")
		s.ExpectOrder([]string{"A"}, nil, nil).ExpectConsistent()
	})

	t.Run("nothing to undo", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		_, err := s.Stack.Undo(s.Ctx)
		require.ErrorIs(t, err, pserrors.ErrNoLogEntry)
	})

	t.Run("refused while conflicted", func(t *testing.T) {
		s := conflictScenario(t)
		_, err := s.Stack.Push(s.Ctx, engine.PushOptions{All: true})
		require.ErrorIs(t, err, pserrors.ErrConflicted)
		_, err = s.Stack.Undo(s.Ctx)
		require.ErrorIs(t, err, pserrors.ErrUnresolvedConflict)
	})
}

func TestPrune(t *testing.T) {
	s := scenario.NewScenario(t, nil).WithPatches("A", "B", "C")
	removed, err := s.Stack.Prune(s.Ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	entries, err := s.Stack.Log()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	last := entries[0].Seq

	s.Pop(1)
	entries, err = s.Stack.Log()
	require.NoError(t, err)
	require.Greater(t, entries[len(entries)-1].Seq, last, "sequence numbers never go back")
}

func TestPruneReleasesLogPins(t *testing.T) {
	setup := func(t *testing.T) (*scenario.Scenario, string) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B")
		s.Pop(1)
		state, err := s.Store.LoadStack(scenario.Branch)
		require.NoError(t, err)
		deleted := state.Patches["B"].Commit
		_, err = s.Stack.Delete(s.Ctx, []string{"B"}, true)
		require.NoError(t, err)
		return s, deleted
	}

	t.Run("kept entries hold their commits", func(t *testing.T) {
		s, deleted := setup(t)
		_, err := s.Stack.Prune(s.Ctx, 1)
		require.NoError(t, err)
		require.Contains(t, s.Repo.Refs(), engine.LogPinRef(scenario.Branch, deleted))

		s.Repo.GC()
		_, err = s.Stack.Undo(s.Ctx)
		require.NoError(t, err)
		s.ExpectOrder([]string{"A"}, []string{"B"}, nil).ExpectConsistent()
	})

	t.Run("pruned entries release them", func(t *testing.T) {
		s, deleted := setup(t)
		_, err := s.Stack.Prune(s.Ctx, 0)
		require.NoError(t, err)
		require.NotContains(t, s.Repo.Refs(), engine.LogPinRef(scenario.Branch, deleted))

		s.Repo.GC()
		_, err = s.Repo.ReadCommit(s.Ctx, deleted)
		require.Error(t, err)
		s.ExpectOrder([]string{"A"}, nil, nil).ExpectConsistent()
	})
}
