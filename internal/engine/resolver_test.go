package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/testhelpers/scenario"
)

func TestConflictResolver(t *testing.T) {
	t.Run("patch already on base is reused", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A", "B")
		state, err := s.Store.LoadStack(scenario.Branch)
		require.NoError(t, err)
		s.Repo.ResetCalls()

		r := engine.NewConflictResolver(s.Repo, nil)
		res, err := r.Apply(s.Ctx, state.Patches["A"].Commit, state.Patches["B"].Commit)
		require.NoError(t, err)
		require.Equal(t, engine.ApplyClean, res.Outcome)
		require.Equal(t, state.Patches["B"].Commit, res.Commit)
		require.Empty(t, s.AdapterCalls("ApplyPatchCommit"))
	})

	t.Run("empty result becomes an empty commit on the base", func(t *testing.T) {
		s := scenario.NewScenario(t, map[string]string{"f": "1\n"})
		s.NewPatch("A", map[string]string{"f": "2\n"})
		s.Pop(1)
		s.NewPatch("B", map[string]string{"f": "2\n"})
		state, err := s.Store.LoadStack(scenario.Branch)
		require.NoError(t, err)

		r := engine.NewConflictResolver(s.Repo, nil)
		res, err := r.Apply(s.Ctx, state.Patches["B"].Commit, state.Patches["A"].Commit)
		require.NoError(t, err)
		require.Equal(t, engine.ApplyEmpty, res.Outcome)

		meta, err := s.Repo.ReadCommit(s.Ctx, res.Commit)
		require.NoError(t, err)
		require.Equal(t, state.Patches["B"].Commit, meta.Parent())
		require.Equal(t, "patch A", meta.Message)
	})

	t.Run("conflicts are returned, not resolved", func(t *testing.T) {
		s := scenario.NewScenario(t, map[string]string{"f": "1\n"})
		s.NewPatch("A", map[string]string{"f": "X\n"})
		s.Pop(1)
		s.NewPatch("B", map[string]string{"f": "Y\n"})
		state, err := s.Store.LoadStack(scenario.Branch)
		require.NoError(t, err)

		r := engine.NewConflictResolver(s.Repo, nil)
		res, err := r.Apply(s.Ctx, state.Patches["B"].Commit, state.Patches["A"].Commit)
		require.NoError(t, err)
		require.Equal(t, engine.ApplyConflicted, res.Outcome)
		require.Empty(t, res.Commit)
		require.Equal(t, []string{"f"}, res.Markers.Files)

		files, err := s.Repo.CommitFiles(res.Markers.Tree)
		require.NoError(t, err)
		require.Contains(t, files["f"], "=======")
	})

	t.Run("complete keeps message and author", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("A")
		state, err := s.Store.LoadStack(scenario.Branch)
		require.NoError(t, err)
		a, err := s.Repo.ReadCommit(s.Ctx, state.Patches["A"].Commit)
		require.NoError(t, err)
		base, err := s.Repo.ReadCommit(s.Ctx, state.Base)
		require.NoError(t, err)

		r := engine.NewConflictResolver(s.Repo, nil)
		res, err := r.Complete(s.Ctx, state.Base, a.ID, base.Tree)
		require.NoError(t, err)
		require.Equal(t, engine.ApplyEmpty, res.Outcome)

		meta, err := s.Repo.ReadCommit(s.Ctx, res.Commit)
		require.NoError(t, err)
		require.Equal(t, a.Message, meta.Message)
		require.Equal(t, a.Author, meta.Author)
	})
}
