package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
)

func TestMemoryStore(t *testing.T) {
	t.Run("stack versions are compare-and-swap", func(t *testing.T) {
		store := engine.NewMemoryStore()
		_, err := store.LoadStack("main")
		require.ErrorIs(t, err, pserrors.ErrStackNotInitialized)

		state := &engine.StackState{Branch: "main", Base: "b", Version: 1}
		require.NoError(t, store.SaveStack(state, 0))
		require.ErrorIs(t, store.SaveStack(state, 0), pserrors.ErrStackExists)

		next := state.Clone()
		next.Version = 2
		require.NoError(t, store.SaveStack(next, 1))
		require.ErrorIs(t, store.SaveStack(next, 1), pserrors.ErrRefMoved)

		loaded, err := store.LoadStack("main")
		require.NoError(t, err)
		require.Equal(t, uint64(2), loaded.Version)
	})

	t.Run("loaded values are copies", func(t *testing.T) {
		store := engine.NewMemoryStore()
		state := &engine.StackState{Branch: "main", Version: 1, Patches: map[string]engine.PatchRecord{"a": {Commit: "c1"}}}
		require.NoError(t, store.SaveStack(state, 0))

		loaded, err := store.LoadStack("main")
		require.NoError(t, err)
		loaded.Patches["a"] = engine.PatchRecord{Commit: "changed"}

		again, err := store.LoadStack("main")
		require.NoError(t, err)
		require.Equal(t, "c1", again.Patches["a"].Commit)
	})

	t.Run("log", func(t *testing.T) {
		store := engine.NewMemoryStore()
		for i := 0; i < 3; i++ {
			seq, err := store.AppendLog("main", &engine.LogEntry{Command: "push"})
			require.NoError(t, err)
			require.Equal(t, uint64(i+1), seq)
		}
		latest, err := store.ReadLog("main", 0)
		require.NoError(t, err)
		require.Equal(t, uint64(3), latest.Seq)

		removed, err := store.PruneLog("main", 0)
		require.NoError(t, err)
		require.Equal(t, 3, removed)
		_, err = store.ReadLog("main", 0)
		require.ErrorIs(t, err, pserrors.ErrNoLogEntry)

		seq, err := store.AppendLog("main", &engine.LogEntry{})
		require.NoError(t, err)
		require.Equal(t, uint64(4), seq)
	})
}
