package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/store"
)

func newState(branch string, version uint64) *engine.StackState {
	return &engine.StackState{
		Branch:  branch,
		Base:    "1111111111111111111111111111111111111111",
		Version: version,
		Order: engine.OrderRecord{
			Applied:   []string{"a"},
			Unapplied: []string{"b"},
			Hidden:    []string{},
		},
		Patches: map[string]engine.PatchRecord{
			"a": {Commit: "2222222222222222222222222222222222222222"},
			"b": {Commit: "3333333333333333333333333333333333333333", Empty: true},
		},
	}
}

func TestFileStoreStack(t *testing.T) {
	t.Run("missing stack is not initialized", func(t *testing.T) {
		s := store.NewFileStore(t.TempDir())
		_, err := s.LoadStack("main")
		require.ErrorIs(t, err, pserrors.ErrStackNotInitialized)
		require.False(t, s.IsInitialized("main"))
	})

	t.Run("round trips through yaml", func(t *testing.T) {
		gitDir := t.TempDir()
		s := store.NewFileStore(gitDir)
		state := newState("main", 1)
		require.NoError(t, s.SaveStack(state, 0))
		require.True(t, s.IsInitialized("main"))

		loaded, err := s.LoadStack("main")
		require.NoError(t, err)
		require.Equal(t, state.Base, loaded.Base)
		require.Equal(t, []string{"a"}, loaded.Order.Applied)
		require.Equal(t, []string{"b"}, loaded.Order.Unapplied)
		require.Equal(t, state.Patches, loaded.Patches)
		require.Equal(t, state.Head(), loaded.Head())

		data, err := os.ReadFile(filepath.Join(gitDir, "patchstack", "main", "stack.yaml"))
		require.NoError(t, err)
		require.Contains(t, string(data), "applied:")
	})

	t.Run("versions are compare-and-swap", func(t *testing.T) {
		s := store.NewFileStore(t.TempDir())
		require.NoError(t, s.SaveStack(newState("main", 1), 0))
		require.ErrorIs(t, s.SaveStack(newState("main", 1), 0), pserrors.ErrStackExists)

		require.NoError(t, s.SaveStack(newState("main", 2), 1))
		err := s.SaveStack(newState("main", 3), 1)
		var moved *pserrors.RefMovedError
		require.ErrorAs(t, err, &moved)
		require.Equal(t, "1", moved.Expected)
		require.Equal(t, "2", moved.Actual)

		require.ErrorIs(t, s.SaveStack(newState("other", 2), 1), pserrors.ErrStackNotInitialized)
	})

	t.Run("branches with slashes nest", func(t *testing.T) {
		s := store.NewFileStore(t.TempDir())
		require.NoError(t, s.SaveStack(newState("feature/x", 1), 0))
		require.NoError(t, s.SaveStack(newState("main", 1), 0))

		branches, err := s.Branches()
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"feature/x", "main"}, branches)
	})
}

func TestFileStoreTransaction(t *testing.T) {
	s := store.NewFileStore(t.TempDir())

	tx, err := s.LoadTransaction("main")
	require.NoError(t, err)
	require.Nil(t, tx)

	paused := &engine.Transaction{
		ID:      "tx-1",
		Branch:  "main",
		Command: "push",
		Status:  engine.TxConflicted,
		Paused:  true,
		Base:    "1111111111111111111111111111111111111111",
		Target:  engine.OrderRecord{Applied: []string{"a", "b"}},
		Patches: map[string]engine.PatchRecord{"a": {Commit: "22"}, "b": {Commit: "33"}},
		Applied: []string{"a"},
		Top:     "22",
		Done: []engine.StepRecord{
			{Step: engine.Step{Patch: "a", Action: engine.StepPush}, Outcome: engine.ApplyClean, Commit: "22"},
		},
		Pending:  []engine.Step{{Patch: "b", Action: engine.StepPush}},
		Conflict: &engine.MarkerState{Tree: "44", Files: []string{"file.txt"}},
	}
	require.NoError(t, s.SaveTransaction(paused))

	loaded, err := s.LoadTransaction("main")
	require.NoError(t, err)
	require.Equal(t, "b", loaded.ConflictedPatch())
	require.Equal(t, engine.ApplyClean, loaded.Done[0].Outcome)
	require.Equal(t, paused.Conflict, loaded.Conflict)
	require.True(t, loaded.Paused)

	require.NoError(t, s.ClearTransaction("main"))
	require.NoError(t, s.ClearTransaction("main"), "clearing twice is fine")
	tx, err = s.LoadTransaction("main")
	require.NoError(t, err)
	require.Nil(t, tx)
}

func TestFileStoreLog(t *testing.T) {
	entry := func(cmd string) *engine.LogEntry {
		return &engine.LogEntry{
			Transaction: cmd + "-tx",
			Command:     cmd,
			Time:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Before:      engine.Snapshot{Head: "aa", Version: 1},
			After:       engine.Snapshot{Head: "bb", Version: 2},
			Steps: []engine.StepRecord{
				{Step: engine.Step{Patch: "a", Action: engine.StepPush}, Outcome: engine.ApplyEmpty, Commit: "bb"},
			},
		}
	}

	t.Run("appends with increasing sequence numbers", func(t *testing.T) {
		s := store.NewFileStore(t.TempDir())
		_, err := s.ReadLog("main", 0)
		require.ErrorIs(t, err, pserrors.ErrNoLogEntry)

		for i, cmd := range []string{"push", "pop", "reorder"} {
			seq, err := s.AppendLog("main", entry(cmd))
			require.NoError(t, err)
			require.Equal(t, uint64(i+1), seq)
		}

		latest, err := s.ReadLog("main", 0)
		require.NoError(t, err)
		require.Equal(t, "reorder", latest.Command)
		require.Equal(t, engine.ApplyEmpty, latest.Steps[0].Outcome)

		second, err := s.ReadLog("main", 2)
		require.NoError(t, err)
		require.Equal(t, "pop", second.Command)

		_, err = s.ReadLog("main", 9)
		require.ErrorIs(t, err, pserrors.ErrNoLogEntry)
	})

	t.Run("prune keeps the newest entries and numbering continues", func(t *testing.T) {
		s := store.NewFileStore(t.TempDir())
		for _, cmd := range []string{"one", "two", "three", "four"} {
			_, err := s.AppendLog("main", entry(cmd))
			require.NoError(t, err)
		}

		removed, err := s.PruneLog("main", 2)
		require.NoError(t, err)
		require.Equal(t, 2, removed)

		entries, err := s.ListLog("main")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, uint64(3), entries[0].Seq)
		require.Equal(t, "four", entries[1].Command)

		removed, err = s.PruneLog("main", 5)
		require.NoError(t, err)
		require.Zero(t, removed)

		seq, err := s.AppendLog("main", entry("five"))
		require.NoError(t, err)
		require.Equal(t, uint64(5), seq)
	})

	t.Run("sequence recovers from the log without a counter file", func(t *testing.T) {
		gitDir := t.TempDir()
		s := store.NewFileStore(gitDir)
		for _, cmd := range []string{"one", "two"} {
			_, err := s.AppendLog("main", entry(cmd))
			require.NoError(t, err)
		}
		require.NoError(t, os.Remove(filepath.Join(gitDir, "patchstack", "main", "log.seq")))

		seq, err := s.AppendLog("main", entry("three"))
		require.NoError(t, err)
		require.Equal(t, uint64(3), seq)
	})

	t.Run("corrupt lines are reported", func(t *testing.T) {
		gitDir := t.TempDir()
		s := store.NewFileStore(gitDir)
		_, err := s.AppendLog("main", entry("one"))
		require.NoError(t, err)

		path := filepath.Join(gitDir, "patchstack", "main", "log.jsonl")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		require.NoError(t, err)
		_, err = f.WriteString("{not json\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = s.ListLog("main")
		require.ErrorContains(t, err, "log.jsonl:2")
	})
}

func TestLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second holder waits and times out", func(t *testing.T) {
		s := store.NewFileStore(t.TempDir())
		first, err := s.Lock(ctx, "main", time.Second)
		require.NoError(t, err)

		_, err = s.Lock(ctx, "main", 0)
		require.ErrorIs(t, err, store.ErrLocked)
		_, err = s.Lock(ctx, "main", 120*time.Millisecond)
		require.ErrorIs(t, err, store.ErrLocked)

		other, err := s.Lock(ctx, "feature", 0)
		require.NoError(t, err, "branches lock independently")
		require.NoError(t, other.Unlock())

		require.NoError(t, first.Unlock())
		require.NoError(t, first.Unlock())

		again, err := s.Lock(ctx, "main", 0)
		require.NoError(t, err)
		require.NoError(t, again.Unlock())
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		s := store.NewFileStore(t.TempDir())
		held, err := s.Lock(ctx, "main", 0)
		require.NoError(t, err)
		defer held.Unlock()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = s.Lock(cancelled, "main", time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})
}
