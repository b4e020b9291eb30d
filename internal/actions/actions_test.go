package actions_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/actions"
	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/tui"
	"patchstack.dev/patchstack/testhelpers/scenario"
)

func init() {
	_ = os.Setenv("PATCHSTACK_TEST_NO_INTERACTIVE", "1")
	tui.ConfigureColor("never", true)
}

func TestPushPopActions(t *testing.T) {
	t.Run("push applies the next patch by default", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c").Pop(3)
		s.Output()

		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{}))
		require.Equal(t, "Pushed a\nNow at patch a\n", s.Output())
		s.ExpectOrder([]string{"a"}, []string{"b", "c"}, nil).ExpectConsistent()
	})

	t.Run("push all then pop to a named patch", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c").Pop(3)
		s.Output()

		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{All: true}))
		require.Equal(t, "Pushed a, b, c\nNow at patch c\n", s.Output())

		require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{Name: "b"}))
		require.Equal(t, "Popped c, b\nNow at patch a\n", s.Output())
		s.ExpectOrder([]string{"a"}, []string{"b", "c"}, nil).ExpectConsistent()

		require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{All: true}))
		require.Contains(t, s.Output(), "No patches applied")
	})

	t.Run("configured default count", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c").Pop(3)
		s.Context.Config.PushDefaultCount = 2

		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{}))
		s.ExpectOrder([]string{"a", "b"}, []string{"c"}, nil)
	})

	t.Run("nothing to push", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a")
		err := actions.PushAction(s.Context, actions.PushOptions{})
		require.ErrorIs(t, err, pserrors.ErrNothingToDo)
	})
}

func TestNewAction(t *testing.T) {
	t.Run("explicit name and message", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		s.Write("x.txt", "x\n")

		require.NoError(t, actions.NewAction(s.Context, actions.NewOptions{Name: "x", Message: "Add x"}))
		require.Equal(t, "Created patch x\n", s.Output())

		patch, err := s.Stack.Query(s.Ctx, "x")
		require.NoError(t, err)
		require.Equal(t, "Add x", patch.Subject())
		s.ExpectOrder([]string{"x"}, nil, nil).ExpectConsistent()
	})

	t.Run("name derived from the message", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		s.Write("p.go", "package p\n")
		require.NoError(t, actions.NewAction(s.Context, actions.NewOptions{Message: "feat: Add parser"}))
		s.Write("p.go", "package p\n\nfunc Parse() {}\n")
		require.NoError(t, actions.NewAction(s.Context, actions.NewOptions{Message: "feat: Add parser"}))
		s.ExpectOrder([]string{"add-parser", "add-parser-2"}, nil, nil)
	})

	t.Run("name required without a terminal", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		err := actions.NewAction(s.Context, actions.NewOptions{})
		require.ErrorContains(t, err, "a patch name or message is required")
	})

	t.Run("invalid name", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		err := actions.NewAction(s.Context, actions.NewOptions{Name: "-bad"})
		require.ErrorIs(t, err, pserrors.ErrInvalidPatchName)
	})
}

func TestRefreshAction(t *testing.T) {
	s := scenario.NewScenario(t, nil).WithPatches("a")
	s.Output()

	s.Write("a.txt", "changed\n")
	require.NoError(t, actions.RefreshAction(s.Context, actions.RefreshOptions{}))
	require.Equal(t, "Refreshed patch a\n", s.Output())
	s.ExpectConsistent()

	err := actions.RefreshAction(s.Context, actions.RefreshOptions{})
	require.ErrorIs(t, err, pserrors.ErrNothingToDo)
}

func TestSeriesAction(t *testing.T) {
	s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c", "d").Pop(2)
	_, err := s.Stack.Hide(s.Ctx, []string{"d"})
	require.NoError(t, err)
	s.Output()

	t.Run("applied and unapplied by default", func(t *testing.T) {
		require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{}))
		require.Equal(t, "+ a\n> b\n- c\n", s.Output())
	})

	t.Run("all includes hidden", func(t *testing.T) {
		require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{All: true}))
		require.Equal(t, "+ a\n> b\n- c\n! d\n", s.Output())
	})

	t.Run("single list without prefixes", func(t *testing.T) {
		require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{
			Lists:    []engine.ListKind{engine.ListApplied},
			NoPrefix: true,
		}))
		require.Equal(t, "a\nb\n", s.Output())

		require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{
			Lists:    []engine.ListKind{engine.ListHidden},
			NoPrefix: true,
		}))
		require.Equal(t, "d\n", s.Output())
	})

	t.Run("descriptions", func(t *testing.T) {
		require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{Description: true}))
		require.Equal(t, "+ a  # patch a\n> b  # patch b\n- c  # patch c\n", s.Output())
	})

	t.Run("empty selection prints nothing", func(t *testing.T) {
		empty := scenario.NewScenario(t, nil)
		require.NoError(t, actions.SeriesAction(empty.Context, actions.SeriesOptions{}))
		require.Empty(t, empty.Output())
	})
}

func TestTopNextActions(t *testing.T) {
	s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c").Pop(1)
	s.Output()

	require.NoError(t, actions.TopAction(s.Context))
	require.Equal(t, "b\n", s.Output())
	require.NoError(t, actions.NextAction(s.Context))
	require.Equal(t, "c\n", s.Output())

	s.Pop(2)
	require.ErrorIs(t, actions.TopAction(s.Context), pserrors.ErrNothingToDo)

	_, err := s.Stack.Push(s.Ctx, engine.PushOptions{All: true})
	require.NoError(t, err)
	require.ErrorIs(t, actions.NextAction(s.Context), pserrors.ErrNothingToDo)
}

func TestShowAction(t *testing.T) {
	s := scenario.NewScenario(t, map[string]string{"README.md": "base\n", "old.txt": "old\n"})
	s.Write("README.md", "changed\n").Write("new.txt", "new\n")
	s.Repo.RemoveFile("old.txt")
	_, err := s.Stack.New(s.Ctx, "edit", "Edit files\n\nWith a body")
	require.NoError(t, err)
	s.Output()

	require.NoError(t, actions.ShowAction(s.Context, actions.ShowOptions{}))
	out := s.Output()
	require.Contains(t, out, "patch edit (applied)\n")
	require.Contains(t, out, "    Edit files\n    \n    With a body\n")
	require.Contains(t, out, "M README.md\nA new.txt\nD old.txt\n")

	err = actions.ShowAction(s.Context, actions.ShowOptions{Name: "missing"})
	require.ErrorIs(t, err, pserrors.ErrUnknownPatch)
}

// conflicting builds two patches that both rewrite README.md, so swapping
// them conflicts on each push
func conflicting(t *testing.T) *scenario.Scenario {
	s := scenario.NewScenario(t, nil).
		NewPatch("one", map[string]string{"README.md": "one\n"}).
		NewPatch("two", map[string]string{"README.md": "two\n"})
	s.Output()
	return s
}

func TestReorderConflicts(t *testing.T) {
	t.Run("conflict is reported and blocks other commands", func(t *testing.T) {
		s := conflicting(t)

		err := actions.ReorderAction(s.Context, actions.ReorderOptions{Order: []string{"two", "one"}})
		require.ErrorIs(t, err, pserrors.ErrConflicted)
		out := s.Output()
		require.Contains(t, out, "reorder stopped: patch two does not apply cleanly")
		require.Contains(t, out, "  README.md\n")
		require.Contains(t, out, "patchstack resume")

		require.NoError(t, actions.StatusAction(s.Context))
		out = s.Output()
		require.Contains(t, out, "Status: conflicted")
		require.Contains(t, out, "reorder two one stopped")

		require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{}))
		require.Contains(t, s.Output(), "two (conflict)")

		err = actions.PushAction(s.Context, actions.PushOptions{})
		require.ErrorIs(t, err, pserrors.ErrUnresolvedConflict)
	})

	t.Run("abort restores the stack", func(t *testing.T) {
		s := conflicting(t)
		require.Error(t, actions.ReorderAction(s.Context, actions.ReorderOptions{Order: []string{"two", "one"}}))
		s.Output()

		require.NoError(t, actions.AbortAction(s.Context, actions.AbortOptions{}))
		require.Equal(t, "Aborted reorder\nNow at patch two\n", s.Output())
		s.ExpectOrder([]string{"one", "two"}, nil, nil).ExpectConsistent()

		require.ErrorIs(t, actions.AbortAction(s.Context, actions.AbortOptions{}), pserrors.ErrNoConflict)
	})

	t.Run("resume after resolving each conflict", func(t *testing.T) {
		s := conflicting(t)
		require.Error(t, actions.ReorderAction(s.Context, actions.ReorderOptions{Order: []string{"two", "one"}}))
		s.Output()

		s.Write("README.md", "two\n")
		err := actions.ResumeAction(s.Context, actions.ResumeOptions{})
		require.ErrorIs(t, err, pserrors.ErrConflicted)
		require.Contains(t, s.Output(), "reorder stopped: patch one does not apply cleanly")

		s.Write("README.md", "two\none\n")
		require.NoError(t, actions.ResumeAction(s.Context, actions.ResumeOptions{}))
		out := s.Output()
		require.Contains(t, out, "Resumed reorder\n")
		require.Contains(t, out, "Now at patch one\n")
		s.ExpectOrder([]string{"two", "one"}, nil, nil).ExpectConsistent()

		require.NoError(t, actions.StatusAction(s.Context))
		require.Contains(t, s.Output(), "Status: clean")
	})

	t.Run("resume with nothing paused", func(t *testing.T) {
		s := conflicting(t)
		err := actions.ResumeAction(s.Context, actions.ResumeOptions{})
		require.ErrorIs(t, err, pserrors.ErrNoConflict)
	})
}

func TestReorderAction(t *testing.T) {
	t.Run("editor picks the new order", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c")
		s.Output()
		t.Setenv("PATCHSTACK_EDITOR", `printf 'c\nb\na\n' >`)

		require.NoError(t, actions.ReorderAction(s.Context, actions.ReorderOptions{}))
		require.Contains(t, s.Output(), "Pushed c, b, a\n")
		s.ExpectOrder([]string{"c", "b", "a"}, nil, nil).ExpectConsistent()
	})

	t.Run("emptied editor file cancels", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b")
		s.Output()
		t.Setenv("PATCHSTACK_EDITOR", `: >`)

		require.NoError(t, actions.ReorderAction(s.Context, actions.ReorderOptions{}))
		require.Equal(t, "Reorder canceled\n", s.Output())
		s.ExpectOrder([]string{"a", "b"}, nil, nil)
	})

	t.Run("unchanged order", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b")
		s.Output()
		require.NoError(t, actions.ReorderAction(s.Context, actions.ReorderOptions{Order: []string{"a", "b"}}))
		require.Equal(t, "Order unchanged\n", s.Output())
	})

	t.Run("unapplied patches only", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c").Pop(2)
		require.NoError(t, actions.ReorderAction(s.Context, actions.ReorderOptions{Order: []string{"a", "c", "b"}}))
		s.ExpectOrder([]string{"a"}, []string{"c", "b"}, nil)
	})

	t.Run("incomplete order", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b")
		err := actions.ReorderAction(s.Context, actions.ReorderOptions{Order: []string{"b"}})
		require.ErrorIs(t, err, pserrors.ErrInvalidPosition)
	})

	t.Run("empty stack", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		err := actions.ReorderAction(s.Context, actions.ReorderOptions{})
		require.ErrorContains(t, err, "no patches to reorder")
	})
}

func TestHideDeleteRenameActions(t *testing.T) {
	s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c").Pop(1)
	s.Output()

	require.NoError(t, actions.HideAction(s.Context, actions.HideOptions{Names: []string{"c"}}))
	require.Equal(t, "Hid c\n", s.Output())
	s.ExpectOrder([]string{"a", "b"}, nil, []string{"c"})

	require.ErrorIs(t, actions.HideAction(s.Context, actions.HideOptions{Names: []string{"b"}}), pserrors.ErrPatchApplied)
	require.ErrorContains(t, actions.HideAction(s.Context, actions.HideOptions{}), "at least one patch name")

	require.NoError(t, actions.UnhideAction(s.Context, actions.HideOptions{Names: []string{"c"}}))
	require.Equal(t, "Unhid c\n", s.Output())
	s.ExpectOrder([]string{"a", "b"}, []string{"c"}, nil)

	require.NoError(t, actions.DeleteAction(s.Context, actions.DeleteOptions{Names: []string{"c"}}))
	out := s.Output()
	require.Contains(t, out, "Deleted c\n")
	require.Contains(t, out, "hint: run patchstack undo")

	require.ErrorIs(t, actions.DeleteAction(s.Context, actions.DeleteOptions{Names: []string{"b"}}), pserrors.ErrPatchApplied)
	require.NoError(t, actions.DeleteAction(s.Context, actions.DeleteOptions{Names: []string{"b"}, Force: true}))
	require.Contains(t, s.Output(), "Popped b\n")
	s.ExpectOrder([]string{"a"}, nil, nil).ExpectConsistent()

	require.ErrorContains(t, actions.DeleteAction(s.Context, actions.DeleteOptions{}), "at least one patch name")

	require.NoError(t, actions.RenameAction(s.Context, actions.RenameOptions{NewName: "first"}))
	require.Equal(t, "Renamed a to first\n", s.Output())
	s.ExpectOrder([]string{"first"}, nil, nil).ExpectConsistent()

	require.NoError(t, actions.UndoAction(s.Context, actions.UndoOptions{}))
	require.Contains(t, s.Output(), "Undid rename a first")
	s.ExpectOrder([]string{"a"}, nil, nil).ExpectConsistent()
}

func TestUndoAction(t *testing.T) {
	t.Run("no history", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		require.NoError(t, actions.UndoAction(s.Context, actions.UndoOptions{}))
		require.Equal(t, "No undo history available.\n", s.Output())
	})

	t.Run("undo a specific entry", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c")
		s.Output()

		require.NoError(t, actions.UndoAction(s.Context, actions.UndoOptions{Seq: 2}))
		require.Contains(t, s.Output(), "Undid new b (#2)\n")
		s.ExpectOrder([]string{"a"}, nil, nil).ExpectConsistent()

		require.NoError(t, actions.UndoAction(s.Context, actions.UndoOptions{}))
		require.Contains(t, s.Output(), "Undid undo 2")
		s.ExpectOrder([]string{"a", "b", "c"}, nil, nil).ExpectConsistent()
	})

	t.Run("unknown entry", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a")
		err := actions.UndoAction(s.Context, actions.UndoOptions{Seq: 9})
		require.ErrorIs(t, err, pserrors.ErrNoLogEntry)
	})
}

func TestLogAction(t *testing.T) {
	t.Run("empty log", func(t *testing.T) {
		s := scenario.NewScenario(t, nil)
		require.NoError(t, actions.LogAction(s.Context, actions.LogOptions{}))
		require.Equal(t, "No transactions recorded.\n", s.Output())
	})

	t.Run("newest first", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b").Pop(1)
		s.Output()

		require.NoError(t, actions.LogAction(s.Context, actions.LogOptions{}))
		out := s.Output()
		require.Contains(t, out, "just now")
		require.Contains(t, out, "now at a")
		pop, newB, newA := strings.Index(out, "#3"), strings.Index(out, "new b"), strings.Index(out, "new a")
		require.True(t, pop >= 0 && pop < newB && newB < newA, out)

		require.NoError(t, actions.LogAction(s.Context, actions.LogOptions{Limit: 1}))
		out = s.Output()
		require.Contains(t, out, "pop")
		require.NotContains(t, out, "new a")
	})

	t.Run("prune keeps the newest entries", func(t *testing.T) {
		s := scenario.NewScenario(t, nil).WithPatches("a", "b", "c")
		s.Output()

		require.NoError(t, actions.LogAction(s.Context, actions.LogOptions{Prune: true, Keep: 1}))
		require.Equal(t, "Pruned 2 log entries\n", s.Output())
		entries, err := s.Stack.Log()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "new", entries[0].Command)
		require.Equal(t, []string{"c"}, entries[0].Args)

		require.ErrorContains(t, actions.LogAction(s.Context, actions.LogOptions{Prune: true, Keep: -1}), "must not be negative")
	})
}
