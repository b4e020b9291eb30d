package runtime_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/store"
	"patchstack.dev/patchstack/testhelpers"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("uninitialized branch", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		_, err := runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Writer: &bytes.Buffer{}})
		require.ErrorIs(t, err, pserrors.ErrStackNotInitialized)
		require.ErrorContains(t, err, "patchstack init")
	})

	t.Run("init then open", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		c, err := runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Writer: &bytes.Buffer{}, SkipStack: true})
		require.NoError(t, err)
		require.Equal(t, "main", c.Branch)
		require.Equal(t, "2s", c.Config.LockTimeout.String())
		stack, err := c.InitStack()
		require.NoError(t, err)
		require.Equal(t, testhelpers.Must(scene.Repo.GetCurrentSHA()), stack.Base())
		require.NoError(t, c.Close())

		c, err = runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Writer: &bytes.Buffer{}})
		require.NoError(t, err)
		require.NotNil(t, c.Stack)
		require.False(t, c.Demo)
		require.NoError(t, c.Close())
	})

	t.Run("branch lock is exclusive", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		t.Setenv("PATCHSTACK_LOCK_TIMEOUT", "0s")
		first, err := runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Writer: &bytes.Buffer{}, SkipStack: true})
		require.NoError(t, err)

		_, err = runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Writer: &bytes.Buffer{}, SkipStack: true})
		require.ErrorIs(t, err, store.ErrLocked)

		reader, err := runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Writer: &bytes.Buffer{}, SkipStack: true, ReadOnly: true})
		require.NoError(t, err, "readers do not take the lock")
		require.NoError(t, reader.Close())

		require.NoError(t, first.Close())
		second, err := runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Writer: &bytes.Buffer{}, SkipStack: true})
		require.NoError(t, err)
		require.NoError(t, second.Close())
	})

	t.Run("other branches are read only", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, scene.Repo.CreateBranch("feature"))

		_, err := runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Branch: "feature", Writer: &bytes.Buffer{}, SkipStack: true})
		require.ErrorContains(t, err, "not checked out")

		c, err := runtime.Open(ctx, runtime.Options{Dir: scene.Dir, Branch: "feature", Writer: &bytes.Buffer{}, SkipStack: true, ReadOnly: true})
		require.NoError(t, err)
		require.Equal(t, "feature", c.Branch)
		require.NoError(t, c.Close())
	})

	t.Run("demo mode", func(t *testing.T) {
		t.Setenv("PATCHSTACK_DEMO", "1")
		c, err := runtime.Open(ctx, runtime.Options{Writer: &bytes.Buffer{}})
		require.NoError(t, err)
		require.True(t, c.Demo)
		require.Nil(t, c.Git)
		require.Len(t, c.Stack.Order().Applied(), 3)
		require.Len(t, c.Stack.Order().Unapplied(), 2)
		require.Len(t, c.Stack.Order().Hidden(), 1)
		require.NoError(t, c.Close())
	})
}
