package demo_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/demo"
	"patchstack.dev/patchstack/internal/engine"
)

func TestNewDemoStack(t *testing.T) {
	ctx := context.Background()
	stack, repo, _, err := demo.NewDemoStack(ctx, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	t.Run("series matches the demo data", func(t *testing.T) {
		order := stack.Order()
		require.Equal(t, demo.GetDemoBranch(), stack.Branch())
		require.Equal(t, []string{"add-logging", "forecast-units", "config-timeout"}, order.Applied())
		require.Equal(t, []string{"readme-usage", "cache-forecasts"}, order.Unapplied())
		require.Equal(t, []string{"experiment-grpc"}, order.Hidden())
		require.Len(t, demo.GetDemoPatches(), 6)
	})

	t.Run("worktree holds only applied changes", func(t *testing.T) {
		_, ok := repo.ReadFile("cache.go")
		require.False(t, ok)
		_, ok = repo.ReadFile("grpc.go")
		require.False(t, ok)
		server, ok := repo.ReadFile("server.go")
		require.True(t, ok)
		require.Contains(t, server, "log.Printf")
	})

	t.Run("seeding is logged", func(t *testing.T) {
		entries, err := stack.Log()
		require.NoError(t, err)
		require.Len(t, entries, 8)
		require.Equal(t, "new", entries[0].Command)
		require.Equal(t, "pop", entries[6].Command)
		require.Equal(t, "hide", entries[7].Command)
		require.Equal(t, []string{"experiment-grpc"}, entries[7].Args)
	})

	t.Run("pushing applies the patch files", func(t *testing.T) {
		res, err := stack.Push(ctx, engine.PushOptions{Count: 1})
		require.NoError(t, err)
		require.Equal(t, []string{"readme-usage"}, res.Pushed())
		readme, ok := repo.ReadFile("README.md")
		require.True(t, ok)
		require.Contains(t, readme, "## Usage")

		files, err := repo.CommitFiles(stack.Head())
		require.NoError(t, err)
		require.Equal(t, readme, files["README.md"])
	})
}

func TestIsDemoMode(t *testing.T) {
	t.Setenv("PATCHSTACK_DEMO", "")
	require.False(t, demo.IsDemoMode())
	t.Setenv("PATCHSTACK_DEMO", "1")
	require.True(t, demo.IsDemoMode())
}
