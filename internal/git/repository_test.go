package git_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/git"
	"patchstack.dev/patchstack/testhelpers"
)

const mainBranch = "main"

func openScene(t *testing.T, setup testhelpers.SceneSetup) (*testhelpers.Scene, *git.Repository) {
	t.Helper()
	if setup == nil {
		setup = testhelpers.BasicSceneSetup
	}
	scene := testhelpers.NewScene(t, setup)
	repo, err := git.OpenRepository(context.Background(), scene.Dir)
	require.NoError(t, err)
	return scene, repo
}

func openRepo(scene *testhelpers.Scene) (*git.Repository, error) {
	return git.OpenRepository(context.Background(), scene.Dir)
}

func TestOpenRepository(t *testing.T) {
	t.Run("resolves root and git dir", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		require.Equal(t, scene.Dir, repo.Root())
		require.Equal(t, filepath.Join(scene.Dir, ".git"), repo.GitDir())

		branch, err := repo.CurrentBranch()
		require.NoError(t, err)
		require.Equal(t, mainBranch, branch)
	})

	t.Run("opens from a subdirectory", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CommitFiles("nested", map[string]string{"a/b/c.txt": "c\n"})
		})
		repo, err := git.OpenRepository(context.Background(), filepath.Join(scene.Dir, "a", "b"))
		require.NoError(t, err)
		require.Equal(t, scene.Dir, repo.Root())
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		_, err := git.OpenRepository(context.Background(), t.TempDir())
		require.Error(t, err)
	})
}

func TestCommits(t *testing.T) {
	ctx := context.Background()

	t.Run("reads commit metadata", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		head := testhelpers.Must(scene.Repo.GetCurrentSHA())

		meta, err := repo.ReadCommit(ctx, head)
		require.NoError(t, err)
		require.Equal(t, head, meta.ID)
		require.Equal(t, "1", meta.Message)
		require.Empty(t, meta.Parents)
		require.Equal(t, testhelpers.Must(scene.Repo.GetRevision("HEAD^{tree}")), meta.Tree)
		require.Equal(t, "Test User", meta.Author.Name)
	})

	t.Run("creates commits on a parent", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		head := testhelpers.Must(scene.Repo.GetCurrentSHA())

		id, err := repo.CreateCommit(ctx, engine.CommitRequest{Parent: head, Message: "empty change"})
		require.NoError(t, err)

		meta, err := repo.ReadCommit(ctx, id)
		require.NoError(t, err)
		require.Equal(t, []string{head}, meta.Parents)
		require.Equal(t, "empty change", meta.Message)
		require.Equal(t, testhelpers.Must(scene.Repo.GetRevision("HEAD^{tree}")), meta.Tree)
		require.Equal(t, "Test User", meta.Author.Name)

		// git itself can read the object
		subject, err := scene.Repo.RunGitCommandAndGetOutput("log", "-1", "--format=%s", id)
		require.NoError(t, err)
		require.Equal(t, "empty change", subject)
	})

	t.Run("keeps an explicit author", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		head := testhelpers.Must(scene.Repo.GetCurrentSHA())
		when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		id, err := repo.CreateCommit(ctx, engine.CommitRequest{
			Parent:  head,
			Message: "authored",
			Author:  &engine.Signature{Name: "Ada", Email: "ada@example.com", When: when},
		})
		require.NoError(t, err)

		meta, err := repo.ReadCommit(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Ada", meta.Author.Name)
		require.Equal(t, "ada@example.com", meta.Author.Email)
		require.True(t, when.Equal(meta.Author.When))

		committer, err := scene.Repo.RunGitCommandAndGetOutput("log", "-1", "--format=%cn", id)
		require.NoError(t, err)
		require.Equal(t, "Test User", committer)
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		_, repo := openScene(t, nil)
		_, err := repo.ReadCommit(ctx, "not-a-hash")
		require.Error(t, err)
		_, err = repo.CreateCommit(ctx, engine.CommitRequest{Parent: "deadbeef"})
		require.Error(t, err)
	})
}

func TestUpdateRef(t *testing.T) {
	ctx := context.Background()
	const ref = "refs/patches/main/a"

	t.Run("creates updates and deletes with compare-and-swap", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		first := testhelpers.Must(scene.Repo.GetCurrentSHA())
		require.NoError(t, scene.Repo.CreateChangeAndCommit("2", "2"))
		second := testhelpers.Must(scene.Repo.GetCurrentSHA())

		value, err := repo.ReadRef(ctx, ref)
		require.NoError(t, err)
		require.Empty(t, value)

		require.NoError(t, repo.UpdateRef(ctx, ref, "", first))
		err = repo.UpdateRef(ctx, ref, "", second)
		require.ErrorIs(t, err, pserrors.ErrRefMoved, "creating an existing ref")

		require.NoError(t, repo.UpdateRef(ctx, ref, first, second))
		require.Equal(t, second, testhelpers.Must(scene.Repo.GetRef(ref)))

		err = repo.UpdateRef(ctx, ref, first, second)
		var moved *pserrors.RefMovedError
		require.ErrorAs(t, err, &moved)
		require.Equal(t, first, moved.Expected)
		require.Equal(t, second, moved.Actual)

		require.ErrorIs(t, repo.UpdateRef(ctx, ref, first, ""), pserrors.ErrRefMoved)
		require.NoError(t, repo.UpdateRef(ctx, ref, second, ""))
		value, err = repo.ReadRef(ctx, ref)
		require.NoError(t, err)
		require.Empty(t, value)
	})

	t.Run("moves the checked-out branch", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		first := testhelpers.Must(scene.Repo.GetCurrentSHA())
		require.NoError(t, scene.Repo.CreateChangeAndCommit("2", "2"))
		second := testhelpers.Must(scene.Repo.GetCurrentSHA())

		require.NoError(t, repo.UpdateRef(ctx, engine.BranchRef(mainBranch), second, first))
		require.Equal(t, first, testhelpers.Must(scene.Repo.GetCurrentSHA()))

		err := repo.UpdateRef(ctx, engine.BranchRef(mainBranch), second, first)
		require.ErrorIs(t, err, pserrors.ErrRefMoved)
	})

	t.Run("handles packed refs", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		first := testhelpers.Must(scene.Repo.GetCurrentSHA())
		require.NoError(t, scene.Repo.CreateChangeAndCommit("2", "2"))
		second := testhelpers.Must(scene.Repo.GetCurrentSHA())
		require.NoError(t, scene.Repo.RunGitCommand("pack-refs", "--all"))

		require.ErrorIs(t, repo.UpdateRef(ctx, engine.BranchRef(mainBranch), first, second), pserrors.ErrRefMoved)
		require.NoError(t, repo.UpdateRef(ctx, engine.BranchRef(mainBranch), second, first))
		require.Equal(t, first, testhelpers.Must(scene.Repo.GetCurrentSHA()))
	})

	t.Run("lists refs by prefix", func(t *testing.T) {
		scene, repo := openScene(t, nil)
		head := testhelpers.Must(scene.Repo.GetCurrentSHA())
		require.NoError(t, repo.UpdateRef(ctx, "refs/patches/main/a", "", head))
		require.NoError(t, repo.UpdateRef(ctx, "refs/patches/other/b", "", head))

		refs, err := repo.ListRefs(ctx, "refs/patches/main/")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"refs/patches/main/a": head}, refs)
	})
}
