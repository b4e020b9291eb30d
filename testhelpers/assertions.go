// Package testhelpers provides testing utilities for patchstack, including
// a scene system, Git repository helpers, and custom assertions.
package testhelpers

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectCommits asserts the newest commit subjects on branch, newest first.
func ExpectCommits(t *testing.T, repo *GitRepo, branch string, expected []string) {
	t.Helper()

	output, err := repo.RunGitCommandAndGetOutput("log", "--format=%s", branch)
	require.NoError(t, err, "Failed to list commits")

	commits := splitLines(output)
	if len(commits) < len(expected) {
		require.Fail(t, "Not enough commits", "Expected %d commits, got %d", len(expected), len(commits))
		return
	}
	require.Equal(t, expected, commits[:len(expected)], "Commits do not match")
}

// ExpectPatchRefs asserts the names pinned under refs/patches/<branch>/.
func ExpectPatchRefs(t *testing.T, repo *GitRepo, branch string, expected []string) {
	t.Helper()

	prefix := "refs/patches/" + branch + "/"
	output, err := repo.RunGitCommandAndGetOutput("for-each-ref", "--format=%(refname)", prefix)
	require.NoError(t, err, "Failed to list patch refs")

	names := []string{}
	for _, ref := range splitLines(output) {
		names = append(names, strings.TrimPrefix(ref, prefix))
	}
	sort.Strings(names)
	want := append([]string{}, expected...)
	sort.Strings(want)
	require.Equal(t, want, names, "Patch refs do not match")
}

// ExpectCleanWorktree asserts that tracked files match HEAD.
func ExpectCleanWorktree(t *testing.T, repo *GitRepo) {
	t.Helper()

	status, err := repo.StatusPorcelain()
	require.NoError(t, err)
	require.Empty(t, status, "Working tree is not clean")
}
