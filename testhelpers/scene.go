package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene represents a test scene with a temporary directory and Git repository.
type Scene struct {
	Dir  string
	Repo *GitRepo
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene with a temporary directory and Git repository.
// The process working directory is moved into the repository for the duration
// of the test, so scenes must not be used from parallel tests.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}

	repo, err := NewGitRepo(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{
		Dir:  tmpDir,
		Repo: repo,
	}

	t.Chdir(tmpDir)

	if err := scene.writeDefaultConfigs(); err != nil {
		t.Fatalf("Failed to write config files: %v", err)
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}

	return scene
}

// writeDefaultConfigs writes a patchstack config that keeps logs inside the scene.
func (s *Scene) writeDefaultConfigs() error {
	configDir := filepath.Join(s.Dir, ".git", "patchstack")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return err
	}
	config := "log:\n  file: " + filepath.Join(configDir, "patchstack.log") + "\nlock:\n  timeout: 2s\n"
	return os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(config), 0o600)
}

// BasicSceneSetup is a setup function that creates a basic scene with a single commit.
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CreateChangeAndCommit("1", "1")
}
