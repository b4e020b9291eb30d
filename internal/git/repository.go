package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"

	"patchstack.dev/patchstack/internal/engine"
)

// Repository is the git-backed engine.RepositoryAdapter. Object and
// reference access goes through go-git; merges and working-tree moves go
// through the git binary.
type Repository struct {
	repo   *git.Repository
	runner *CommandRunner
	root   string
	gitDir string
	now    func() time.Time
}

var _ engine.RepositoryAdapter = (*Repository)(nil)

// OpenRepository opens the git repository containing path
func OpenRepository(ctx context.Context, path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	root, err := NewCommandRunner(absPath).Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git repository (or bare): %s: %w", absPath, err)
	}
	root = filepath.Clean(root)
	runner := NewCommandRunner(root)

	gitDir, err := runner.Run(ctx, "rev-parse", "--git-common-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to locate git directory: %w", err)
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Repository{
		repo:   repo,
		runner: runner,
		root:   root,
		gitDir: filepath.Clean(gitDir),
		now:    time.Now,
	}, nil
}

// Root returns the top-level directory of the working tree
func (r *Repository) Root() string {
	return r.root
}

// GitDir returns the repository's common git directory
func (r *Repository) GitDir() string {
	return r.gitDir
}

// Runner returns the command runner bound to the working tree
func (r *Repository) Runner() *CommandRunner {
	return r.runner
}

// CurrentBranch returns the name of the checked-out branch
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch")
	}

	return head.Name().Short(), nil
}

// identity returns the committer identity configured for the repository
func (r *Repository) identity() engine.Signature {
	sig := engine.Signature{Name: "patchstack", Email: "patchstack@localhost", When: r.now()}
	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return sig
	}
	switch {
	case cfg.Committer.Name != "":
		sig.Name = cfg.Committer.Name
	case cfg.User.Name != "":
		sig.Name = cfg.User.Name
	}
	switch {
	case cfg.Committer.Email != "":
		sig.Email = cfg.Committer.Email
	case cfg.User.Email != "":
		sig.Email = cfg.User.Email
	}
	return sig
}

func ensureTrailingNewline(message string) string {
	if message == "" || strings.HasSuffix(message, "\n") {
		return message
	}
	return message + "\n"
}
