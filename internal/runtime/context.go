package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"patchstack.dev/patchstack/internal/config"
	"patchstack.dev/patchstack/internal/demo"
	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
	"patchstack.dev/patchstack/internal/git"
	"patchstack.dev/patchstack/internal/store"
	"patchstack.dev/patchstack/internal/tui"
)

// Options controls how a Context is opened
type Options struct {
	// Branch overrides the checked-out branch
	Branch string
	// Dir is where repository discovery starts; defaults to the working directory
	Dir     string
	Debug   bool
	NoColor bool
	// Writer receives console output; defaults to stdout
	Writer io.Writer
	// ReadOnly skips the branch lock and allows branches that are not checked out
	ReadOnly bool
	// SkipStack leaves Stack nil, for commands that create it
	SkipStack bool
}

// Context provides access to the stack and output for commands
type Context struct {
	Context context.Context
	Stack   *engine.Stack
	Splog   *tui.Splog
	Config  *config.Config
	Branch  string

	// Repo and Store are the backend and state store the stack runs on
	Repo  engine.RepositoryAdapter
	Store engine.StateStore
	// Git is nil in demo mode
	Git  *git.Repository
	Demo bool

	lock *store.Lock
}

// NewContext wraps an existing stack, for tests and embedding
func NewContext(ctx context.Context, stack *engine.Stack, splog *tui.Splog) *Context {
	return &Context{
		Context: ctx,
		Stack:   stack,
		Splog:   splog,
		Config:  defaultConfig(),
		Branch:  stack.Branch(),
	}
}

// IsDemoMode reports whether commands run against the in-memory demo repository
func IsDemoMode() bool {
	return demo.IsDemoMode()
}

// Open builds the context for one command invocation: it discovers the
// repository, loads config, sets up logging, takes the branch lock and
// opens the stack.
func Open(ctx context.Context, opts Options) (*Context, error) {
	if IsDemoMode() {
		return openDemo(ctx, opts)
	}

	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	repo, err := git.OpenRepository(ctx, dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(repo.GitDir())
	if err != nil {
		return nil, err
	}
	tui.ConfigureColor(cfg.Color, opts.NoColor)
	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{
		Writer:        opts.Writer,
		Debug:         opts.Debug,
		LogFile:       cfg.LogFile,
		LogMaxSize:    cfg.LogMaxSize,
		LogMaxBackups: cfg.LogMaxBackups,
		LogMaxAge:     cfg.LogMaxAge,
	})
	if err != nil {
		return nil, err
	}

	c := &Context{
		Context: ctx,
		Splog:   splog,
		Config:  cfg,
		Git:     repo,
		Repo:    repo,
	}
	if err := c.resolveBranch(opts); err != nil {
		_ = c.Close()
		return nil, err
	}

	fs := store.NewFileStore(repo.GitDir())
	c.Store = fs
	if !opts.ReadOnly {
		lock, err := fs.Lock(ctx, c.Branch, cfg.LockTimeout)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.lock = lock
	}

	if opts.SkipStack {
		return c, nil
	}
	if err := c.openStack(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Context) resolveBranch(opts Options) error {
	current, err := c.Git.CurrentBranch()
	if opts.Branch == "" {
		if err != nil {
			return fmt.Errorf("cannot determine the stack branch (use --branch): %w", err)
		}
		c.Branch = current
		return nil
	}
	c.Branch = opts.Branch
	if !opts.ReadOnly && opts.Branch != current {
		return fmt.Errorf("branch %s is not checked out; check it out before changing its stack", opts.Branch)
	}
	return nil
}

func (c *Context) openStack() error {
	stack, err := engine.Open(c.Context, c.Repo, c.Store, c.Branch, engine.WithLogger(c.Splog.Logger()))
	if errors.Is(err, pserrors.ErrStackNotInitialized) {
		return fmt.Errorf("%w on branch %s. Run 'patchstack init' first", err, c.Branch)
	}
	if err != nil {
		return err
	}
	c.Stack = stack
	return nil
}

// InitStack creates the stack for the context's branch
func (c *Context) InitStack() (*engine.Stack, error) {
	stack, err := engine.Init(c.Context, c.Repo, c.Store, c.Branch, engine.WithLogger(c.Splog.Logger()))
	if err != nil {
		return nil, err
	}
	c.Stack = stack
	return stack, nil
}

// Close releases the branch lock and the log file
func (c *Context) Close() error {
	err := c.lock.Unlock()
	c.lock = nil
	if c.Splog != nil {
		err = errors.Join(err, c.Splog.Close())
	}
	return err
}

func openDemo(ctx context.Context, opts Options) (*Context, error) {
	tui.ConfigureColor(config.ColorAuto, opts.NoColor)
	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{Writer: opts.Writer, Debug: opts.Debug})
	if err != nil {
		return nil, err
	}
	stack, repo, st, err := demo.NewDemoStack(ctx, splog.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to build demo repository: %w", err)
	}
	c := &Context{
		Context: ctx,
		Stack:   stack,
		Splog:   splog,
		Config:  defaultConfig(),
		Branch:  stack.Branch(),
		Repo:    repo,
		Store:   st,
		Demo:    true,
	}
	if opts.SkipStack {
		c.Stack = nil
	}
	return c, nil
}

func defaultConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		return &config.Config{LockTimeout: store.DefaultLockTimeout, PushDefaultCount: 1, Color: config.ColorAuto}
	}
	return cfg
}
