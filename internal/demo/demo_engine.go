package demo

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"patchstack.dev/patchstack/internal/engine"
)

// IsDemoMode reports whether PATCHSTACK_DEMO is set
func IsDemoMode() bool {
	return os.Getenv("PATCHSTACK_DEMO") != ""
}

// NewDemoStack builds an in-memory repository, initialises a stack on the
// demo branch and seeds it with the demo series.
func NewDemoStack(ctx context.Context, logger *slog.Logger) (*engine.Stack, *Repository, *engine.MemoryStore, error) {
	repo := NewRepository()
	if _, err := repo.InitBranch(demoBranch, demoBaseFiles, "Initial commit"); err != nil {
		return nil, nil, nil, err
	}
	store := engine.NewMemoryStore()
	stack, err := engine.Init(ctx, repo, store, demoBranch, engine.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	if err := Seed(ctx, stack, repo, demoPatches); err != nil {
		return nil, nil, nil, err
	}
	return stack, repo, store, nil
}

// Seed creates patches through the engine and then pops and hides them to
// match their State.
func Seed(ctx context.Context, stack *engine.Stack, repo *Repository, patches []Patch) error {
	for _, p := range patches {
		for path, content := range p.Files {
			repo.WriteFile(path, content)
		}
		if _, err := stack.New(ctx, p.Name, p.Message); err != nil {
			return fmt.Errorf("failed to seed patch %s: %w", p.Name, err)
		}
	}

	firstUnapplied := ""
	var hidden []string
	for _, p := range patches {
		if p.State != "applied" && firstUnapplied == "" {
			firstUnapplied = p.Name
		}
		if p.State == "hidden" {
			hidden = append(hidden, p.Name)
		}
	}
	if firstUnapplied != "" {
		if _, err := stack.Pop(ctx, engine.PopOptions{Name: firstUnapplied}); err != nil {
			return fmt.Errorf("failed to pop demo patches: %w", err)
		}
	}
	if len(hidden) > 0 {
		if _, err := stack.Hide(ctx, hidden); err != nil {
			return fmt.Errorf("failed to hide demo patches: %w", err)
		}
	}
	return nil
}
