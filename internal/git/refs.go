package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// ReadRef returns the commit a ref points at, or "" when it does not exist
func (r *Repository) ReadRef(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resolved, err := r.repo.Reference(plumbing.ReferenceName(ref), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return resolved.Hash().String(), nil
}

// UpdateRef moves ref from one commit to another with compare-and-swap
// semantics. An empty from creates the ref, an empty to deletes it.
func (r *Repository) UpdateRef(ctx context.Context, ref, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch {
	case from == "" && to == "":
		return nil
	case from == "" || to == "" || !r.isLooseRef(ref):
		// creation, deletion and packed refs are left to git's own locking
		return r.updateRefCommand(ctx, ref, from, to)
	}

	fromHash, err := parseHash(from)
	if err != nil {
		return err
	}
	toHash, err := parseHash(to)
	if err != nil {
		return err
	}
	name := plumbing.ReferenceName(ref)
	err = r.repo.Storer.CheckAndSetReference(
		plumbing.NewHashReference(name, toHash),
		plumbing.NewHashReference(name, fromHash),
	)
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrReferenceHasChanged) {
		if moved := r.refMoved(ctx, ref, from); moved != nil {
			return moved
		}
	}
	return fmt.Errorf("failed to update %s: %w", ref, err)
}

func (r *Repository) isLooseRef(ref string) bool {
	info, err := os.Stat(filepath.Join(r.gitDir, filepath.FromSlash(ref)))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// updateRefCommand performs the update with git update-ref, whose old-value
// argument gives the same compare-and-swap guarantee. An all-zero old value
// asserts that the ref does not exist yet.
func (r *Repository) updateRefCommand(ctx context.Context, ref, from, to string) error {
	old := from
	if old == "" {
		old = plumbing.ZeroHash.String()
	}
	var args []string
	if to == "" {
		args = []string{"update-ref", "-d", ref, old}
	} else {
		args = []string{"update-ref", ref, to, old}
	}
	if _, err := r.runner.Run(ctx, args...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if moved := r.refMoved(ctx, ref, from); moved != nil && isRefMoved(moved) {
			return moved
		}
		return fmt.Errorf("failed to update %s: %w", ref, err)
	}
	return nil
}

// refMoved reports the current value of ref as a RefMovedError when it
// differs from expected
func (r *Repository) refMoved(ctx context.Context, ref, expected string) error {
	actual, err := r.ReadRef(ctx, ref)
	if err != nil {
		return err
	}
	if actual == expected {
		return nil
	}
	return pserrors.NewRefMovedError(ref, expected, actual)
}

func isRefMoved(err error) bool {
	return errors.Is(err, pserrors.ErrRefMoved)
}

// ListRefs returns the refs under prefix keyed by full name
func (r *Repository) ListRefs(ctx context.Context, prefix string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}
	defer iter.Close()

	result := make(map[string]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name().String()
		if strings.HasPrefix(name, prefix) {
			result[name] = ref.Hash().String()
		}
		return nil
	})
	return result, err
}
