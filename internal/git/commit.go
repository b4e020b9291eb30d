package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"patchstack.dev/patchstack/internal/engine"
)

// CreateCommit writes a commit object and returns its id
func (r *Repository) CreateCommit(ctx context.Context, req engine.CommitRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	commit := &object.Commit{Message: ensureTrailingNewline(req.Message)}
	if req.Parent != "" {
		parent, err := r.commitObject(req.Parent)
		if err != nil {
			return "", err
		}
		commit.ParentHashes = []plumbing.Hash{parent.Hash}
		commit.TreeHash = parent.TreeHash
	}
	if req.Tree != "" {
		hash, err := parseHash(req.Tree)
		if err != nil {
			return "", err
		}
		if _, err := r.repo.TreeObject(hash); err != nil {
			return "", fmt.Errorf("failed to read tree %s: %w", req.Tree, err)
		}
		commit.TreeHash = hash
	}
	if commit.TreeHash.IsZero() {
		return "", fmt.Errorf("commit needs a parent or a tree")
	}

	committer := r.identity()
	author := committer
	if req.Author != nil {
		author = *req.Author
	}
	commit.Author = toSignature(author)
	commit.Committer = toSignature(committer)

	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode commit: %w", err)
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store commit: %w", err)
	}
	return hash.String(), nil
}

// ReadCommit returns the metadata of a commit
func (r *Repository) ReadCommit(ctx context.Context, id string) (engine.CommitMeta, error) {
	if err := ctx.Err(); err != nil {
		return engine.CommitMeta{}, err
	}
	commit, err := r.commitObject(id)
	if err != nil {
		return engine.CommitMeta{}, err
	}
	parents := make([]string, 0, len(commit.ParentHashes))
	for _, p := range commit.ParentHashes {
		parents = append(parents, p.String())
	}
	return engine.CommitMeta{
		ID:      commit.Hash.String(),
		Tree:    commit.TreeHash.String(),
		Parents: parents,
		Message: strings.TrimRight(commit.Message, "\n"),
		Author: engine.Signature{
			Name:  commit.Author.Name,
			Email: commit.Author.Email,
			When:  commit.Author.When,
		},
	}, nil
}

func (r *Repository) commitObject(id string) (*object.Commit, error) {
	hash, err := parseHash(id)
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", id, err)
	}
	return commit, nil
}

func parseHash(id string) (plumbing.Hash, error) {
	if !plumbing.IsHash(id) {
		return plumbing.ZeroHash, fmt.Errorf("invalid object id %q", id)
	}
	return plumbing.NewHash(id), nil
}

func toSignature(sig engine.Signature) object.Signature {
	return object.Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}
