// Package store persists patch stacks under the repository's git directory.
//
// Each branch gets its own directory holding the stack document
// (stack.yaml), the paused transaction (transaction.json) and the
// append-only transaction log (log.jsonl).
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
)

const (
	// DirName is the directory under the git directory holding all state
	DirName = "patchstack"

	stackFileName       = "stack.yaml"
	transactionFileName = "transaction.json"
	logFileName         = "log.jsonl"
	seqFileName         = "log.seq"
	lockFileName        = "lock"
)

// FileStore is an engine.StateStore backed by files
type FileStore struct {
	mu  sync.Mutex
	dir string
}

var _ engine.StateStore = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at <gitDir>/patchstack
func NewFileStore(gitDir string) *FileStore {
	return &FileStore{dir: filepath.Join(gitDir, DirName)}
}

// Dir returns the root directory of the store
func (s *FileStore) Dir() string {
	return s.dir
}

// branchDir returns the directory holding the state of branch
func (s *FileStore) branchDir(branch string) string {
	return filepath.Join(s.dir, filepath.FromSlash(branch))
}

func (s *FileStore) path(branch, name string) string {
	return filepath.Join(s.branchDir(branch), name)
}

// IsInitialized reports whether branch has a stored stack
func (s *FileStore) IsInitialized(branch string) bool {
	_, err := os.Stat(s.path(branch, stackFileName))
	return err == nil
}

// Branches lists the branches that have a stored stack
func (s *FileStore) Branches() ([]string, error) {
	var branches []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || d.Name() != stackFileName {
			return nil
		}
		rel, err := filepath.Rel(s.dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		branches = append(branches, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stacks: %w", err)
	}
	return branches, nil
}

func (s *FileStore) LoadStack(branch string) (*engine.StackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStack(branch)
}

func (s *FileStore) loadStack(branch string) (*engine.StackState, error) {
	data, err := os.ReadFile(s.path(branch, stackFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pserrors.ErrStackNotInitialized
		}
		return nil, fmt.Errorf("failed to read stack file: %w", err)
	}
	var state engine.StackState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse stack file for %s: %w", branch, err)
	}
	if state.Branch == "" {
		state.Branch = branch
	}
	if state.Patches == nil {
		state.Patches = map[string]engine.PatchRecord{}
	}
	return &state, nil
}

func (s *FileStore) SaveStack(state *engine.StackState, expectedVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadStack(state.Branch)
	exists := err == nil
	if err != nil && !errors.Is(err, pserrors.ErrStackNotInitialized) {
		return err
	}
	switch {
	case expectedVersion == 0 && exists:
		return pserrors.ErrStackExists
	case expectedVersion != 0 && !exists:
		return pserrors.ErrStackNotInitialized
	case exists && current.Version != expectedVersion:
		return pserrors.NewRefMovedError(engine.StateRef(state.Branch),
			strconv.FormatUint(expectedVersion, 10), strconv.FormatUint(current.Version, 10))
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal stack: %w", err)
	}
	if err := writeFileAtomic(s.path(state.Branch, stackFileName), data); err != nil {
		return fmt.Errorf("failed to write stack file: %w", err)
	}
	return nil
}

func (s *FileStore) LoadTransaction(branch string) (*engine.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(branch, transactionFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read paused transaction: %w", err)
	}
	var tx engine.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to parse paused transaction: %w", err)
	}
	if tx.Patches == nil {
		tx.Patches = map[string]engine.PatchRecord{}
	}
	return &tx, nil
}

func (s *FileStore) SaveTransaction(tx *engine.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if err := writeFileAtomic(s.path(tx.Branch, transactionFileName), data); err != nil {
		return fmt.Errorf("failed to write paused transaction: %w", err)
	}
	return nil
}

func (s *FileStore) ClearTransaction(branch string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(branch, transactionFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear paused transaction: %w", err)
	}
	return nil
}

// writeFileAtomic replaces path with data through a temp file and rename,
// so readers see either the old or the new content
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(data); err != nil {
		return err
	}
	if err := tempFile.Sync(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}
