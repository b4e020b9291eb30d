package engine

import (
	"strconv"
	"sync"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// MemoryStore is a StateStore kept in memory. It backs demo mode and tests.
type MemoryStore struct {
	mu     sync.Mutex
	stacks map[string]*StackState
	txs    map[string]*Transaction
	logs   map[string][]LogEntry
	seqs   map[string]uint64
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stacks: map[string]*StackState{},
		txs:    map[string]*Transaction{},
		logs:   map[string][]LogEntry{},
		seqs:   map[string]uint64{},
	}
}

var _ StateStore = (*MemoryStore)(nil)

func (m *MemoryStore) LoadStack(branch string) (*StackState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.stacks[branch]
	if !ok {
		return nil, pserrors.ErrStackNotInitialized
	}
	return state.Clone(), nil
}

func (m *MemoryStore) SaveStack(state *StackState, expectedVersion uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.stacks[state.Branch]
	switch {
	case expectedVersion == 0 && ok:
		return pserrors.ErrStackExists
	case expectedVersion != 0 && !ok:
		return pserrors.ErrStackNotInitialized
	case ok && current.Version != expectedVersion:
		return pserrors.NewRefMovedError(StateRef(state.Branch),
			strconv.FormatUint(expectedVersion, 10), strconv.FormatUint(current.Version, 10))
	}
	m.stacks[state.Branch] = state.Clone()
	return nil
}

func (m *MemoryStore) LoadTransaction(branch string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[branch]
	if !ok {
		return nil, nil
	}
	return tx.Clone(), nil
}

func (m *MemoryStore) SaveTransaction(tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.Branch] = tx.Clone()
	return nil
}

func (m *MemoryStore) ClearTransaction(branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txs, branch)
	return nil
}

func (m *MemoryStore) AppendLog(branch string, entry *LogEntry) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[branch]++
	e := *entry
	e.Seq = m.seqs[branch]
	m.logs[branch] = append(m.logs[branch], e)
	return e.Seq, nil
}

func (m *MemoryStore) ReadLog(branch string, seq uint64) (*LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.logs[branch]
	if len(entries) == 0 {
		return nil, pserrors.ErrNoLogEntry
	}
	if seq == 0 {
		e := entries[len(entries)-1]
		return &e, nil
	}
	for _, e := range entries {
		if e.Seq == seq {
			return &e, nil
		}
	}
	return nil, pserrors.ErrNoLogEntry
}

func (m *MemoryStore) ListLog(branch string) ([]LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.logs[branch]...), nil
}

func (m *MemoryStore) PruneLog(branch string, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.logs[branch]
	if len(entries) <= keep {
		return 0, nil
	}
	removed := len(entries) - keep
	m.logs[branch] = append([]LogEntry(nil), entries[removed:]...)
	return removed, nil
}
