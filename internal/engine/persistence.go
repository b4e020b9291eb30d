package engine

import (
	"maps"
	"time"
)

// StackState is the persisted state of a branch's stack
type StackState struct {
	Branch  string                 `json:"branch" yaml:"branch"`
	Base    string                 `json:"base" yaml:"base"`
	Version uint64                 `json:"version" yaml:"version"`
	Order   OrderRecord            `json:"order" yaml:"order"`
	Patches map[string]PatchRecord `json:"patches" yaml:"patches"`
}

// Head returns the commit the branch reference must point at when the
// stack is clean: the top applied patch, or the base.
func (s *StackState) Head() string {
	if n := len(s.Order.Applied); n > 0 {
		return s.Patches[s.Order.Applied[n-1]].Commit
	}
	return s.Base
}

// Clone returns a deep copy of the state
func (s *StackState) Clone() *StackState {
	c := *s
	c.Order = cloneRecord(s.Order)
	c.Patches = maps.Clone(s.Patches)
	if c.Patches == nil {
		c.Patches = map[string]PatchRecord{}
	}
	return &c
}

// Snapshot captures the visible state of a stack at one point in time
type Snapshot struct {
	Head    string                 `json:"head"`
	Base    string                 `json:"base"`
	Version uint64                 `json:"version"`
	Order   OrderRecord            `json:"order"`
	Patches map[string]PatchRecord `json:"patches"`
}

func snapshotOf(s *StackState) Snapshot {
	return Snapshot{
		Head:    s.Head(),
		Base:    s.Base,
		Version: s.Version,
		Order:   cloneRecord(s.Order),
		Patches: maps.Clone(s.Patches),
	}
}

// LogEntry is one committed transaction in the append-only log
type LogEntry struct {
	Seq         uint64       `json:"seq"`
	Transaction string       `json:"transaction"`
	Command     string       `json:"command"`
	Args        []string     `json:"args,omitempty"`
	Time        time.Time    `json:"time"`
	Before      Snapshot     `json:"before"`
	After       Snapshot     `json:"after"`
	Steps       []StepRecord `json:"steps,omitempty"`
}

// StateStore persists stacks, paused transactions and the transaction log
type StateStore interface {
	// LoadStack returns errors.ErrStackNotInitialized when the branch has no stack
	LoadStack(branch string) (*StackState, error)
	// SaveStack writes state if the stored version equals expectedVersion,
	// failing with errors.ErrRefMoved otherwise. An expectedVersion of zero
	// creates the stack and fails with errors.ErrStackExists when one is
	// already stored.
	SaveStack(state *StackState, expectedVersion uint64) error

	// LoadTransaction returns the paused transaction, or nil when none is stored
	LoadTransaction(branch string) (*Transaction, error)
	SaveTransaction(tx *Transaction) error
	ClearTransaction(branch string) error

	// AppendLog assigns the next sequence number to entry and stores it
	AppendLog(branch string, entry *LogEntry) (uint64, error)
	// ReadLog returns the entry with the given sequence number, or the newest
	// entry when seq is zero. Missing entries yield errors.ErrNoLogEntry.
	ReadLog(branch string, seq uint64) (*LogEntry, error)
	// ListLog returns every stored entry, oldest first
	ListLog(branch string) ([]LogEntry, error)
	// PruneLog keeps the newest keep entries and returns how many were removed
	PruneLog(branch string, keep int) (int, error)
}

func cloneRecord(r OrderRecord) OrderRecord {
	return OrderRecord{
		Applied:   nonNil(r.Applied),
		Unapplied: nonNil(r.Unapplied),
		Hidden:    nonNil(r.Hidden),
	}
}
