package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Log returns the committed transaction history, oldest first
func (s *Stack) Log() ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txlog.Entries(s.branch)
}

// Undo restores the state recorded before the newest log entry. The undo is
// itself logged, so undoing twice returns to where it started.
func (s *Stack) Undo(ctx context.Context) (*Result, error) {
	return s.UndoTo(ctx, 0)
}

// UndoTo restores the state recorded before the log entry seq
func (s *Stack) UndoTo(ctx context.Context, seq uint64) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx, false); err != nil {
		return nil, err
	}
	entry, err := s.txlog.Entry(s.branch, seq)
	if err != nil {
		return nil, err
	}
	before := entry.Before
	target, err := OrderFromRecord(before.Order)
	if err != nil {
		return nil, fmt.Errorf("log entry %d holds an invalid order: %w", entry.Seq, err)
	}
	if _, err := s.repo.ReadCommit(ctx, before.Head); err != nil {
		return nil, fmt.Errorf("commit %s recorded by log entry %d is no longer available: %w", before.Head, entry.Seq, err)
	}
	for _, name := range slices.Sorted(maps.Keys(before.Patches)) {
		id := before.Patches[name].Commit
		if _, err := s.repo.ReadCommit(ctx, id); err != nil {
			return nil, fmt.Errorf("commit %s of patch %s recorded by log entry %d is no longer available: %w", id, name, entry.Seq, err)
		}
	}

	tx := s.txlog.Begin(s.state, "undo", []string{strconv.FormatUint(entry.Seq, 10)})
	tx.Base = before.Base
	tx.SetTarget(target)
	tx.Patches = maps.Clone(before.Patches)
	if tx.Patches == nil {
		tx.Patches = map[string]PatchRecord{}
	}
	tx.Applied = slices.Clone(before.Order.Applied)
	tx.Top = before.Head
	s.logger.Debug("undoing transaction", "branch", s.branch, "seq", entry.Seq, "command", entry.Command)
	return s.run(ctx, tx)
}

// Prune keeps the newest keep log entries and returns how many were removed.
// Replaced commits only the removed entries referred to become unreachable.
func (s *Stack) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txlog.Prune(ctx, s.branch, keep)
}
