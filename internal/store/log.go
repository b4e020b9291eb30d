package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"patchstack.dev/patchstack/internal/engine"
	pserrors "patchstack.dev/patchstack/internal/errors"
)

// maxLogLine bounds a single JSONL record; entries carry two snapshots of
// the patch table so they can grow with the stack
const maxLogLine = 16 * 1024 * 1024

// AppendLog assigns the next sequence number to entry and appends it to
// log.jsonl. The counter lives in log.seq so numbering stays monotonic
// across prunes.
func (s *FileStore) AppendLog(branch string, entry *engine.LogEntry) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.lastSeq(branch)
	if err != nil {
		return 0, err
	}
	e := *entry
	e.Seq = last + 1

	line, err := json.Marshal(&e)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	// the counter moves first: a crash in between leaves a gap, never a duplicate
	if err := writeFileAtomic(s.path(branch, seqFileName), []byte(strconv.FormatUint(e.Seq, 10)+"\n")); err != nil {
		return 0, fmt.Errorf("failed to write log sequence: %w", err)
	}

	f, err := os.OpenFile(s.path(branch, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return 0, fmt.Errorf("failed to append log entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync log: %w", err)
	}
	return e.Seq, nil
}

func (s *FileStore) ReadLog(branch string, seq uint64) (*engine.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLog(branch)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, pserrors.ErrNoLogEntry
	}
	if seq == 0 {
		e := entries[len(entries)-1]
		return &e, nil
	}
	for i := range entries {
		if entries[i].Seq == seq {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("log entry %d: %w", seq, pserrors.ErrNoLogEntry)
}

func (s *FileStore) ListLog(branch string) ([]engine.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLog(branch)
}

func (s *FileStore) PruneLog(branch string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	entries, err := s.readLog(branch)
	if err != nil {
		return 0, err
	}
	if len(entries) <= keep {
		return 0, nil
	}
	removed := len(entries) - keep

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := removed; i < len(entries); i++ {
		if err := enc.Encode(&entries[i]); err != nil {
			return 0, fmt.Errorf("failed to encode log entry %d: %w", entries[i].Seq, err)
		}
	}
	if err := writeFileAtomic(s.path(branch, logFileName), buf.Bytes()); err != nil {
		return 0, fmt.Errorf("failed to rewrite log: %w", err)
	}
	return removed, nil
}

// readLog parses every entry of log.jsonl, oldest first
func (s *FileStore) readLog(branch string) ([]engine.LogEntry, error) {
	f, err := os.Open(s.path(branch, logFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []engine.LogEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	entries := []engine.LogEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e engine.LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("corrupt log entry at %s:%d: %w", logFileName, lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return entries, nil
}

// lastSeq returns the last assigned sequence number, falling back to the
// newest log entry when the counter file is missing
func (s *FileStore) lastSeq(branch string) (uint64, error) {
	data, err := os.ReadFile(s.path(branch, seqFileName))
	switch {
	case err == nil:
		seq, perr := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("corrupt log sequence file: %w", perr)
		}
		return seq, nil
	case !errors.Is(err, fs.ErrNotExist):
		return 0, fmt.Errorf("failed to read log sequence: %w", err)
	}

	entries, err := s.readLog(branch)
	if err != nil {
		return 0, err
	}
	var last uint64
	for _, e := range entries {
		if e.Seq > last {
			last = e.Seq
		}
	}
	return last, nil
}
