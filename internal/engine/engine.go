package engine

import "context"

// StackReader provides read-only access to a patch stack
// Thread-safe: All methods are safe for concurrent use
type StackReader interface {
	// State queries
	Branch() string
	Base() string
	Head() string
	Order() PatchOrder
	Status() StackStatus
	Paused() *Transaction

	// Patch queries
	Query(ctx context.Context, name string) (Patch, error)
	Series(ctx context.Context) ([]Patch, error)
	Top() (string, error)
	Next() (string, error)
}

// StackWriter provides the mutating operations of a patch stack. Every
// operation runs as a single transaction.
// Thread-safe: All methods are safe for concurrent use
type StackWriter interface {
	// Stack movement
	Push(ctx context.Context, opts PushOptions) (*Result, error)
	Pop(ctx context.Context, opts PopOptions) (*Result, error)
	Reorder(ctx context.Context, newOrder []string) (*Result, error)

	// Conflict handling
	Resume(ctx context.Context) (*Result, error)
	Abort(ctx context.Context) error

	// Patch management
	New(ctx context.Context, name, message string) (*Result, error)
	Refresh(ctx context.Context) (*Result, error)
	Hide(ctx context.Context, names []string) (*Result, error)
	Unhide(ctx context.Context, names []string) (*Result, error)
	Delete(ctx context.Context, names []string, force bool) (*Result, error)
	Rename(ctx context.Context, oldName, newName string) (*Result, error)
}

// HistoryManager provides access to the transaction log
// Thread-safe: All methods are safe for concurrent use
type HistoryManager interface {
	Log() ([]LogEntry, error)
	Undo(ctx context.Context) (*Result, error)
	UndoTo(ctx context.Context, seq uint64) (*Result, error)
	Prune(ctx context.Context, keep int) (int, error)
}

// Engine is the complete patch stack interface
// Thread-safe: All methods are safe for concurrent use
type Engine interface {
	StackReader
	StackWriter
	HistoryManager
}

var _ Engine = (*Stack)(nil)
