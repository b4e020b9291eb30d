package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// Stack is the patch stack of one branch. It owns the PatchOrder and the
// patch table, and moves the branch reference through transactions.
type Stack struct {
	mu       sync.RWMutex
	branch   string
	repo     RepositoryAdapter
	store    StateStore
	txlog    *TransactionLog
	resolver *ConflictResolver
	logger   *slog.Logger

	state  *StackState
	paused *Transaction
}

// Result describes a committed or paused operation
type Result struct {
	Transaction string
	// Seq is the log sequence number of the committed transaction
	Seq   uint64
	Steps []StepRecord
	Order PatchOrder
}

// Pushed returns the patches pushed by the operation, in push order
func (r *Result) Pushed() []string {
	return r.names(StepPush)
}

// Popped returns the patches popped by the operation, in pop order
func (r *Result) Popped() []string {
	return r.names(StepPop)
}

// EmptyPatches returns the pushed patches that turned out empty
func (r *Result) EmptyPatches() []string {
	var names []string
	for _, step := range r.Steps {
		if step.Action == StepPush && step.Outcome == ApplyEmpty {
			names = append(names, step.Patch)
		}
	}
	return names
}

func (r *Result) names(action StepAction) []string {
	var names []string
	for _, step := range r.Steps {
		if step.Action == action {
			names = append(names, step.Patch)
		}
	}
	return names
}

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Stack
type Option func(*options)

// WithLogger sets the logger used for transaction lifecycle events
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock used to timestamp transactions and log entries
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Init creates the stack of branch with the current branch head as its base
func Init(ctx context.Context, repo RepositoryAdapter, store StateStore, branch string, opts ...Option) (*Stack, error) {
	head, err := repo.ReadRef(ctx, BranchRef(branch))
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, fmt.Errorf("branch %s does not exist or has no commits", branch)
	}
	state := &StackState{
		Branch:  branch,
		Base:    head,
		Version: 1,
		Order:   PatchOrder{}.Record(),
		Patches: map[string]PatchRecord{},
	}
	if err := store.SaveStack(state, 0); err != nil {
		return nil, err
	}
	return Open(ctx, repo, store, branch, opts...)
}

// Open loads the stack of branch, including any paused transaction
func Open(_ context.Context, repo RepositoryAdapter, store StateStore, branch string, opts ...Option) (*Stack, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	txlog := NewTransactionLog(repo, store, o.logger)
	txlog.now = o.now
	s := &Stack{
		branch:   branch,
		repo:     repo,
		store:    store,
		txlog:    txlog,
		resolver: NewConflictResolver(repo, o.logger),
		logger:   o.logger,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the persisted state, discarding the cached copy
func (s *Stack) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

func (s *Stack) reload() error {
	state, err := s.store.LoadStack(s.branch)
	if err != nil {
		return err
	}
	if _, err := OrderFromRecord(state.Order); err != nil {
		return fmt.Errorf("stored order of %s is corrupt: %w", s.branch, err)
	}
	tx, err := s.store.LoadTransaction(s.branch)
	if err != nil {
		return err
	}
	s.state = state
	s.paused = tx
	return nil
}

// Branch returns the branch name
func (s *Stack) Branch() string {
	return s.branch
}

// Base returns the commit the stack is built on
func (s *Stack) Base() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Base
}

// Head returns the commit the branch reference points at when clean
func (s *Stack) Head() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Head()
}

// Version returns the persisted state version
func (s *Stack) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Version
}

// Order returns the committed patch order
func (s *Stack) Order() PatchOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order()
}

func (s *Stack) order() PatchOrder {
	// validated on load and on every commit
	o, _ := OrderFromRecord(s.state.Order)
	return o
}

// Status returns Conflicted while a transaction is paused
func (s *Stack) Status() StackStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.paused != nil {
		return StackConflicted
	}
	return StackClean
}

// Paused returns a copy of the paused transaction, or nil
func (s *Stack) Paused() *Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.paused == nil {
		return nil
	}
	return s.paused.Clone()
}

// Query returns a patch with its commit metadata
func (s *Stack) Query(ctx context.Context, name string) (Patch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, s.order(), name)
}

// Series returns every patch: applied, unapplied, then hidden
func (s *Stack) Series(ctx context.Context) ([]Patch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := s.order()
	patches := make([]Patch, 0, order.Len())
	for _, name := range order.Names() {
		p, err := s.query(ctx, order, name)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func (s *Stack) query(ctx context.Context, order PatchOrder, name string) (Patch, error) {
	kind, idx, ok := order.ListOf(name)
	if !ok {
		return Patch{}, pserrors.NewUnknownPatchError(name)
	}
	rec := s.state.Patches[name]
	meta, err := s.repo.ReadCommit(ctx, rec.Commit)
	if err != nil {
		return Patch{}, fmt.Errorf("failed to read commit of %s: %w", name, err)
	}
	return Patch{
		Name:    name,
		Commit:  rec.Commit,
		List:    kind,
		Index:   idx,
		Empty:   rec.Empty,
		Message: meta.Message,
		Author:  meta.Author,
	}, nil
}

// Top returns the topmost applied patch
func (s *Stack) Top() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if top := s.order().Top(); top != "" {
		return top, nil
	}
	return "", fmt.Errorf("no patches applied: %w", pserrors.ErrNothingToDo)
}

// Next returns the first unapplied patch
func (s *Stack) Next() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if next := s.order().Next(); next != "" {
		return next, nil
	}
	return "", fmt.Errorf("no unapplied patches: %w", pserrors.ErrNothingToDo)
}

// checkWritable enforces the preconditions shared by every mutator
func (s *Stack) checkWritable(ctx context.Context, allowDirty bool) error {
	if s.paused != nil {
		return fmt.Errorf("%w: resolve and resume, or abort, the paused %s first",
			pserrors.ErrUnresolvedConflict, s.paused.Command)
	}
	status, err := s.repo.WorkingTreeStatus(ctx)
	if err != nil {
		return err
	}
	switch {
	case status == WorkingTreeConflicted:
		return pserrors.ErrConflictMarkers
	case status == WorkingTreeDirty && !allowDirty:
		return pserrors.ErrDirtyWorkingTree
	}
	ref := BranchRef(s.branch)
	actual, err := s.repo.ReadRef(ctx, ref)
	if err != nil {
		return err
	}
	if expected := s.state.Head(); actual != expected {
		return pserrors.NewRefMovedError(ref, expected, actual)
	}
	return nil
}

func (s *Stack) resultOf(tx *Transaction, seq uint64) *Result {
	order, _ := tx.TargetOrder()
	if tx.Status == TxCommitted {
		order = s.order()
	}
	return &Result{
		Transaction: tx.ID,
		Seq:         seq,
		Steps:       slices.Clone(tx.Done),
		Order:       order,
	}
}
