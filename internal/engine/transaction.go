package engine

import (
	"maps"
	"slices"
	"time"
)

// TxStatus is the lifecycle state of a Transaction
type TxStatus string

const (
	TxActive     TxStatus = "active"
	TxConflicted TxStatus = "conflicted"
	TxCommitted  TxStatus = "committed"
	TxAborted    TxStatus = "aborted"
)

// StepAction is what a step does to its patch
type StepAction string

const (
	StepPush    StepAction = "push"
	StepPop     StepAction = "pop"
	StepNew     StepAction = "new"
	StepRefresh StepAction = "refresh"
)

// Step is one unit of work inside a transaction
type Step struct {
	Patch  string     `json:"patch"`
	Action StepAction `json:"action"`
}

func (s Step) String() string {
	return string(s.Action) + " " + s.Patch
}

// StepRecord is an executed step and what it produced
type StepRecord struct {
	Step
	Outcome ApplyOutcome `json:"outcome"`
	Commit  string       `json:"commit,omitempty"`
}

// Resolution is the classified result of applying one patch
type Resolution struct {
	Outcome ApplyOutcome
	Commit  string
	Markers *MarkerState
}

// Transaction stages a target order and patch table until it commits.
// A conflicted transaction is persisted and can be resumed or aborted.
type Transaction struct {
	ID        string    `json:"id"`
	Branch    string    `json:"branch"`
	Command   string    `json:"command"`
	Args      []string  `json:"args,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Status    TxStatus  `json:"status"`
	// Paused is set once the transaction has been persisted by a pause
	Paused bool `json:"paused"`

	// Prior is the state observed at Begin
	Prior Snapshot `json:"prior"`

	Base    string                 `json:"base"`
	Target  OrderRecord            `json:"target"`
	Patches map[string]PatchRecord `json:"patches"`
	// Applied is the applied sequence reached by the executed steps
	Applied []string `json:"applied"`
	// Top is the commit the executed steps ended on
	Top string `json:"top"`
	// Worktree is the tree-ish currently materialised in the working tree
	Worktree string `json:"worktree"`

	Done     []StepRecord `json:"done,omitempty"`
	Pending  []Step       `json:"pending,omitempty"`
	Conflict *MarkerState `json:"conflict,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// TargetOrder returns the staged target as a PatchOrder
func (tx *Transaction) TargetOrder() (PatchOrder, error) {
	return OrderFromRecord(tx.Target)
}

// SetTarget stages a new target order
func (tx *Transaction) SetTarget(o PatchOrder) {
	tx.Target = o.Record()
}

// Stage replaces the commit bound to a patch name
func (tx *Transaction) Stage(name string, rec PatchRecord) {
	tx.Patches[name] = rec
}

// Drop removes a patch from the staged table
func (tx *Transaction) Drop(name string) {
	delete(tx.Patches, name)
}

// Next returns the next pending step
func (tx *Transaction) Next() (Step, bool) {
	if len(tx.Pending) == 0 {
		return Step{}, false
	}
	return tx.Pending[0], true
}

// Conflicted reports whether the transaction is paused on a conflict
func (tx *Transaction) Conflicted() bool {
	return tx.Status == TxConflicted
}

// ConflictedPatch returns the patch whose push stopped the transaction
func (tx *Transaction) ConflictedPatch() string {
	if !tx.Conflicted() {
		return ""
	}
	if step, ok := tx.Next(); ok {
		return step.Patch
	}
	return ""
}

// headOf returns the commit at the top of the given applied sequence
func (tx *Transaction) headOf(applied []string) string {
	if len(applied) == 0 {
		return tx.Base
	}
	return tx.Patches[applied[len(applied)-1]].Commit
}

// Clone returns a deep copy of the transaction
func (tx *Transaction) Clone() *Transaction {
	c := *tx
	c.Args = slices.Clone(tx.Args)
	c.Prior.Order = cloneRecord(tx.Prior.Order)
	c.Prior.Patches = maps.Clone(tx.Prior.Patches)
	c.Target = cloneRecord(tx.Target)
	c.Patches = maps.Clone(tx.Patches)
	c.Applied = slices.Clone(tx.Applied)
	c.Done = slices.Clone(tx.Done)
	c.Pending = slices.Clone(tx.Pending)
	if tx.Conflict != nil {
		m := *tx.Conflict
		m.Files = slices.Clone(tx.Conflict.Files)
		c.Conflict = &m
	}
	return &c
}
