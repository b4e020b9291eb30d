package engine

import (
	"fmt"
	"time"
)

// ListKind identifies one of the three sequences of a PatchOrder
type ListKind int

const (
	// ListApplied is the sequence of patches applied to the branch, bottom first
	ListApplied ListKind = iota
	// ListUnapplied is the sequence of patches waiting to be pushed
	ListUnapplied
	// ListHidden is the sequence of patches excluded from default push and pop
	ListHidden
)

func (k ListKind) String() string {
	switch k {
	case ListApplied:
		return "applied"
	case ListUnapplied:
		return "unapplied"
	case ListHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// ApplyOutcome classifies the result of applying a patch commit onto a base
type ApplyOutcome int

const (
	// ApplyClean indicates the patch applied without conflicts
	ApplyClean ApplyOutcome = iota
	// ApplyConflicted indicates the merge left conflict markers
	ApplyConflicted
	// ApplyEmpty indicates the patch contributes no net change on the base
	ApplyEmpty
)

func (o ApplyOutcome) String() string {
	switch o {
	case ApplyClean:
		return "clean"
	case ApplyConflicted:
		return "conflicted"
	case ApplyEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// ApplyResult is returned by RepositoryAdapter.ApplyPatchCommit.
// Commit is set for ApplyClean, Markers for ApplyConflicted.
type ApplyResult struct {
	Outcome ApplyOutcome
	Commit  string
	Markers *MarkerState
}

// MarkerState describes a conflicted merge: the tree containing the
// conflict markers and the paths that conflicted.
type MarkerState struct {
	Tree  string   `json:"tree" yaml:"tree"`
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
}

// WorkingTreeStatus is the coarse state of the working tree
type WorkingTreeStatus int

const (
	// WorkingTreeClean means the index and worktree match the checked-out tree
	WorkingTreeClean WorkingTreeStatus = iota
	// WorkingTreeDirty means there are local modifications
	WorkingTreeDirty
	// WorkingTreeConflicted means conflict markers or unmerged entries remain
	WorkingTreeConflicted
)

func (s WorkingTreeStatus) String() string {
	switch s {
	case WorkingTreeClean:
		return "clean"
	case WorkingTreeDirty:
		return "dirty"
	case WorkingTreeConflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// StackStatus is the state of the Stack state machine
type StackStatus int

const (
	// StackClean means no transaction is paused
	StackClean StackStatus = iota
	// StackConflicted means a transaction is paused on a conflict
	StackConflicted
)

func (s StackStatus) String() string {
	if s == StackConflicted {
		return "conflicted"
	}
	return "clean"
}

// Signature identifies the author of a commit
type Signature struct {
	Name  string    `json:"name" yaml:"name"`
	Email string    `json:"email" yaml:"email"`
	When  time.Time `json:"when" yaml:"when"`
}

// CommitMeta is what the engine reads back from a backend commit
type CommitMeta struct {
	ID      string
	Tree    string
	Parents []string
	Message string
	Author  Signature
}

// Parent returns the first parent, or "" for a root commit
func (m CommitMeta) Parent() string {
	if len(m.Parents) == 0 {
		return ""
	}
	return m.Parents[0]
}

// CommitRequest describes a commit to create. An empty Tree reuses the
// parent's tree and a nil Author uses the backend default identity.
type CommitRequest struct {
	Parent  string
	Tree    string
	Message string
	Author  *Signature
}

// MarshalText encodes the outcome by name
func (o ApplyOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *ApplyOutcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "clean":
		*o = ApplyClean
	case "conflicted":
		*o = ApplyConflicted
	case "empty":
		*o = ApplyEmpty
	default:
		return fmt.Errorf("unknown apply outcome %q", text)
	}
	return nil
}
