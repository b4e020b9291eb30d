package engine

import (
	"fmt"
	"slices"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// PatchOrder holds the three disjoint sequences of patch names. It is an
// immutable value: every mutator returns a new PatchOrder, which lets plans
// be computed and trial-run without touching the backend.
type PatchOrder struct {
	applied   []string
	unapplied []string
	hidden    []string
}

// OrderRecord is the serialisable form of a PatchOrder
type OrderRecord struct {
	Applied   []string `json:"applied" yaml:"applied"`
	Unapplied []string `json:"unapplied" yaml:"unapplied"`
	Hidden    []string `json:"hidden" yaml:"hidden"`
}

// NewPatchOrder builds a PatchOrder from the three sequences and validates it
func NewPatchOrder(applied, unapplied, hidden []string) (PatchOrder, error) {
	o := PatchOrder{
		applied:   slices.Clone(applied),
		unapplied: slices.Clone(unapplied),
		hidden:    slices.Clone(hidden),
	}
	if err := o.Validate(); err != nil {
		return PatchOrder{}, err
	}
	return o, nil
}

// OrderFromRecord converts a persisted record back into a PatchOrder
func OrderFromRecord(r OrderRecord) (PatchOrder, error) {
	return NewPatchOrder(r.Applied, r.Unapplied, r.Hidden)
}

// Record returns the serialisable form of the order
func (o PatchOrder) Record() OrderRecord {
	return OrderRecord{
		Applied:   nonNil(o.applied),
		Unapplied: nonNil(o.unapplied),
		Hidden:    nonNil(o.hidden),
	}
}

// Applied returns a copy of the applied sequence, bottom first
func (o PatchOrder) Applied() []string { return slices.Clone(o.applied) }

// Unapplied returns a copy of the unapplied sequence, next-to-push first
func (o PatchOrder) Unapplied() []string { return slices.Clone(o.unapplied) }

// Hidden returns a copy of the hidden sequence
func (o PatchOrder) Hidden() []string { return slices.Clone(o.hidden) }

// List returns a copy of the given sequence
func (o PatchOrder) List(kind ListKind) []string {
	return slices.Clone(o.list(kind))
}

// Series returns applied followed by unapplied, the default push order
func (o PatchOrder) Series() []string {
	return slices.Concat(o.applied, o.unapplied)
}

// Names returns every patch name: applied, unapplied, then hidden
func (o PatchOrder) Names() []string {
	return slices.Concat(o.applied, o.unapplied, o.hidden)
}

// Len returns the number of patches in the order
func (o PatchOrder) Len() int {
	return len(o.applied) + len(o.unapplied) + len(o.hidden)
}

// Top returns the topmost applied patch, or "" when nothing is applied
func (o PatchOrder) Top() string {
	if len(o.applied) == 0 {
		return ""
	}
	return o.applied[len(o.applied)-1]
}

// Next returns the first unapplied patch, or "" when there is none
func (o PatchOrder) Next() string {
	if len(o.unapplied) == 0 {
		return ""
	}
	return o.unapplied[0]
}

// Contains reports whether name is part of the order
func (o PatchOrder) Contains(name string) bool {
	_, _, ok := o.ListOf(name)
	return ok
}

// ListOf returns the sequence holding name and its index within it
func (o PatchOrder) ListOf(name string) (ListKind, int, bool) {
	for _, kind := range []ListKind{ListApplied, ListUnapplied, ListHidden} {
		if i := slices.Index(o.list(kind), name); i >= 0 {
			return kind, i, true
		}
	}
	return 0, -1, false
}

// Equal reports whether both orders hold the same sequences
func (o PatchOrder) Equal(other PatchOrder) bool {
	return slices.Equal(o.applied, other.applied) &&
		slices.Equal(o.unapplied, other.unapplied) &&
		slices.Equal(o.hidden, other.hidden)
}

// Validate checks that every name appears exactly once across the sequences
func (o PatchOrder) Validate() error {
	seen := make(map[string]ListKind, o.Len())
	for _, kind := range []ListKind{ListApplied, ListUnapplied, ListHidden} {
		for _, name := range o.list(kind) {
			if name == "" {
				return pserrors.NewInvalidOrderError(name, fmt.Sprintf("empty name in %s", kind))
			}
			if prev, dup := seen[name]; dup {
				return pserrors.NewInvalidOrderError(name, fmt.Sprintf("appears in both %s and %s", prev, kind))
			}
			seen[name] = kind
		}
	}
	return nil
}

// Move relocates name to targetIndex of target, preserving the relative
// order of every other patch. The index is interpreted after name has been
// removed from its current sequence, so the valid range is 0..len(target).
func (o PatchOrder) Move(name string, targetIndex int, target ListKind) (PatchOrder, error) {
	kind, idx, ok := o.ListOf(name)
	if !ok {
		return PatchOrder{}, pserrors.NewUnknownPatchError(name)
	}
	next := o.clone()
	next.set(kind, slices.Delete(next.list(kind), idx, idx+1))
	dst := next.list(target)
	if targetIndex < 0 || targetIndex > len(dst) {
		return PatchOrder{}, pserrors.NewInvalidPositionError(name, target.String(), targetIndex)
	}
	next.set(target, slices.Insert(dst, targetIndex, name))
	return next, nil
}

// Insert adds a new name at index of target
func (o PatchOrder) Insert(name string, target ListKind, index int) (PatchOrder, error) {
	if name == "" {
		return PatchOrder{}, pserrors.NewInvalidOrderError(name, "empty name")
	}
	if o.Contains(name) {
		return PatchOrder{}, pserrors.NewInvalidOrderError(name, "patch already exists")
	}
	dst := o.list(target)
	if index < 0 || index > len(dst) {
		return PatchOrder{}, pserrors.NewInvalidPositionError(name, target.String(), index)
	}
	next := o.clone()
	next.set(target, slices.Insert(next.list(target), index, name))
	return next, nil
}

// Remove drops name from the order. Applied patches need force.
func (o PatchOrder) Remove(name string, force bool) (PatchOrder, error) {
	kind, idx, ok := o.ListOf(name)
	if !ok {
		return PatchOrder{}, pserrors.NewUnknownPatchError(name)
	}
	if kind == ListApplied && !force {
		return PatchOrder{}, pserrors.NewPatchAppliedError(name)
	}
	next := o.clone()
	next.set(kind, slices.Delete(next.list(kind), idx, idx+1))
	return next, nil
}

// Rename binds the position of oldName to newName
func (o PatchOrder) Rename(oldName, newName string) (PatchOrder, error) {
	kind, idx, ok := o.ListOf(oldName)
	if !ok {
		return PatchOrder{}, pserrors.NewUnknownPatchError(oldName)
	}
	if oldName == newName {
		return o, nil
	}
	if o.Contains(newName) {
		return PatchOrder{}, pserrors.NewInvalidOrderError(newName, "patch already exists")
	}
	next := o.clone()
	next.list(kind)[idx] = newName
	return next, nil
}

func (o PatchOrder) list(kind ListKind) []string {
	switch kind {
	case ListApplied:
		return o.applied
	case ListUnapplied:
		return o.unapplied
	default:
		return o.hidden
	}
}

func (o *PatchOrder) set(kind ListKind, names []string) {
	switch kind {
	case ListApplied:
		o.applied = names
	case ListUnapplied:
		o.unapplied = names
	default:
		o.hidden = names
	}
}

func (o PatchOrder) clone() PatchOrder {
	return PatchOrder{
		applied:   slices.Clone(o.applied),
		unapplied: slices.Clone(o.unapplied),
		hidden:    slices.Clone(o.hidden),
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return slices.Clone(names)
}
