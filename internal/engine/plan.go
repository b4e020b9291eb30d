package engine

import (
	"slices"

	pserrors "patchstack.dev/patchstack/internal/errors"
)

// PushOptions selects the patches a push applies. With nothing set the
// first unapplied patch is pushed.
type PushOptions struct {
	// Count pushes that many patches from the front of unapplied
	Count int
	// Name pushes up to and including the named patch
	Name string
	// All pushes every unapplied patch
	All bool
	// Force lets a hidden patch named explicitly be unhidden and pushed
	Force bool
}

// PopOptions selects the patches a pop unapplies. With nothing set the top
// patch is popped.
type PopOptions struct {
	// Count pops that many patches from the top of applied
	Count int
	// Name pops down to and including the named patch
	Name string
	// All pops every applied patch
	All bool
}

// plan is a target order plus the steps that reach it
type plan struct {
	target PatchOrder
	steps  []Step
}

func (p plan) empty() bool {
	return len(p.steps) == 0
}

func planPush(order PatchOrder, opts PushOptions) (plan, error) {
	if opts.Name != "" {
		kind, idx, ok := order.ListOf(opts.Name)
		if !ok {
			return plan{}, pserrors.NewUnknownPatchError(opts.Name)
		}
		switch kind {
		case ListApplied:
			return plan{}, pserrors.NewInvalidOrderError(opts.Name, "patch is already applied")
		case ListHidden:
			if !opts.Force {
				return plan{}, pserrors.NewInvalidOrderError(opts.Name, "patch is hidden; unhide it or push with force")
			}
			unhidden, err := order.Move(opts.Name, 0, ListUnapplied)
			if err != nil {
				return plan{}, err
			}
			return pushPrefix(unhidden, 1), nil
		default:
			return pushPrefix(order, idx+1), nil
		}
	}

	unapplied := order.unapplied
	if len(unapplied) == 0 {
		return plan{}, pserrors.ErrNothingToDo
	}
	n := len(unapplied)
	if !opts.All {
		n = min(max(opts.Count, 1), len(unapplied))
	}
	return pushPrefix(order, n), nil
}

func pushPrefix(order PatchOrder, n int) plan {
	names := order.unapplied[:n]
	target := order.clone()
	target.applied = slices.Concat(order.applied, names)
	target.unapplied = slices.Clone(order.unapplied[n:])

	steps := make([]Step, 0, n)
	for _, name := range names {
		steps = append(steps, Step{Patch: name, Action: StepPush})
	}
	return plan{target: target, steps: steps}
}

func planPop(order PatchOrder, opts PopOptions) (plan, error) {
	applied := order.applied
	if opts.Name != "" {
		kind, idx, ok := order.ListOf(opts.Name)
		if !ok {
			return plan{}, pserrors.NewUnknownPatchError(opts.Name)
		}
		if kind != ListApplied {
			return plan{}, pserrors.NewInvalidOrderError(opts.Name, "patch is not applied")
		}
		return popFrom(order, idx), nil
	}

	if len(applied) == 0 {
		return plan{}, pserrors.ErrNothingToDo
	}
	n := len(applied)
	if !opts.All {
		n = min(max(opts.Count, 1), len(applied))
	}
	return popFrom(order, len(applied)-n), nil
}

// popFrom pops every applied patch at index k and above
func popFrom(order PatchOrder, k int) plan {
	popped := order.applied[k:]
	target := order.clone()
	target.applied = slices.Clone(order.applied[:k])
	target.unapplied = slices.Concat(popped, order.unapplied)

	steps := make([]Step, 0, len(popped))
	for i := len(popped) - 1; i >= 0; i-- {
		steps = append(steps, Step{Patch: popped[i], Action: StepPop})
	}
	return plan{target: target, steps: steps}
}

// planReorder computes the minimal plan for a new series order: pop the
// applied patches above the first point of divergence, then push the new
// applied sequence from there.
func planReorder(order PatchOrder, newOrder []string) (plan, error) {
	series := order.Series()
	seen := make(map[string]bool, len(newOrder))
	for _, name := range newOrder {
		kind, _, ok := order.ListOf(name)
		if !ok {
			return plan{}, pserrors.NewUnknownPatchError(name)
		}
		if kind == ListHidden {
			return plan{}, pserrors.NewInvalidOrderError(name, "hidden patches cannot be reordered")
		}
		if seen[name] {
			return plan{}, pserrors.NewInvalidOrderError(name, "listed more than once")
		}
		seen[name] = true
	}
	for _, name := range series {
		if !seen[name] {
			return plan{}, pserrors.NewInvalidOrderError(name, "missing from the new order")
		}
	}

	n := len(order.applied)
	newApplied := newOrder[:n]
	k := 0
	for k < n && order.applied[k] == newApplied[k] {
		k++
	}

	target, err := NewPatchOrder(newApplied, newOrder[n:], order.hidden)
	if err != nil {
		return plan{}, err
	}

	steps := make([]Step, 0, 2*(n-k))
	for i := n - 1; i >= k; i-- {
		steps = append(steps, Step{Patch: order.applied[i], Action: StepPop})
	}
	for _, name := range newApplied[k:] {
		steps = append(steps, Step{Patch: name, Action: StepPush})
	}
	return plan{target: target, steps: steps}, nil
}
