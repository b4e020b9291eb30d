package actions

import (
	"fmt"

	"patchstack.dev/patchstack/internal/engine"
	"patchstack.dev/patchstack/internal/runtime"
	"patchstack.dev/patchstack/internal/tui"
	"patchstack.dev/patchstack/internal/utils"
)

// NewOptions contains options for the new command
type NewOptions struct {
	Name    string
	Message string
}

// NewAction records the working-tree changes as a new patch on top of the stack
func NewAction(ctx *runtime.Context, opts NewOptions) error {
	name, err := newPatchName(ctx, opts)
	if err != nil {
		return err
	}

	if _, err := ctx.Stack.New(ctx.Context, name, opts.Message); err != nil {
		return err
	}
	ctx.Splog.Info("Created patch %s", tui.ColorCyan(name))
	return nil
}

// newPatchName picks the name of a new patch: the one given, one derived
// from the message, or one typed at a prompt
func newPatchName(ctx *runtime.Context, opts NewOptions) (string, error) {
	if opts.Name != "" {
		return opts.Name, nil
	}
	order := ctx.Stack.Order()
	if derived := utils.PatchNameFromMessage(opts.Message); derived != "" {
		return utils.UniquePatchName(derived, order.Contains), nil
	}
	if !tui.IsTTY() {
		return "", fmt.Errorf("a patch name or message is required")
	}
	return tui.PromptPatchName("Name of the new patch:", "", func(name string) error {
		if err := engine.ValidatePatchName(name); err != nil {
			return err
		}
		if order.Contains(name) {
			return fmt.Errorf("patch %s already exists", name)
		}
		return nil
	})
}
