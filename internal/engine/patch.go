package engine

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"patchstack.dev/patchstack/internal/errors"
)

// Patch is one named change-set of a stack. The name is its identity; the
// commit is where its current content lives.
type Patch struct {
	Name    string
	Commit  string
	List    ListKind
	Index   int
	Empty   bool
	Message string
	Author  Signature
}

// Subject returns the first line of the patch message
func (p Patch) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(p.Message), "\n")
	return subject
}

// Applied reports whether the patch is on the applied list
func (p Patch) Applied() bool {
	return p.List == ListApplied
}

// Date returns the author timestamp
func (p Patch) Date() time.Time {
	return p.Author.When
}

// PatchRecord is the persisted binding of a patch name to its commit
type PatchRecord struct {
	Commit string `json:"commit" yaml:"commit"`
	Empty  bool   `json:"empty,omitempty" yaml:"empty,omitempty"`
}

// ValidatePatchName checks that name can be used as a patch name. Patch
// names become the last component of a pin reference, so they follow the
// git ref-format rules for a single component.
func ValidatePatchName(name string) error {
	invalid := func(reason string) error {
		return fmt.Errorf("%w: %q %s", errors.ErrInvalidPatchName, name, reason)
	}
	switch {
	case name == "":
		return invalid("is empty")
	case strings.HasPrefix(name, "-") || strings.HasPrefix(name, "."):
		return invalid("must not start with '-' or '.'")
	case strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, "."):
		return invalid("must not end with '.lock' or '.'")
	case strings.Contains(name, ".."), strings.Contains(name, "@{"):
		return invalid("must not contain '..' or '@{'")
	case name == "@":
		return invalid("is reserved")
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune("/\\~^:?*[", r) {
			return invalid(fmt.Sprintf("contains invalid character %q", r))
		}
	}
	return nil
}
