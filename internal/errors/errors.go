// Package errors provides sentinel errors and custom error types for patchstack.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrUnknownPatch indicates that a patch name is not part of the stack
	ErrUnknownPatch = errors.New("unknown patch")

	// ErrInvalidPosition indicates a malformed move or reorder target
	ErrInvalidPosition = errors.New("invalid position")

	// ErrPatchApplied indicates an attempt to remove or hide an applied patch
	ErrPatchApplied = errors.New("patch is applied")

	// ErrRefMoved indicates that the branch reference or stack state changed concurrently
	ErrRefMoved = errors.New("reference moved")

	// ErrConflicted indicates that applying a patch produced conflict markers
	ErrConflicted = errors.New("patch application conflicted")

	// ErrUnresolvedConflict indicates an operation was attempted while a conflict is pending
	ErrUnresolvedConflict = errors.New("unresolved conflict")

	// ErrNoConflict indicates resume or abort was requested with nothing paused
	ErrNoConflict = errors.New("no operation in progress")

	// ErrConflictMarkers indicates the working tree still contains conflict markers
	ErrConflictMarkers = errors.New("working tree still has conflict markers")

	// ErrDirtyWorkingTree indicates local changes that would be overwritten
	ErrDirtyWorkingTree = errors.New("working tree has local changes")

	// ErrStackNotInitialized indicates the branch has no patch stack
	ErrStackNotInitialized = errors.New("stack not initialized")

	// ErrStackExists indicates the branch already has a patch stack
	ErrStackExists = errors.New("stack already initialized")

	// ErrNothingToDo indicates there are no patches to push or pop
	ErrNothingToDo = errors.New("nothing to do")

	// ErrNoLogEntry indicates the requested transaction log entry does not exist
	ErrNoLogEntry = errors.New("no such log entry")

	// ErrInvalidPatchName indicates a name that cannot be used as a patch name
	ErrInvalidPatchName = errors.New("invalid patch name")
)

// UnknownPatchError represents an error when a patch is not found
type UnknownPatchError struct {
	Name string
}

func (e *UnknownPatchError) Error() string {
	return fmt.Sprintf("patch %s does not exist", e.Name)
}

// Is returns true if the target error is ErrUnknownPatch
func (e *UnknownPatchError) Is(target error) bool {
	return target == ErrUnknownPatch
}

// NewUnknownPatchError creates a new UnknownPatchError
func NewUnknownPatchError(name string) *UnknownPatchError {
	return &UnknownPatchError{Name: name}
}

// InvalidPositionError describes a bad move or reorder request
type InvalidPositionError struct {
	Name   string
	List   string
	Index  int
	Reason string
}

func (e *InvalidPositionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid position for %s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("invalid position %d in %s for %s", e.Index, e.List, e.Name)
}

// Is returns true if the target error is ErrInvalidPosition
func (e *InvalidPositionError) Is(target error) bool {
	return target == ErrInvalidPosition
}

// NewInvalidPositionError creates a new InvalidPositionError for an index out of bounds
func NewInvalidPositionError(name, list string, index int) *InvalidPositionError {
	return &InvalidPositionError{Name: name, List: list, Index: index}
}

// NewInvalidOrderError creates a new InvalidPositionError with a free-form reason
func NewInvalidOrderError(name, reason string) *InvalidPositionError {
	return &InvalidPositionError{Name: name, Reason: reason}
}

// PatchAppliedError is returned when an applied patch is removed without force
type PatchAppliedError struct {
	Name string
}

func (e *PatchAppliedError) Error() string {
	return fmt.Sprintf("patch %s is applied; pop it first or use --force", e.Name)
}

// Is returns true if the target error is ErrPatchApplied
func (e *PatchAppliedError) Is(target error) bool {
	return target == ErrPatchApplied
}

// NewPatchAppliedError creates a new PatchAppliedError
func NewPatchAppliedError(name string) *PatchAppliedError {
	return &PatchAppliedError{Name: name}
}

// RefMovedError reports a failed compare-and-swap on a reference
type RefMovedError struct {
	Ref      string
	Expected string
	Actual   string
}

func (e *RefMovedError) Error() string {
	return fmt.Sprintf("reference %s moved: expected %s, found %s", e.Ref, shortID(e.Expected), shortID(e.Actual))
}

// Is returns true if the target error is ErrRefMoved
func (e *RefMovedError) Is(target error) bool {
	return target == ErrRefMoved
}

// NewRefMovedError creates a new RefMovedError
func NewRefMovedError(ref, expected, actual string) *RefMovedError {
	return &RefMovedError{Ref: ref, Expected: expected, Actual: actual}
}

// ConflictError reports the patch whose application stopped a transaction
type ConflictError struct {
	Patch string
	Files []string
}

func (e *ConflictError) Error() string {
	if len(e.Files) > 0 {
		return fmt.Sprintf("conflict while pushing %s (%s)", e.Patch, strings.Join(e.Files, ", "))
	}
	return fmt.Sprintf("conflict while pushing %s", e.Patch)
}

// Is returns true if the target error is ErrConflicted
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflicted
}

// NewConflictError creates a new ConflictError
func NewConflictError(patch string, files []string) *ConflictError {
	return &ConflictError{Patch: patch, Files: files}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

func shortID(id string) string {
	if id == "" {
		return "<none>"
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
