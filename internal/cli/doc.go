// Package cli defines the patchstack command tree.
//
// Each command parses its flags into an actions.XxxOptions value and runs
// the action inside a runtime.Context opened by run. Commands that only
// read the stack open it without the branch lock.
package cli
