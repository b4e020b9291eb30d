// Package git provides the git-backed repository adapter for the patch
// stack engine.
//
// Objects and references are read and written through go-git:
//   - commit encoding and decoding
//   - compare-and-swap reference updates
//   - working tree status
//
// The git binary is used for what go-git cannot do: three-way merges
// (merge-tree), index-aware working tree moves (read-tree) and tree snapshots.
// This package should be the only place where git commands are executed.
package git
