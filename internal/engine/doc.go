// Package engine manages the patch stack of a branch.
//
// It is the core of patchstack, responsible for:
//   - Tracking which patches exist and their order (applied, unapplied, hidden)
//   - Applying and unapplying patches through a RepositoryAdapter
//   - Running multi-step operations as transactions that commit atomically,
//     pause on conflicts and resume or abort later
//   - Keeping an append-only transaction log for undo
//
// The engine never touches backend storage directly. Everything it needs
// from version control goes through RepositoryAdapter, and everything it
// persists goes through StateStore.
package engine
