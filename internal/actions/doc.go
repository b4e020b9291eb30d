// Package actions provides high-level business logic for CLI commands.
//
// Each action corresponds to a patchstack command (new, push, pop, reorder,
// etc.) and orchestrates operations across the engine, git, and tui packages.
//
// Key patterns:
//   - Actions accept runtime.Context which provides the Stack, Splog, and other dependencies
//   - Actions are stateless - all state is managed through the Stack
//   - Actions handle user interaction through the tui package
//   - A paused transaction is reported here and returned as a *errors.ConflictError
//
// Dependencies:
//   - engine: Patch stack state and transactions
//   - git: Repository access for the git backend
//   - tui: Output, prompts and the reorder editor
package actions
