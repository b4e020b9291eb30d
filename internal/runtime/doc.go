// Package runtime provides the execution context for patchstack commands.
//
// A Context bundles what one command invocation needs: the opened stack,
// its repository and state store, the loaded config, the logger, and the
// branch lock held for the duration of the command.
package runtime
