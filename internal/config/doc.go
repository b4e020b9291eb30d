// Package config manages patchstack configuration.
//
// Settings live in <git-dir>/patchstack/config.yaml and can be overridden
// with PATCHSTACK_* environment variables (PATCHSTACK_LOCK_TIMEOUT for
// lock.timeout and so on).
package config
