// Package utils provides shared utility functions.
//
// These utilities are used across multiple packages and include:
//   - Patch naming and sanitization
package utils
