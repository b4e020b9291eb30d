// Package tui provides the terminal user interface for patchstack.
//
// It handles:
//   - Interactive prompts (survey) and the reorder picker (bubbletea)
//   - Console and file logging (Splog)
//   - Series rendering and colours (lipgloss)
package tui
