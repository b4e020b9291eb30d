package tui

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// OpenEditor opens the user's preferred editor with the given initial content.
// It returns the edited content or an error.
func OpenEditor(initialContent, filenamePattern string) (string, error) {
	tmpFile, err := os.CreateTemp("", filenamePattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	if _, err := tmpFile.WriteString(initialContent); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	cmd := exec.Command("sh", "-c", editorCommand()+` "$1"`, "sh", tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return string(content), nil
}

// editorCommand picks the editor the way git does
func editorCommand() string {
	for _, env := range []string{"PATCHSTACK_EDITOR", "GIT_EDITOR", "VISUAL", "EDITOR"} {
		if editor := os.Getenv(env); editor != "" {
			return editor
		}
	}
	if output, err := exec.Command("git", "config", "--get", "core.editor").Output(); err == nil {
		if editor := strings.TrimSpace(string(output)); editor != "" {
			return editor
		}
	}
	return "vi"
}

// FormatOrderFile renders the series as an editable order file
func FormatOrderFile(series []string, appliedCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Reorder the patches by moving lines, bottom of the stack first.\n")
	fmt.Fprintf(&b, "# The first %d patches will be applied. Lines starting with # are ignored.\n", appliedCount)
	b.WriteString("# Removing every line cancels the reorder.\n")
	for i, name := range series {
		if i == appliedCount {
			b.WriteString("# ---- unapplied ----\n")
		}
		b.WriteString(name)
		b.WriteString("\n")
	}
	return b.String()
}

// ParseOrderFile extracts patch names from an edited order file
func ParseOrderFile(content string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// EditOrder lets the user reorder series in their editor
func EditOrder(series []string, appliedCount int) ([]string, error) {
	content, err := OpenEditor(FormatOrderFile(series, appliedCount), "patchstack-order-*.txt")
	if err != nil {
		return nil, err
	}
	names := ParseOrderFile(content)
	if len(names) == 0 {
		return nil, ErrCanceled
	}
	return names, nil
}
