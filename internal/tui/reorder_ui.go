package tui

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type reorderAction int

const (
	cursorUp reorderAction = iota
	cursorDown
	cursorFirst
	cursorLast
	patchUp
	patchDown
	acceptOrder
	abandonOrder
)

type reorderBinding struct {
	action  reorderAction
	binding key.Binding
}

func bind(action reorderAction, helpKey, desc string, keys ...string) reorderBinding {
	return reorderBinding{action: action, binding: key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))}
}

// reorderBindings is checked in order; the first match wins
var reorderBindings = []reorderBinding{
	bind(cursorUp, "k", "prev", "k", "up"),
	bind(cursorDown, "j", "next", "j", "down"),
	bind(cursorFirst, "g", "bottom patch", "g", "home"),
	bind(cursorLast, "G", "top patch", "G", "end"),
	bind(patchUp, "K", "sink patch", "K", "shift+up"),
	bind(patchDown, "J", "lift patch", "J", "shift+down"),
	bind(acceptOrder, "enter", "apply order", "enter"),
	bind(abandonOrder, "esc", "keep order", "esc", "q", "ctrl+c"),
}

// reorderHelp adapts reorderBindings to help.KeyMap
type reorderHelp []reorderBinding

func (h reorderHelp) ShortHelp() []key.Binding {
	out := make([]key.Binding, 0, len(h))
	for _, b := range h {
		if b.action == cursorFirst || b.action == cursorLast {
			continue
		}
		out = append(out, b.binding)
	}
	return out
}

func (h reorderHelp) FullHelp() [][]key.Binding {
	var out [][]key.Binding
	for i := 0; i < len(h); i += 2 {
		out = append(out, []key.Binding{h[i].binding, h[min(i+1, len(h)-1)].binding})
	}
	return out
}

var (
	reorderCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	reorderTitleStyle  = lipgloss.NewStyle().Bold(true)
)

// reorderModel edits a patch series, bottom first. The first applied rows
// stay applied whatever patches end up there.
type reorderModel struct {
	series  []string
	applied int
	cursor  int
	outcome reorderAction
	done    bool
	help    help.Model
}

func newReorderModel(series []string, applied int) reorderModel {
	return reorderModel{
		series:  slices.Clone(series),
		applied: applied,
		help:    help.New(),
	}
}

func (m reorderModel) Init() tea.Cmd {
	return nil
}

func (m reorderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	idx := slices.IndexFunc(reorderBindings, func(b reorderBinding) bool {
		return key.Matches(keyMsg, b.binding)
	})
	if idx < 0 {
		return m, nil
	}

	last := len(m.series) - 1
	switch action := reorderBindings[idx].action; action {
	case cursorUp:
		m.cursor = max(m.cursor-1, 0)
	case cursorDown:
		m.cursor = min(m.cursor+1, last)
	case cursorFirst:
		m.cursor = 0
	case cursorLast:
		m.cursor = max(last, 0)
	case patchUp:
		if m.cursor > 0 {
			m.swap(m.cursor - 1)
		}
	case patchDown:
		if m.cursor < last {
			m.swap(m.cursor + 1)
		}
	case acceptOrder, abandonOrder:
		m.outcome = action
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// swap exchanges the patch under the cursor with the one at i and follows it
func (m *reorderModel) swap(i int) {
	m.series[m.cursor], m.series[i] = m.series[i], m.series[m.cursor]
	m.cursor = i
}

func (m reorderModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", reorderTitleStyle.Render(
		fmt.Sprintf("Reorder %d patches, bottom first (%d stay applied)", len(m.series), m.applied)))

	for i, name := range m.series {
		if i == m.applied {
			b.WriteString(dimStyle.Render("  ---- unapplied ----") + "\n")
		}
		style := unappliedStyle
		if i < m.applied {
			style = appliedStyle
		}
		marker := "  "
		if i == m.cursor {
			marker, style = reorderCursorStyle.Render("▸ "), reorderCursorStyle
		}
		b.WriteString(marker + style.Render(name) + "\n")
	}

	b.WriteString("\n" + m.help.View(reorderHelp(reorderBindings)) + "\n")
	return b.String()
}

// RunReorderTUI lets the user reorder series interactively and returns
// the new order
func RunReorderTUI(series []string, applied int) ([]string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return nil, err
	}
	final, err := tea.NewProgram(newReorderModel(series, applied),
		tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout)).Run()
	if err != nil {
		return nil, err
	}
	return reorderResult(final)
}

func reorderResult(m tea.Model) ([]string, error) {
	res, ok := m.(reorderModel)
	if !ok || !res.done || res.outcome != acceptOrder {
		return nil, ErrCanceled
	}
	return res.series, nil
}
