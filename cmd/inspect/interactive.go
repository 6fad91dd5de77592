package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/embedkit/typesynth/foreign"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	classStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	reportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectClass modelState = iota
	stateShowType
	stateDeriveInput
)

type inspectModel struct {
	kit      *demoKit
	err      error
	entries  []*foreign.Class
	selected int
	report   string
	derive   textinput.Model
	state    modelState
}

type synthesizedMsg struct {
	err    error
	class  *foreign.Class
	report string
}

func newInspectModel(kit *demoKit) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "SubclassName"
	ti.Prompt = "name: "
	ti.Width = 40

	var entries []*foreign.Class
	kit.classes.Each(func(c *foreign.Class) bool {
		entries = append(entries, c)
		return true
	})

	return &inspectModel{kit: kit, entries: entries, derive: ti}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.kit.m.Teardown()
			return m, tea.Quit

		case "q":
			if m.state != stateDeriveInput {
				m.kit.m.Teardown()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectClass && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectClass && m.selected < len(m.entries)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectClass:
				return m, m.synthesizeSelected
			case stateShowType:
				m.state = stateSelectClass
				m.report = ""
				m.err = nil
			case stateDeriveInput:
				return m, m.deriveSubclass
			}

		case "d":
			if m.state == stateShowType && m.err == nil {
				m.derive.SetValue("")
				m.derive.Focus()
				m.state = stateDeriveInput
				return m, textinput.Blink
			}

		case "esc":
			switch m.state {
			case stateShowType:
				m.state = stateSelectClass
				m.report = ""
				m.err = nil
			case stateDeriveInput:
				m.derive.Blur()
				m.state = stateShowType
			}
		}

	case synthesizedMsg:
		m.err = msg.err
		m.report = msg.report
		if msg.class != nil {
			m.rescan()
		}
		m.derive.Blur()
		m.state = stateShowType
	}

	if m.state == stateDeriveInput {
		var cmd tea.Cmd
		m.derive, cmd = m.derive.Update(msg)
		return m, cmd
	}
	return m, nil
}

// rescan refreshes the class list after a derivation added an entry.
func (m *inspectModel) rescan() {
	m.entries = m.entries[:0]
	m.kit.classes.Each(func(c *foreign.Class) bool {
		m.entries = append(m.entries, c)
		return true
	})
}

func (m *inspectModel) synthesizeSelected() tea.Msg {
	c := m.entries[m.selected]
	typ, err := m.kit.m.Synthesize(c)
	if err != nil {
		return synthesizedMsg{err: err}
	}
	return synthesizedMsg{report: typeReport(m.kit, c, typ)}
}

func (m *inspectModel) deriveSubclass() tea.Msg {
	base := m.entries[m.selected]
	baseType, err := m.kit.m.Synthesize(base)
	if err != nil {
		return synthesizedMsg{err: err}
	}

	sub, err := m.kit.m.DeriveSubclass(m.derive.Value(), baseType, map[string]any{})
	if err != nil {
		return synthesizedMsg{err: err}
	}
	cls, _ := m.kit.m.ClassOf(sub)
	return synthesizedMsg{class: cls, report: typeReport(m.kit, cls, sub)}
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Type Synthesizer"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectClass:
		b.WriteString("Select a class to synthesize:\n\n")
		for i, c := range m.entries {
			line := m.formatClass(c)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter synthesize • q quit"))

	case stateShowType:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(reportStyle.Render(m.report))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("d derive subclass • enter back • q quit"))

	case stateDeriveInput:
		base := m.entries[m.selected]
		b.WriteString(fmt.Sprintf("Derive a subclass of %s\n\n", classStyle.Render(base.FullName)))
		b.WriteString(m.derive.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter derive • esc back"))
	}

	return b.String()
}

func (m *inspectModel) formatClass(c *foreign.Class) string {
	line := classStyle.Render(renderFullName(c)) + " " + kindStyle.Render(c.Kind.String())
	return line
}

// renderFullName shows bound generics inline, matching the synthesized
// type naming.
func renderFullName(c *foreign.Class) string {
	if len(c.GenericArgs) == 0 {
		return c.FullName
	}
	parts := make([]string, len(c.GenericArgs))
	for i, arg := range c.GenericArgs {
		parts[i] = renderFullName(arg)
	}
	return c.FullName + "[" + strings.Join(parts, ",") + "]"
}

func runInteractive() error {
	kit, err := newDemoKit()
	if err != nil {
		return err
	}

	p := tea.NewProgram(newInspectModel(kit), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
