// Package tui is an interactive conflict browser.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/crewsched/internal/application"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/resolution"
)

// View represents the current view state
type View int

const (
	ConflictListView View = iota
	SuggestionView
)

// KeyMap defines key bindings
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Apply   key.Binding
	Quit    key.Binding
	Refresh key.Binding
}

var keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "suggestions"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Apply: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "apply"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rescan"),
	),
}

// Model is the main TUI model
type Model struct {
	conflictSvc *application.ConflictService
	resolveSvc  *application.ResolutionService

	view        View
	conflicts   []conflict.Conflict
	suggestions []resolution.Suggestion
	selected    *conflict.Conflict
	cursor      int
	status      string
	width       int
	height      int
	err         error
}

// New creates a new TUI model
func New(conflictSvc *application.ConflictService, resolveSvc *application.ResolutionService) Model {
	return Model{
		conflictSvc: conflictSvc,
		resolveSvc:  resolveSvc,
		view:        ConflictListView,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.loadConflicts
}

func (m Model) loadConflicts() tea.Msg {
	conflicts, err := m.conflictSvc.ScanAll(context.Background())
	if err != nil {
		return errMsg{err}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Severity != conflicts[j].Severity {
			return severityRank(conflicts[i].Severity) < severityRank(conflicts[j].Severity)
		}
		return conflicts[i].ID < conflicts[j].ID
	})
	return conflictsMsg(conflicts)
}

func severityRank(s conflict.Severity) int {
	switch s {
	case conflict.SeverityCritical:
		return 0
	case conflict.SeverityHigh:
		return 1
	case conflict.SeverityMedium:
		return 2
	default:
		return 3
	}
}

func (m Model) loadSuggestions() tea.Msg {
	if m.selected == nil {
		return nil
	}
	suggestions, err := m.resolveSvc.Suggestions(context.Background(), *m.selected)
	if err != nil {
		return errMsg{err}
	}
	return suggestionsMsg(suggestions)
}

func (m Model) applySelected() tea.Msg {
	if m.cursor >= len(m.suggestions) {
		return nil
	}
	sug := m.suggestions[m.cursor]
	if !sug.AutoApplicable {
		return statusMsg("suggestion is not auto-applicable")
	}
	result := m.resolveSvc.Apply(context.Background(), sug)
	if !result.Success {
		return statusMsg("apply failed: " + result.Error)
	}
	m.conflictSvc.InvalidateScan()
	return appliedMsg{}
}

type errMsg struct{ err error }
type conflictsMsg []conflict.Conflict
type suggestionsMsg []resolution.Suggestion
type statusMsg string
type appliedMsg struct{}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.cursor < m.maxItems()-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, keys.Enter):
			if m.view == ConflictListView && m.cursor < len(m.conflicts) {
				c := m.conflicts[m.cursor]
				m.selected = &c
				m.view = SuggestionView
				m.cursor = 0
				m.status = ""
				return m, m.loadSuggestions
			}
			return m, nil

		case key.Matches(msg, keys.Back):
			if m.view == SuggestionView {
				m.view = ConflictListView
				m.selected = nil
				m.suggestions = nil
				m.cursor = 0
				m.status = ""
			}
			return m, nil

		case key.Matches(msg, keys.Apply):
			if m.view == SuggestionView {
				return m, m.applySelected
			}
			return m, nil

		case key.Matches(msg, keys.Refresh):
			m.view = ConflictListView
			m.selected = nil
			m.cursor = 0
			m.status = ""
			return m, m.loadConflicts
		}

	case errMsg:
		m.err = msg.err
		return m, nil

	case conflictsMsg:
		m.conflicts = msg
		m.cursor = 0
		return m, nil

	case suggestionsMsg:
		m.suggestions = msg
		m.cursor = 0
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case appliedMsg:
		m.view = ConflictListView
		m.selected = nil
		m.suggestions = nil
		m.cursor = 0
		m.status = "resolution applied"
		return m, m.loadConflicts
	}

	return m, nil
}

func (m Model) maxItems() int {
	switch m.view {
	case ConflictListView:
		return len(m.conflicts)
	case SuggestionView:
		return len(m.suggestions)
	default:
		return 0
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")

	switch m.view {
	case ConflictListView:
		s.WriteString(m.renderConflictList())
	case SuggestionView:
		s.WriteString(m.renderSuggestions())
	}

	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(subtitleStyle.Render(m.status))
	}
	s.WriteString("\n\n")
	s.WriteString(m.renderHelp())

	return s.String()
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("Conflicts (%d)", len(m.conflicts))
	if m.view == SuggestionView && m.selected != nil {
		title = fmt.Sprintf("Conflicts > %s", m.selected.Type)
	}
	return headerStyle.Render(title)
}

func (m Model) renderConflictList() string {
	if len(m.conflicts) == 0 {
		return subtitleStyle.Render("No conflicts detected")
	}

	var s strings.Builder
	for i, c := range m.conflicts {
		cursor := "  "
		style := normalStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedStyle
		}
		sev := SeverityStyle(c.Severity).Render(fmt.Sprintf("[%s]", c.Severity))
		s.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, sev, style.Render(string(c.Type)), c.Message))
	}
	return s.String()
}

func (m Model) renderSuggestions() string {
	if m.selected != nil {
		s := SeverityStyle(m.selected.Severity)
		header := fmt.Sprintf("%s %s\n\n", s.Render(fmt.Sprintf("[%s]", m.selected.Severity)), m.selected.Message)
		if len(m.suggestions) == 0 {
			return header + subtitleStyle.Render("No suggestions available")
		}

		var b strings.Builder
		b.WriteString(header)
		b.WriteString(titleStyle.Render("Suggestions"))
		b.WriteString("\n")
		for i, sug := range m.suggestions {
			cursor := "  "
			style := normalStyle
			if i == m.cursor {
				cursor = "> "
				style = selectedStyle
			}
			auto := ""
			if sug.AutoApplicable {
				auto = autoStyle.Render(" [auto]")
			}
			cost := ""
			if sug.EstimatedCost != nil {
				cost = subtitleStyle.Render(fmt.Sprintf(" ~$%.0f", *sug.EstimatedCost))
			}
			b.WriteString(fmt.Sprintf("%s%s%s%s\n", cursor, style.Render(sug.Description), auto, cost))
			b.WriteString(subtitleStyle.Render(fmt.Sprintf("    confidence %d%%, impact %s", sug.Confidence, sug.Impact)))
			b.WriteString("\n")
		}
		return b.String()
	}
	return ""
}

func (m Model) renderHelp() string {
	var help string
	switch m.view {
	case ConflictListView:
		help = "[↑/k] Up  [↓/j] Down  [Enter] Suggestions  [r] Rescan  [q] Quit"
	case SuggestionView:
		help = "[↑/k] Up  [↓/j] Down  [a] Apply  [Esc] Back  [q] Quit"
	}
	return helpStyle.Render(help)
}

// Run starts the TUI
func Run(conflictSvc *application.ConflictService, resolveSvc *application.ResolutionService) error {
	p := tea.NewProgram(New(conflictSvc, resolveSvc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
