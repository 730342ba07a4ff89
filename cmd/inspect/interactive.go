package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessao "github.com/sessao/session-core"
	"github.com/sessao/session-core/project"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D46")).
			Padding(0, 1)

	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D46"))

	terminalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD580"))

	trailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type screen int

const (
	screenRoles screen = iota
	screenWalk
)

// inspectModel walks a validated protocol: pick a role, then drive its
// typestate automaton operation by operation.
type inspectModel struct {
	res    *sessao.Result
	roles  []string
	filter textinput.Model

	screen    screen
	cursor    int
	role      string
	proj      *project.Projection
	state     project.StateID
	trail     []string
	filtering bool
}

func newInspectModel(res *sessao.Result) inspectModel {
	ti := textinput.New()
	ti.Placeholder = "filter roles"
	ti.CharLimit = 32
	return inspectModel{res: res, roles: res.Model.Roles(), filter: ti}
}

func runInteractive(res *sessao.Result) error {
	_, err := tea.NewProgram(newInspectModel(res), tea.WithAltScreen()).Run()
	return err
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) visibleRoles() []string {
	query := strings.ToLower(m.filter.Value())
	if query == "" {
		return m.roles
	}
	var out []string
	for _, r := range m.roles {
		if strings.Contains(strings.ToLower(r), query) {
			out = append(out, r)
		}
	}
	return out
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		switch key.String() {
		case "enter", "esc":
			m.filtering = false
			m.filter.Blur()
			m.cursor = 0
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}
	}

	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < m.itemCount()-1 {
			m.cursor++
		}

	case "/":
		if m.screen == screenRoles {
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		}

	case "r":
		if m.screen == screenWalk {
			m.state = m.proj.Start
			m.trail = nil
			m.cursor = 0
		}

	case "esc":
		if m.screen == screenWalk {
			m.screen = screenRoles
			m.cursor = 0
		}

	case "enter":
		return m.choose()
	}
	return m, nil
}

func (m inspectModel) itemCount() int {
	switch m.screen {
	case screenRoles:
		return len(m.visibleRoles())
	default:
		return len(m.currentOps())
	}
}

func (m inspectModel) currentOps() []project.Operation {
	if m.state == project.Closed {
		return nil
	}
	st := m.proj.State(m.state)
	if st == nil {
		return nil
	}
	return st.Ops
}

func (m inspectModel) choose() (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenRoles:
		roles := m.visibleRoles()
		if m.cursor >= len(roles) {
			return m, nil
		}
		m.role = roles[m.cursor]
		proj, err := m.res.Model.Projection(m.role)
		if err != nil {
			return m, nil
		}
		m.proj = proj
		m.state = proj.Start
		m.trail = nil
		m.cursor = 0
		m.screen = screenWalk

	case screenWalk:
		ops := m.currentOps()
		if m.cursor >= len(ops) {
			return m, nil
		}
		op := ops[m.cursor]
		if next, ok := m.proj.State(m.state).Next(op); ok {
			m.trail = append(m.trail, op.String())
			m.state = next
			m.cursor = 0
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	switch m.screen {
	case screenRoles:
		b.WriteString(titleStyle.Render("sessao inspect: "+m.res.Model.Protocol()) + "\n\n")
		if m.filtering || m.filter.Value() != "" {
			b.WriteString(m.filter.View() + "\n\n")
		}
		for i, r := range m.visibleRoles() {
			line := roleStyle.Render(r)
			if i == m.cursor && !m.filtering {
				line = selectedStyle.Render("> " + r)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("enter: walk role · /: filter · q: quit"))

	case screenWalk:
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s @ state %s", m.role, m.stateName())) + "\n\n")
		if len(m.trail) > 0 {
			b.WriteString(trailStyle.Render("trail: "+strings.Join(m.trail, " · ")) + "\n\n")
		}
		ops := m.currentOps()
		if len(ops) == 0 {
			b.WriteString(terminalStyle.Render("terminal state: protocol finished for this role") + "\n")
		}
		for i, op := range ops {
			next, _ := m.proj.State(m.state).Next(op)
			line := fmt.Sprintf("%s -> %s", opStyle.Render(op.String()), m.nameOf(next))
			if i == m.cursor {
				line = selectedStyle.Render("> "+op.String()) + " -> " + m.nameOf(next)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("enter: fire · r: restart · esc: roles · q: quit"))
	}

	return b.String()
}

func (m inspectModel) stateName() string {
	return m.nameOf(m.state)
}

func (m inspectModel) nameOf(id project.StateID) string {
	if id == project.Closed {
		return "closed"
	}
	if m.proj.IsTerminal(id) {
		return fmt.Sprintf("s%d (end)", id)
	}
	return fmt.Sprintf("s%d", id)
}
