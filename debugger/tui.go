package debugger

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

// model is the bubbletea front end over a Debugger, following
// hejops-gone/cpu/debugger.go's Init/Update/View shape: a page-table
// memory dump, a register/flag status pane, and a spew dump of the next
// instruction.
type model struct {
	d      *Debugger
	offset uint16 // page-table window start, scrolled by PgUp/PgDn
	err    error
	msg    string
}

var statusStyle = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
var pageStyle = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
var highlightStyle = lipgloss.NewStyle().Reverse(true)

// Run starts the interactive TUI over d and blocks until the user quits.
func Run(d *Debugger) error {
	_, err := tea.NewProgram(model{d: d}).Run()
	return err
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ", "s":
		if err := m.d.Step(); err != nil {
			m.err = err
			m.msg = "halted"
		} else {
			m.msg = "stepped"
		}

	case "c":
		steps, err := m.d.Continue(1_000_000)
		m.msg = fmt.Sprintf("ran %d steps", steps)
		if err != nil {
			m.err = err
		}

	case "b":
		pc := m.d.Registers().PC
		m.d.SetBreakpoint(pc)
		m.msg = fmt.Sprintf("breakpoint set at 0x%04x", pc)

	case "pgdown":
		m.offset += 0x100

	case "pgup":
		m.offset -= 0x100
	}
	return m, nil
}

func (m model) renderPage(start uint16) string {
	words := m.d.ReadMemory(start, 8)
	pc := m.d.Registers().PC
	s := fmt.Sprintf("%04x | ", start)
	for i, w := range words {
		cell := fmt.Sprintf("%04x ", w)
		if start+uint16(i) == pc {
			cell = highlightStyle.Render(cell)
		}
		s += cell
	}
	return s
}

func (m model) pageTable() string {
	lines := []string{"addr |  0    1    2    3    4    5    6    7"}
	for row := uint16(0); row < 16; row++ {
		lines = append(lines, m.renderPage(m.offset+row*8))
	}
	return pageStyle.Render(strings.Join(lines, "\n"))
}

func (m model) status() string {
	r := m.d.Registers()
	body := fmt.Sprintf(
		"state: %s\nPC %04x  SP %04x\nEX %04x  IA %04x\nA  %04x  B  %04x\nC  %04x  X  %04x\nY  %04x  Z  %04x\nI  %04x  J  %04x\nqueueing: %v  qlen: %d\nbreakpoints: %v",
		r.State, r.PC, r.SP, r.EX, r.IA,
		r.A, r.B, r.C, r.X, r.Y, r.Z, r.I, r.J,
		r.InterruptQueueing, r.QueueLength, m.d.Breakpoints(),
	)
	if m.msg != "" {
		body += "\n\n" + m.msg
	}
	if m.err != nil {
		body += "\n\nerror: " + m.err.Error()
	}
	return statusStyle.Render(body)
}

func (m model) instructionDump() string {
	lines := m.d.Disassemble(m.d.Registers().PC, 1)
	if len(lines) == 0 {
		return ""
	}
	return spew.Sdump(lines[0])
}

func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.pageTable(), m.status()),
		"",
		m.instructionDump(),
		"\nspace/s step, c continue, b breakpoint at PC, pgup/pgdn scroll, q quit",
	)
}
