// Package tui интерактивный терминальный дашборд поверх service.Dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// Dashboard описывает, что нам нужно от фасада
type Dashboard interface {
	Dispatch(ctx context.Context, op domain.Operation, p domain.Params) (<-chan domain.Lifecycle, error)
	Snapshot() domain.DashboardSnapshot
}

type Options struct {
	EntityID1 string
	EntityID2 string
	Color     bool
}

// settledMsg приходит, когда операция дошла до терминального состояния.
type settledMsg struct {
	lc domain.Lifecycle
}

type field struct {
	name  string
	panel panel
	input textinput.Model
}

type Model struct {
	dash  Dashboard
	theme theme
	color bool

	panel   panel
	fields  []field
	editing bool
	focus   int

	viewport viewport.Model
	spinner  spinner.Model

	snapshot domain.DashboardSnapshot
	status   string
	width    int
	height   int
}

func newField(name, placeholder, value string, p panel) field {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.SetValue(value)
	return field{name: name, panel: p, input: in}
}

func New(dash Dashboard, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	return Model{
		dash:  dash,
		theme: newTheme(),
		color: opts.Color,
		panel: panelAgent,
		fields: []field{
			newField("entityId", "entity id for audit", opts.EntityID1, panelAgent),
			newField("agentId", "agent id for audit", "merge-agent-1", panelAgent),
			newField("entityId1", "first entity id", opts.EntityID1, panelEntity),
			newField("entityId2", "second entity id", opts.EntityID2, panelEntity),
			newField("domain", "rule domain", "LifeSciences", panelEntity),
		},
		focus:    -1,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		snapshot: dash.Snapshot(),
		status:   "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case settledMsg:
		m.snapshot = m.dash.Snapshot()
		m.status = settledStatus(msg.lc)
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.stopEditing()
		return m, nil
	case "tab", "shift+tab":
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		return m, m.focusField(m.nextField(step))
	}
	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "tab":
		if m.panel == panelAgent {
			m.panel = panelEntity
		} else {
			m.panel = panelAgent
		}
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil
	case "e":
		if idx := m.nextField(1); idx >= 0 {
			m.editing = true
			return m, m.focusField(idx)
		}
		return m, nil
	}

	if op, ok := operationForKey(m.panel, key); ok {
		return m.dispatch(op)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// dispatch запускает операцию. Занятый автомат дает подсказку в статусе, а не ошибку.
func (m Model) dispatch(op domain.Operation) (tea.Model, tea.Cmd) {
	done, err := m.dash.Dispatch(context.Background(), op, m.params())
	if err != nil {
		var cErr *domain.ConcurrencyError
		if errors.As(err, &cErr) {
			m.status = fmt.Sprintf("busy: %s is still loading", cErr.Running)
		} else {
			m.status = err.Error()
		}
		return m, nil
	}

	m.snapshot = m.dash.Snapshot()
	m.status = fmt.Sprintf("running %s", op)
	m.viewport.SetContent(m.renderContent())
	return m, tea.Batch(m.spinner.Tick, waitFor(done))
}

func waitFor(done <-chan domain.Lifecycle) tea.Cmd {
	return func() tea.Msg {
		return settledMsg{lc: <-done}
	}
}

func (m Model) params() domain.Params {
	p := domain.Params{}
	for _, f := range m.fields {
		v := strings.TrimSpace(f.input.Value())
		switch f.name {
		case "entityId":
			p.EntityID = v
		case "agentId":
			p.AgentID = v
		case "entityId1":
			p.EntityID1 = v
		case "entityId2":
			p.EntityID2 = v
		case "domain":
			p.Domain = v
		}
	}
	return p
}

// nextField ищет следующее поле текущей панели. -1, если полей нет.
func (m Model) nextField(step int) int {
	n := len(m.fields)
	start := m.focus
	if start < 0 {
		start = n - 1
		if step < 0 {
			start = 0
		}
	}
	for i := 1; i <= n; i++ {
		idx := ((start+step*i)%n + n) % n
		if m.fields[idx].panel == m.panel {
			return idx
		}
	}
	return -1
}

func (m *Model) focusField(idx int) tea.Cmd {
	for i := range m.fields {
		m.fields[i].input.Blur()
	}
	m.focus = idx
	if idx < 0 {
		return nil
	}
	return m.fields[idx].input.Focus()
}

func (m *Model) stopEditing() {
	m.editing = false
	m.focusField(-1)
}

func (m *Model) resize() {
	// заголовок, меню, поля ввода, статус и подсказка занимают фиксированную высоту
	reserved := 14
	m.viewport.Width = max(20, m.width-6)
	m.viewport.Height = max(5, m.height-reserved)
	m.viewport.SetContent(m.renderContent())
}

func settledStatus(lc domain.Lifecycle) string {
	switch lc.Phase {
	case domain.PhaseSucceeded:
		return fmt.Sprintf("%s succeeded in %s", lc.Operation, lc.Duration().Round(time.Millisecond))
	case domain.PhaseFailed:
		return fmt.Sprintf("%s failed", lc.Operation)
	default:
		return string(lc.Phase)
	}
}
