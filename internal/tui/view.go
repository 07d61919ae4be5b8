package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/present"
)

func (m Model) View() string {
	header := m.renderHeader()
	menu := m.renderMenu()
	inputs := m.renderInputs()
	status := m.renderStatus()
	content := m.theme.panel.Width(max(20, m.width-4)).Render(m.viewport.View())
	footer := m.theme.footer.Render(m.helpLine())

	parts := []string{header, menu}
	if inputs != "" {
		parts = append(parts, inputs)
	}
	parts = append(parts, status, content, footer)
	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderHeader() string {
	tabs := make([]string, 0, 2)
	for _, p := range []panel{panelAgent, panelEntity} {
		if p == m.panel {
			tabs = append(tabs, m.theme.tabActive.Render(p.title()))
		} else {
			tabs = append(tabs, m.theme.tabInactive.Render(p.title()))
		}
	}
	title := fmt.Sprintf("MDM merge console · %s", m.snapshot.Backend)
	return m.theme.header.Render(title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m Model) renderMenu() string {
	items := make([]string, 0, len(bindings[m.panel]))
	for _, b := range bindings[m.panel] {
		items = append(items, m.theme.key.Render(b.key)+" "+b.label)
	}
	return strings.Join(items, "  ")
}

func (m Model) renderInputs() string {
	var lines []string
	for i, f := range m.fields {
		if f.panel != m.panel {
			continue
		}
		marker := "  "
		if m.editing && i == m.focus {
			marker = "> "
		}
		lines = append(lines, marker+m.theme.inputLabel.Render(fmt.Sprintf("%-10s", f.name))+" "+f.input.View())
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	lc := m.snapshot.Lifecycle
	switch lc.Phase {
	case domain.PhaseLoading:
		return m.spinner.View() + " " + m.theme.status.Render(m.status)
	case domain.PhaseFailed:
		box := m.theme.errorBox.Width(max(20, m.width-6)).Render("Error: " + lc.Message)
		if strings.HasPrefix(m.status, "busy:") {
			return box + "\n" + m.theme.helpText.Render(m.status)
		}
		return box
	case domain.PhaseSucceeded:
		return m.theme.success.Render("✓ " + m.status)
	default:
		return m.theme.status.Render(m.status)
	}
}

func (m Model) helpLine() string {
	if m.editing {
		return "tab next field · enter/esc done"
	}
	return "tab switch panel · e edit ids · ↑/↓ scroll · q quit"
}

// renderContent содержимое прокручиваемой области: последний результат
// и производные представления текущей панели.
func (m Model) renderContent() string {
	var b strings.Builder
	lc := m.snapshot.Lifecycle

	if lc.Phase == domain.PhaseSucceeded && !derivedOperation(lc.Operation) {
		b.WriteString(m.theme.panelTitle.Render(fmt.Sprintf("Result · %s", lc.Operation)) + "\n")
		b.WriteString(highlightJSON(lc.Payload, m.color))
		b.WriteString("\n\n")
	}

	switch m.panel {
	case panelAgent:
		b.WriteString(m.renderAgentStatus())
		b.WriteString("\n")
		b.WriteString(m.renderAudit())
	case panelEntity:
		b.WriteString(m.renderRules())
	}
	return b.String()
}

// derivedOperation: результат таких операций показывается отдельным представлением.
func derivedOperation(op domain.Operation) bool {
	switch op {
	case domain.OpAgentStatus, domain.OpAuditLogs, domain.OpEntityAuditLogs, domain.OpAgentAuditLogs,
		domain.OpListRules, domain.OpListRulesByDomain:
		return true
	}
	return false
}

func (m Model) renderAgentStatus() string {
	v := m.snapshot.AgentStatus
	if v == nil {
		return m.theme.helpText.Render("Agent status not loaded yet (press 2).") + "\n"
	}
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Agents") + "\n")
	rosters := []struct {
		title  string
		param  string
		roster domain.AgentRoster
	}{
		{"Matching agents", "threshold", v.MatchingAgents},
		{"Merge agents", "strategy", v.MergeAgents},
	}
	for _, r := range rosters {
		fmt.Fprintf(&b, "%s  total %d · enabled %d\n", r.title, r.roster.TotalAgents, r.roster.EnabledAgents)
		for _, a := range r.roster.Agents {
			state := m.theme.badge(string(present.Negative), "disabled")
			if a.Enabled {
				state = m.theme.badge(string(present.Positive), "enabled")
			}
			param := a.Parameter
			if param == "" {
				param = present.NA
			}
			fmt.Fprintf(&b, "  %-20s %s  %s: %s\n", a.AgentID, state, r.param, param)
		}
	}
	return b.String()
}

func (m Model) renderAudit() string {
	v := m.snapshot.Audit
	if v == nil {
		return m.theme.helpText.Render("Audit log not loaded yet (press 6).") + "\n"
	}
	var b strings.Builder
	title := "Audit log"
	switch {
	case v.EntityID != "":
		title += " · entity " + v.EntityID
	case v.AgentID != "":
		title += " · agent " + v.AgentID
	}
	b.WriteString(m.theme.panelTitle.Render(title) + "\n")

	s := v.Statistics
	if s.TotalLogs > 0 {
		fmt.Fprintf(&b, "total %d · match %d · merge %d · success %d (%.1f)\n",
			s.TotalLogs, s.MatchLogs, s.MergeLogs, s.SuccessLogs, s.SuccessRate)
	}
	if len(v.Entries) == 0 {
		b.WriteString(m.theme.helpText.Render("no entries") + "\n")
	}
	for _, e := range v.Entries {
		fmt.Fprintf(&b, "%s %-8s %-16s %-18s score %s · %s\n",
			e.CreatedAtText,
			m.theme.badge(e.Category, string(e.Status)),
			e.OperationType,
			e.AgentID,
			present.FormatScore(e.ConfidenceScore),
			present.FormatDuration(e.ExecutionTimeMs))
		if e.EntityIDs != nil || e.DecisionReason != nil {
			fmt.Fprintf(&b, "    entities %s · %s\n", present.OrNA(e.EntityIDs), present.OrNA(e.DecisionReason))
		}
	}
	return b.String()
}

func (m Model) renderRules() string {
	if m.snapshot.Rules == nil {
		return m.theme.helpText.Render("Rules not loaded yet (press 5).") + "\n"
	}
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Matching rules") + "\n")
	if len(m.snapshot.Rules) == 0 {
		b.WriteString(m.theme.helpText.Render("no rules") + "\n")
	}
	for _, r := range m.snapshot.Rules {
		fmt.Fprintf(&b, "  %-10s %-14s %-8s %s\n", r.RuleID, r.Domain, r.Action, r.Condition)
	}
	return b.String()
}
