package tui

import "github.com/xela07ax/mdm-merge-console/internal/domain"

type panel int

const (
	panelAgent panel = iota
	panelEntity
)

func (p panel) title() string {
	if p == panelEntity {
		return "Entity Merge"
	}
	return "Agent Merge"
}

type binding struct {
	key   string
	op    domain.Operation
	label string
}

// Клавиши операций по панелям в порядке меню.
var bindings = map[panel][]binding{
	panelAgent: {
		{"1", domain.OpLoadSampleData, "load sample data"},
		{"2", domain.OpAgentStatus, "agent status"},
		{"3", domain.OpFindMatches, "find matches"},
		{"4", domain.OpBulkMerge, "bulk merge"},
		{"5", domain.OpCompleteWorkflow, "complete workflow"},
		{"6", domain.OpAuditLogs, "audit logs"},
		{"7", domain.OpEntityAuditLogs, "audit by entity"},
		{"8", domain.OpAgentAuditLogs, "audit by agent"},
		{"9", domain.OpHealth, "health"},
	},
	panelEntity: {
		{"1", domain.OpEntityLoadSampleData, "load sample data"},
		{"2", domain.OpFindMatchCandidates, "find match candidates"},
		{"3", domain.OpEntityBulkMerge, "bulk merge"},
		{"4", domain.OpMergeEntities, "merge two entities"},
		{"5", domain.OpListRules, "list rules"},
		{"6", domain.OpListRulesByDomain, "rules by domain"},
		{"7", domain.OpEntityHealth, "health"},
	},
}

func operationForKey(p panel, key string) (domain.Operation, bool) {
	for _, b := range bindings[p] {
		if b.key == key {
			return b.op, true
		}
	}
	return "", false
}
