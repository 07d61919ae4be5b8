// Package normalize превращает сырые JSON-ответы бэкенда в доменные представления.
// Все функции тотальные: отсутствующие или битые поля дают нулевые значения, а не ошибку.
package normalize

import (
	"encoding/json"
	"strconv"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// object разбирает сырой ответ как JSON-объект. Все, что не объект, считается пустым.
func object(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// optStr возвращает строку или nil, если поля нет или оно не строка.
func optStr(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

// num число или nil. В JSON числа всегда парсятся в float64.
func num(m map[string]any, key string) *float64 {
	if v, ok := m[key].(float64); ok {
		return &v
	}
	return nil
}

func count(m map[string]any, key string) int64 {
	if v, ok := m[key].(float64); ok {
		return int64(v)
	}
	return 0
}

// scalarText печатает число или строку как есть, остальное дает пустую строку.
func scalarText(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return ""
	}
}

// AgentStatus пересчитывает AgentStatusView из ответа AGENT_STATUS.
// Счетчики берутся из ответа как есть, из длины списка не выводятся.
func AgentStatus(raw []byte) domain.AgentStatusView {
	m := object(raw)
	return domain.AgentStatusView{
		MatchingAgents: roster(asObject(m["matchingAgents"]), domain.CategoryMatching),
		MergeAgents:    roster(asObject(m["mergeAgents"]), domain.CategoryMerge),
	}
}

func roster(m map[string]any, category domain.AgentCategory) domain.AgentRoster {
	r := domain.AgentRoster{
		TotalAgents:   count(m, "totalAgents"),
		EnabledAgents: count(m, "enabledAgents"),
		Agents:        []domain.AgentInfo{},
	}
	list, _ := m["agents"].([]any)
	for _, item := range list {
		a := asObject(item)
		info := domain.AgentInfo{
			AgentID:             str(a, "agentId"),
			AgentType:           str(a, "agentType"),
			ConfidenceThreshold: num(a, "confidenceThreshold"),
		}
		info.Enabled, _ = a["enabled"].(bool)

		switch category {
		case domain.CategoryMatching:
			info.Parameter = scalarText(a["confidenceThreshold"])
		case domain.CategoryMerge:
			info.Parameter = scalarText(a["mergeStrategy"])
		}
		r.Agents = append(r.Agents, info)
	}
	return r
}

// AuditLogs нормализует ответ AUDIT_LOGS и его отфильтрованных вариантов.
// Каждая запись разбирается независимо: одна битая запись не портит остальные.
func AuditLogs(raw []byte) domain.AuditLogPage {
	m := object(raw)
	page := domain.AuditLogPage{
		Entries:    []domain.AuditLogEntry{},
		Statistics: statistics(asObject(m["statistics"])),
		EntityID:   str(m, "entityId"),
		AgentID:    str(m, "agentId"),
		TotalLogs:  count(m, "totalLogs"),
	}
	list, _ := m["auditLogs"].([]any)
	for _, item := range list {
		page.Entries = append(page.Entries, auditEntry(asObject(item)))
	}
	return page
}

func auditEntry(m map[string]any) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		Status:          domain.ParseAuditStatus(str(m, "status")),
		CreatedAt:       m["createdAt"],
		OperationType:   str(m, "operationType"),
		AgentID:         str(m, "agentId"),
		AgentType:       str(m, "agentType"),
		EntityIDs:       optStr(m, "entityIds"),
		DecisionReason:  optStr(m, "decisionReason"),
		ConfidenceScore: num(m, "confidenceScore"),
		ExecutionTimeMs: num(m, "executionTimeMs"),
	}
}

func statistics(m map[string]any) domain.AuditStatistics {
	s := domain.AuditStatistics{
		TotalLogs:   count(m, "totalLogs"),
		MatchLogs:   count(m, "matchLogs"),
		MergeLogs:   count(m, "mergeLogs"),
		SuccessLogs: count(m, "successLogs"),
	}
	if v := num(m, "successRate"); v != nil {
		s.SuccessRate = *v
	}
	return s
}

// Rules разбирает ответ LIST_RULES*. Не массив, пустой список.
func Rules(raw []byte) []domain.Rule {
	rules := []domain.Rule{}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return rules
	}
	for _, item := range list {
		m := asObject(item)
		rules = append(rules, domain.Rule{
			RuleID:    str(m, "ruleId"),
			Domain:    str(m, "domain"),
			Condition: str(m, "condition"),
			Action:    str(m, "action"),
		})
	}
	return rules
}
