package domain

import "strings"

type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailed  AuditStatus = "FAILED"
	AuditPending AuditStatus = "PENDING"
	AuditUnknown AuditStatus = "UNKNOWN"
)

// ParseAuditStatus никогда не отклоняет запись: все незнакомое становится UNKNOWN.
func ParseAuditStatus(s string) AuditStatus {
	switch st := AuditStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case AuditSuccess, AuditFailed, AuditPending:
		return st
	default:
		return AuditUnknown
	}
}

// AuditLogEntry запись журнала аудита агентов после нормализации.
type AuditLogEntry struct {
	Status        AuditStatus `json:"status"`
	CreatedAt     any         `json:"createdAt,omitempty"` // сырое значение, форматирует present.FormatTimestamp
	OperationType string      `json:"operationType"`       // MATCH_FOUND, MERGE_COMPLETED, ...
	AgentID       string      `json:"agentId"`
	AgentType     string      `json:"agentType"`

	EntityIDs      *string `json:"entityIds,omitempty"` // через запятую
	DecisionReason *string `json:"decisionReason,omitempty"`

	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`
	ExecutionTimeMs *float64 `json:"executionTimeMs,omitempty"`
}

// AuditStatistics агрегаты, которые бэкенд отдает вместе с журналом.
type AuditStatistics struct {
	TotalLogs   int64   `json:"totalLogs"`
	MatchLogs   int64   `json:"matchLogs"`
	MergeLogs   int64   `json:"mergeLogs"`
	SuccessLogs int64   `json:"successLogs"`
	SuccessRate float64 `json:"successRate"`
}

// AuditLogPage результат AUDIT_LOGS и отфильтрованных вариантов (по сущности, по агенту).
type AuditLogPage struct {
	Entries    []AuditLogEntry `json:"auditLogs"`
	Statistics AuditStatistics `json:"statistics"`
	EntityID   string          `json:"entityId,omitempty"`
	AgentID    string          `json:"agentId,omitempty"`
	TotalLogs  int64           `json:"totalLogs,omitempty"`
}
