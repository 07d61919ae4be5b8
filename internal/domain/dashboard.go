package domain

// DashboardSnapshot все, что нужно слою отображения в один момент времени.
// Производные представления (агенты, аудит, правила) живут до следующего
// успешного запроса своего вида и заменяются целиком.
type DashboardSnapshot struct {
	Backend     string           `json:"backend"`
	Lifecycle   Lifecycle        `json:"lifecycle"`
	AgentStatus *AgentStatusView `json:"agentStatus,omitempty"`
	Audit       *AuditView       `json:"audit,omitempty"`
	Rules       []Rule           `json:"rules,omitempty"`
}

// AuditView страница аудита с уже отформатированными полями.
type AuditView struct {
	Entries    []AuditLogLine  `json:"auditLogs"`
	Statistics AuditStatistics `json:"statistics"`
	EntityID   string          `json:"entityId,omitempty"`
	AgentID    string          `json:"agentId,omitempty"`
}

// AuditLogLine запись аудита плюс презентационные поля.
type AuditLogLine struct {
	AuditLogEntry
	Category      string `json:"category"` // positive, negative, neutral-warning, neutral-unknown
	CreatedAtText string `json:"createdAtText"`
}
