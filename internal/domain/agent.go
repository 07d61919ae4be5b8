package domain

// AgentCategory вид агентов в ростере бэкенда.
type AgentCategory string

const (
	CategoryMatching AgentCategory = "matching"
	CategoryMerge    AgentCategory = "merge"
)

// AgentInfo нормализованная запись об агенте.
type AgentInfo struct {
	AgentID   string `json:"agentId"`
	AgentType string `json:"agentType,omitempty"`
	Enabled   bool   `json:"enabled"`
	// Parameter порог уверенности для matching-агентов
	// или имя стратегии слияния для merge-агентов.
	Parameter string `json:"parameter"`

	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty"`
}

// AgentRoster одна категория агентов. Нулевое значение валидно: пустой ростер.
type AgentRoster struct {
	TotalAgents   int64       `json:"totalAgents"`
	EnabledAgents int64       `json:"enabledAgents"`
	Agents        []AgentInfo `json:"agents"`
}

// AgentStatusView пересчитывается целиком при каждом успешном AGENT_STATUS.
type AgentStatusView struct {
	MatchingAgents AgentRoster `json:"matchingAgents"`
	MergeAgents    AgentRoster `json:"mergeAgents"`
}

// EmptyAgentStatus гарантирует [] вместо null во всех списках.
func EmptyAgentStatus() AgentStatusView {
	return AgentStatusView{
		MatchingAgents: AgentRoster{Agents: []AgentInfo{}},
		MergeAgents:    AgentRoster{Agents: []AgentInfo{}},
	}
}
