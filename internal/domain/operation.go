package domain

import (
	"net/http"
	"strings"
)

// Operation именованный тип запроса к бэкенду сущностей.
type Operation string

const (
	OpListRules         Operation = "LIST_RULES"
	OpListRulesByDomain Operation = "LIST_RULES_BY_DOMAIN"

	// Панель Entity Merge (движок правил)
	OpEntityLoadSampleData Operation = "ENTITY_LOAD_SAMPLE_DATA"
	OpFindMatchCandidates  Operation = "FIND_MATCH_CANDIDATES"
	OpEntityBulkMerge      Operation = "ENTITY_BULK_MERGE"
	OpMergeEntities        Operation = "MERGE_ENTITIES"
	OpEntityHealth         Operation = "ENTITY_HEALTH"

	// Панель Agent Merge (интеллектуальные агенты)
	OpLoadSampleData   Operation = "LOAD_SAMPLE_DATA"
	OpAgentStatus      Operation = "AGENT_STATUS"
	OpFindMatches      Operation = "FIND_MATCHES"
	OpBulkMerge        Operation = "BULK_MERGE"
	OpCompleteWorkflow Operation = "COMPLETE_WORKFLOW"
	OpAuditLogs        Operation = "AUDIT_LOGS"
	OpEntityAuditLogs  Operation = "ENTITY_AUDIT_LOGS"
	OpAgentAuditLogs   Operation = "AGENT_AUDIT_LOGS"
	OpHealth           Operation = "HEALTH"
)

// Route описывает HTTP-контракт операции: метод, шаблон пути и параметры.
type Route struct {
	Method  string
	Path    string   // шаблон с плейсхолдерами вида {entityId}
	HasBody bool     // JSON-тело прикладывается только для таких маршрутов
	Query   []string // имена query-параметров, которые понимает бэкенд
}

// routes задается один раз при старте и больше не меняется.
var routes = []struct {
	op    Operation
	route Route
}{
	{OpListRules, Route{Method: http.MethodGet, Path: "/api/rules"}},
	{OpListRulesByDomain, Route{Method: http.MethodGet, Path: "/api/rules/{domain}"}},

	{OpEntityLoadSampleData, Route{Method: http.MethodPost, Path: "/api/entity-merge/load-sample-data"}},
	{OpFindMatchCandidates, Route{Method: http.MethodGet, Path: "/api/entity-merge/find-match-candidates"}},
	{OpEntityBulkMerge, Route{Method: http.MethodPost, Path: "/api/entity-merge/bulk-merge"}},
	{OpMergeEntities, Route{Method: http.MethodPost, Path: "/api/entity-merge/merge-entities", Query: []string{"entityId1", "entityId2"}}},
	{OpEntityHealth, Route{Method: http.MethodGet, Path: "/api/entity-merge/health"}},

	{OpLoadSampleData, Route{Method: http.MethodPost, Path: "/api/agent-merge/load-sample-data"}},
	{OpAgentStatus, Route{Method: http.MethodGet, Path: "/api/agent-merge/agent-status"}},
	{OpFindMatches, Route{Method: http.MethodGet, Path: "/api/agent-merge/find-matches"}},
	{OpBulkMerge, Route{Method: http.MethodPost, Path: "/api/agent-merge/bulk-merge"}},
	{OpCompleteWorkflow, Route{Method: http.MethodPost, Path: "/api/agent-merge/complete-workflow"}},
	{OpAuditLogs, Route{Method: http.MethodGet, Path: "/api/agent-merge/audit-logs", Query: []string{"limit"}}},
	{OpEntityAuditLogs, Route{Method: http.MethodGet, Path: "/api/agent-merge/audit-logs/entity/{entityId}"}},
	{OpAgentAuditLogs, Route{Method: http.MethodGet, Path: "/api/agent-merge/audit-logs/agent/{agentId}"}},
	{OpHealth, Route{Method: http.MethodGet, Path: "/api/agent-merge/health"}},
}

var routeIndex = func() map[Operation]Route {
	m := make(map[Operation]Route, len(routes))
	for _, r := range routes {
		m[r.op] = r.route
	}
	return m
}()

// RouteFor возвращает маршрут операции.
func RouteFor(op Operation) (Route, bool) {
	r, ok := routeIndex[op]
	return r, ok
}

// Operations возвращает все операции в порядке таблицы маршрутов.
func Operations() []Operation {
	ops := make([]Operation, 0, len(routes))
	for _, r := range routes {
		ops = append(ops, r.op)
	}
	return ops
}

// ParseOperation принимает и "AGENT_STATUS", и "agent-status".
func ParseOperation(s string) (Operation, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	op := Operation(name)
	if _, ok := routeIndex[op]; !ok {
		return "", &ValidationError{Field: "operation", Reason: "unknown operation " + s}
	}
	return op, nil
}

// Slug kebab-case имя для CLI и URL локального API.
func (o Operation) Slug() string {
	return strings.ToLower(strings.ReplaceAll(string(o), "_", "-"))
}

// Params пользовательский ввод для операций, которым он нужен.
type Params struct {
	EntityID1 string `json:"entityId1,omitempty"`
	EntityID2 string `json:"entityId2,omitempty"`
	EntityID  string `json:"entityId,omitempty"`
	AgentID   string `json:"agentId,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}
