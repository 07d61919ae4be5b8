package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// localDateTime: формат, в котором бэкенд сериализует LocalDateTime (без зоны).
const localDateTime = "2006-01-02T15:04:05.000000"

type mockEntity struct {
	EntityID        string            `json:"entityId"`
	EntityType      string            `json:"entityType"`
	SourceSystem    string            `json:"sourceSystem"`
	ConfidenceScore float64           `json:"confidenceScore"`
	Status          string            `json:"status"`
	Attributes      map[string]string `json:"attributes"`
}

type mockAuditLog struct {
	ID              int64    `json:"id"`
	OperationType   string   `json:"operationType"`
	AgentID         string   `json:"agentId"`
	AgentType       string   `json:"agentType"`
	EntityIDs       string   `json:"entityIds,omitempty"`
	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`
	DecisionReason  string   `json:"decisionReason,omitempty"`
	Status          string   `json:"status"`
	ExecutionTimeMs int64    `json:"executionTimeMs"`
	CreatedAt       string   `json:"createdAt"`
}

// MockBackend встроенная имитация бэкенда MDM с тем же HTTP-контрактом.
// Нужна для режима --demo и для тестов: держит журнал аудита в памяти,
// умеет задерживать ответы и отвечать заданным статусом на выбранные пути.
type MockBackend struct {
	mu       sync.Mutex
	logs     []mockAuditLog
	seq      int64
	latency  time.Duration
	failures map[string]int
	hits     map[string]int
	now      func() time.Time
}

func NewMockBackend(latency time.Duration) *MockBackend {
	return &MockBackend{
		latency:  latency,
		failures: make(map[string]int),
		hits:     make(map[string]int),
		now:      time.Now,
	}
}

// FailWith заставляет путь отвечать статусом code. code == 0 снимает сбой.
func (m *MockBackend) FailWith(path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code == 0 {
		delete(m.failures, path)
		return
	}
	m.failures[path] = code
}

// Hits сколько раз бэкенд получил запрос на путь.
func (m *MockBackend) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// Handler собирает chi-роутер со всеми маршрутами контракта.
func (m *MockBackend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(m.simulate)

	r.Get("/api/rules", m.listRules)
	r.Get("/api/rules/{domain}", m.listRules)

	r.Route("/api/entity-merge", func(r chi.Router) {
		r.Get("/health", m.health("Entity Merge Service"))
		r.Post("/load-sample-data", m.loadSampleData)
		r.Get("/find-match-candidates", m.findMatches)
		r.Post("/bulk-merge", m.bulkMerge)
		r.Post("/merge-entities", m.mergeEntities)
	})

	r.Route("/api/agent-merge", func(r chi.Router) {
		r.Get("/health", m.health("Agent Merge Service"))
		r.Get("/agent-status", m.agentStatus)
		r.Post("/load-sample-data", m.loadSampleData)
		r.Get("/find-matches", m.findMatches)
		r.Post("/bulk-merge", m.bulkMerge)
		r.Post("/complete-workflow", m.completeWorkflow)
		r.Get("/audit-logs", m.auditLogs)
		r.Get("/audit-logs/entity/{entityId}", m.auditLogsFor("entity"))
		r.Get("/audit-logs/agent/{agentId}", m.auditLogsFor("agent"))
	})
	return r
}

// simulate считает обращения, имитирует задержку и навязанные сбои.
func (m *MockBackend) simulate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.hits[r.URL.Path]++
		code := m.failures[r.URL.Path]
		latency := m.latency
		m.mu.Unlock()

		if latency > 0 {
			// Имитируем задержку latency..2*latency
			jitter := time.Duration(rand.Int63n(int64(latency) + 1))
			select {
			case <-time.After(latency + jitter):
			case <-r.Context().Done():
				return
			}
		}

		if code != 0 {
			writeJSON(w, code, map[string]any{"error": fmt.Sprintf("simulated failure on %s", r.URL.Path)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockBackend) health(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "UP",
			"service":   service,
			"timestamp": m.now().Format(localDateTime),
		})
	}
}

func (m *MockBackend) listRules(w http.ResponseWriter, r *http.Request) {
	rules := []map[string]string{
		{"ruleId": "LS-001", "domain": "LifeSciences", "condition": "email == email", "action": "MERGE"},
		{"ruleId": "LS-002", "domain": "LifeSciences", "condition": "phone == phone && lastName == lastName", "action": "MERGE"},
		{"ruleId": "FIN-001", "domain": "Finance", "condition": "taxId == taxId", "action": "REVIEW"},
	}
	if d := chi.URLParam(r, "domain"); d != "" {
		filtered := make([]map[string]string, 0, len(rules))
		for _, rule := range rules {
			if strings.EqualFold(rule["domain"], d) {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}
	writeJSON(w, http.StatusOK, rules)
}

func (m *MockBackend) loadSampleData(w http.ResponseWriter, r *http.Request) {
	entities := sampleEntities()
	for _, e := range entities {
		m.record("ENTITY_CREATED", "system", "SYSTEM", e.EntityID, nil, "SAMPLE_DATA_LOAD", "SUCCESS")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Sample data loaded successfully",
		"entitiesLoaded": len(entities),
		"entities":       entities,
		"timestamp":      m.now().Format(localDateTime),
	})
}

func (m *MockBackend) matches() []map[string]any {
	score := 0.92
	m.record("MATCH_FOUND", "matching-agent-1", "MATCHING_AGENT", "CRM_001,ERP_001", &score,
		"email and phone match exactly, address similarity 0.87", "SUCCESS")
	return []map[string]any{{
		"entity1Id":  "CRM_001",
		"entity2Id":  "ERP_001",
		"matchScore": score,
		"matchType":  "FUZZY",
		"reasons":    []string{"email exact", "phone exact", "address fuzzy"},
	}}
}

func (m *MockBackend) findMatches(w http.ResponseWriter, r *http.Request) {
	matches := m.matches()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Matches found successfully",
		"totalEntities": len(sampleEntities()),
		"matchesFound":  len(matches),
		"matches":       matches,
		"timestamp":     m.now().Format(localDateTime),
	})
}

func (m *MockBackend) merge(id1, id2 string) map[string]any {
	m.record("MERGE_COMPLETED", "merge-agent-1", "MERGE_AGENT", id1+","+id2, nil,
		"survivorship: most recent non-empty value wins", "SUCCESS")
	return map[string]any{
		"status":            "MERGED",
		"survivingEntityId": id1,
		"mergedEntityIds":   []string{id1, id2},
		"mergeStrategy":     "MOST_RECENT",
	}
}

func (m *MockBackend) bulkMerge(w http.ResponseWriter, r *http.Request) {
	matches := m.matches()
	results := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		results = append(results, m.merge(match["entity1Id"].(string), match["entity2Id"].(string)))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Bulk merge completed",
		"matchesFound":     len(matches),
		"mergesCompleted":  len(results),
		"successfulMerges": len(results),
		"failedMerges":     0,
		"mergeResults":     results,
		"timestamp":        m.now().Format(localDateTime),
	})
}

func (m *MockBackend) mergeEntities(w http.ResponseWriter, r *http.Request) {
	id1, id2 := r.URL.Query().Get("entityId1"), r.URL.Query().Get("entityId2")
	if id1 == "" || id2 == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "entityId1 and entityId2 are required"})
		return
	}
	known := map[string]bool{}
	for _, e := range sampleEntities() {
		known[e.EntityID] = true
	}
	if !known[id1] || !known[id2] {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "entity not found"})
		return
	}
	writeJSON(w, http.StatusOK, m.merge(id1, id2))
}

func (m *MockBackend) completeWorkflow(w http.ResponseWriter, r *http.Request) {
	// Последовательность шагов выполняется здесь, на стороне бэкенда
	entities := sampleEntities()
	matches := m.matches()
	merge := m.merge("CRM_001", "ERP_001")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Complete workflow executed successfully",
		"totalEntities":    len(entities),
		"matchesFound":     len(matches),
		"successfulMerges": 1,
		"failedMerges":     0,
		"mergeResults":     []map[string]any{merge},
		"timestamp":        m.now().Format(localDateTime),
	})
}

func (m *MockBackend) agentStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"matchingAgents": map[string]any{
			"totalAgents":   2,
			"enabledAgents": 1,
			"agents": []map[string]any{
				{"agentId": "matching-agent-1", "agentType": "MATCHING_AGENT", "enabled": true, "confidenceThreshold": 0.85},
				{"agentId": "matching-agent-2", "agentType": "MATCHING_AGENT", "enabled": false, "confidenceThreshold": 0.7},
			},
		},
		"mergeAgents": map[string]any{
			"totalAgents":   1,
			"enabledAgents": 1,
			"agents": []map[string]any{
				{"agentId": "merge-agent-1", "agentType": "MERGE_AGENT", "enabled": true, "confidenceThreshold": 0.9, "mergeStrategy": "MOST_RECENT"},
			},
		},
	})
}

func (m *MockBackend) auditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	logs, stats := m.snapshot(func(mockAuditLog) bool { return true })
	if len(logs) > limit {
		logs = logs[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Audit logs retrieved successfully",
		"auditLogs":  logs,
		"statistics": stats,
		"timestamp":  m.now().Format(localDateTime),
	})
}

func (m *MockBackend) auditLogsFor(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		var match func(mockAuditLog) bool
		if kind == "entity" {
			id = chi.URLParam(r, "entityId")
			match = func(l mockAuditLog) bool { return slices.Contains(strings.Split(l.EntityIDs, ","), id) }
		} else {
			id = chi.URLParam(r, "agentId")
			match = func(l mockAuditLog) bool { return l.AgentID == id }
		}
		logs, _ := m.snapshot(match)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Audit logs retrieved successfully",
			kind + "Id": id,
			"auditLogs": logs,
			"totalLogs": len(logs),
			"timestamp": m.now().Format(localDateTime),
		})
	}
}

// record добавляет запись аудита, как это делает AuditService бэкенда.
func (m *MockBackend) record(opType, agentID, agentType, entityIDs string, score *float64, reason, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.logs = append(m.logs, mockAuditLog{
		ID:              m.seq,
		OperationType:   opType,
		AgentID:         agentID,
		AgentType:       agentType,
		EntityIDs:       entityIDs,
		ConfidenceScore: score,
		DecisionReason:  reason,
		Status:          status,
		ExecutionTimeMs: 5 + rand.Int63n(120),
		CreatedAt:       m.now().Format(localDateTime),
	})
}

// snapshot возвращает записи от новых к старым и агрегаты по всему журналу.
func (m *MockBackend) snapshot(match func(mockAuditLog) bool) ([]mockAuditLog, map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]mockAuditLog, 0, len(m.logs))
	var matchLogs, mergeLogs, successLogs int
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		switch l.OperationType {
		case "MATCH_FOUND":
			matchLogs++
		case "MERGE_COMPLETED":
			mergeLogs++
		}
		if l.Status == "SUCCESS" {
			successLogs++
		}
		if match(l) {
			out = append(out, l)
		}
	}
	rate := 0.0
	if len(m.logs) > 0 {
		rate = float64(successLogs) / float64(len(m.logs))
	}
	return out, map[string]any{
		"totalLogs":   len(m.logs),
		"matchLogs":   matchLogs,
		"mergeLogs":   mergeLogs,
		"successLogs": successLogs,
		"successRate": rate,
	}
}

func sampleEntities() []mockEntity {
	return []mockEntity{
		{EntityID: "CRM_001", EntityType: "PERSON", SourceSystem: "CRM", ConfidenceScore: 0.95, Status: "ACTIVE",
			Attributes: map[string]string{"firstName": "John", "lastName": "Doe", "email": "john.doe@email.com", "phone": "555-123-4567", "address": "123 Main St, Anytown, USA"}},
		{EntityID: "ERP_001", EntityType: "PERSON", SourceSystem: "ERP", ConfidenceScore: 0.90, Status: "ACTIVE",
			Attributes: map[string]string{"firstName": "John", "lastName": "Doe", "email": "john.doe@email.com", "phone": "555-123-4567", "address": "123 Main Street, Anytown, USA", "department": "Engineering"}},
		{EntityID: "CRM_002", EntityType: "PERSON", SourceSystem: "CRM", ConfidenceScore: 0.88, Status: "ACTIVE",
			Attributes: map[string]string{"firstName": "Jane", "lastName": "Smith", "email": "jane.smith@email.com", "phone": "555-987-6543", "address": "456 Oak Ave, Somewhere, USA"}},
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// StartMockBackend поднимает MockBackend на addr ("127.0.0.1:0" выберет свободный порт)
// и возвращает базовый URL. Сервер останавливается вместе с ctx.
func StartMockBackend(ctx context.Context, addr string, backend *MockBackend, logger *zap.Logger) (string, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("mock backend listen: %w", err)
	}
	srv := &http.Server{Handler: backend.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.Error("mock backend stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := "http://" + lis.Addr().String()
	logger.Info("mock backend started", zap.String("url", url))
	return url, nil
}
