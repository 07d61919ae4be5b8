package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// AuditService читает журнал аудита агентов: целиком или с фильтром.
type AuditService struct {
	sender       Sender
	defaultLimit int
}

func NewAuditService(sender Sender, defaultLimit int) *AuditService {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &AuditService{sender: sender, defaultLimit: defaultLimit}
}

// Logs запрашивает последние записи. limit <= 0, значение по умолчанию.
func (s *AuditService) Logs(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	return s.sender.Send(ctx, domain.OpAuditLogs, nil, q, nil)
}

// ForEntity записи, затрагивающие сущность.
func (s *AuditService) ForEntity(ctx context.Context, entityID string) (json.RawMessage, error) {
	return s.filtered(ctx, domain.OpEntityAuditLogs, "entityId", entityID)
}

// ForAgent записи конкретного агента.
func (s *AuditService) ForAgent(ctx context.Context, agentID string) (json.RawMessage, error) {
	return s.filtered(ctx, domain.OpAgentAuditLogs, "agentId", agentID)
}

func (s *AuditService) filtered(ctx context.Context, op domain.Operation, param, value string) (json.RawMessage, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, domain.Required(param)
	}
	raw, err := s.sender.Send(ctx, op, map[string]string{param: value}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("audit logs for %s %s: %w", param, value, err)
	}
	return raw, nil
}
