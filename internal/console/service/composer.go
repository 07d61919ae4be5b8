package service

import (
	"context"
	"encoding/json"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/engine"
	"go.uber.org/zap"
)

// Composer сопоставляет операции и пользовательский ввод с методами сервисов.
type Composer struct {
	Entity *EntityMergeService
	Agent  *AgentMergeService
	Audit  *AuditService
	Rules  *RuleService
}

func NewComposer(sender Sender, auditLimit int, logger *zap.Logger) *Composer {
	return &Composer{
		Entity: NewEntityMergeService(sender, logger),
		Agent:  NewAgentMergeService(sender, logger),
		Audit:  NewAuditService(sender, auditLimit),
		Rules:  NewRuleService(sender),
	}
}

// Work строит замыкание для контроллера. Проверка параметров
// выполняется внутри замыкания, поэтому ошибка ввода тоже приходит как Failed.
func (c *Composer) Work(op domain.Operation, p domain.Params) (engine.Work, error) {
	var fn engine.Work
	switch op {
	case domain.OpListRules:
		fn = c.Rules.List
	case domain.OpListRulesByDomain:
		fn = func(ctx context.Context) (json.RawMessage, error) { return c.Rules.ByDomain(ctx, p.Domain) }

	case domain.OpEntityLoadSampleData:
		fn = c.Entity.LoadSampleData
	case domain.OpFindMatchCandidates:
		fn = c.Entity.FindMatchCandidates
	case domain.OpEntityBulkMerge:
		fn = c.Entity.BulkMerge
	case domain.OpMergeEntities:
		fn = func(ctx context.Context) (json.RawMessage, error) {
			return c.Entity.MergeTwoEntities(ctx, p.EntityID1, p.EntityID2)
		}
	case domain.OpEntityHealth:
		fn = c.Entity.Health

	case domain.OpLoadSampleData:
		fn = c.Agent.LoadSampleData
	case domain.OpAgentStatus:
		fn = c.Agent.AgentStatus
	case domain.OpFindMatches:
		fn = c.Agent.FindMatches
	case domain.OpBulkMerge:
		fn = c.Agent.BulkMerge
	case domain.OpCompleteWorkflow:
		fn = c.Agent.CompleteWorkflow
	case domain.OpHealth:
		fn = c.Agent.Health

	case domain.OpAuditLogs:
		fn = func(ctx context.Context) (json.RawMessage, error) { return c.Audit.Logs(ctx, p.Limit) }
	case domain.OpEntityAuditLogs:
		fn = func(ctx context.Context) (json.RawMessage, error) { return c.Audit.ForEntity(ctx, p.EntityID) }
	case domain.OpAgentAuditLogs:
		fn = func(ctx context.Context) (json.RawMessage, error) { return c.Audit.ForAgent(ctx, p.AgentID) }

	default:
		return nil, &domain.ValidationError{Field: "operation", Reason: "unknown operation " + string(op)}
	}
	return fn, nil
}
