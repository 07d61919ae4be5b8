package service

import (
	"context"
	"encoding/json"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
)

// AgentMergeService панель Agent Merge: операции интеллектуальных агентов.
type AgentMergeService struct {
	sender Sender
	logger *zap.Logger
}

func NewAgentMergeService(sender Sender, logger *zap.Logger) *AgentMergeService {
	return &AgentMergeService{sender: sender, logger: logger.Named("agent-merge")}
}

func (s *AgentMergeService) LoadSampleData(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpLoadSampleData)
}

func (s *AgentMergeService) AgentStatus(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpAgentStatus)
}

func (s *AgentMergeService) FindMatches(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpFindMatches)
}

func (s *AgentMergeService) BulkMerge(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpBulkMerge)
}

func (s *AgentMergeService) Health(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpHealth)
}

// CompleteWorkflow ровно один POST. Загрузку данных, поиск совпадений
// и слияние бэкенд выполняет сам, клиент промежуточные шаги не вызывает.
func (s *AgentMergeService) CompleteWorkflow(ctx context.Context) (json.RawMessage, error) {
	raw, err := call(ctx, s.sender, domain.OpCompleteWorkflow)
	if err != nil {
		s.logger.Warn("complete workflow failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("complete workflow finished", zap.Int("payload_bytes", len(raw)))
	return raw, nil
}
