package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
)

// EntityMergeService панель Entity Merge: движок правил без агентов.
type EntityMergeService struct {
	sender Sender
	logger *zap.Logger
}

func NewEntityMergeService(sender Sender, logger *zap.Logger) *EntityMergeService {
	return &EntityMergeService{sender: sender, logger: logger.Named("entity-merge")}
}

func (s *EntityMergeService) LoadSampleData(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpEntityLoadSampleData)
}

func (s *EntityMergeService) FindMatchCandidates(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpFindMatchCandidates)
}

func (s *EntityMergeService) BulkMerge(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpEntityBulkMerge)
}

func (s *EntityMergeService) Health(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpEntityHealth)
}

// MergeTwoEntities сливает две сущности по идентификаторам.
// Пустой идентификатор отсекается до сети.
func (s *EntityMergeService) MergeTwoEntities(ctx context.Context, entityID1, entityID2 string) (json.RawMessage, error) {
	entityID1, entityID2 = strings.TrimSpace(entityID1), strings.TrimSpace(entityID2)
	if entityID1 == "" {
		return nil, domain.Required("entityId1")
	}
	if entityID2 == "" {
		return nil, domain.Required("entityId2")
	}

	s.logger.Debug("merging entities", zap.String("entity_id1", entityID1), zap.String("entity_id2", entityID2))
	q := url.Values{"entityId1": {entityID1}, "entityId2": {entityID2}}
	return s.sender.Send(ctx, domain.OpMergeEntities, nil, q, nil)
}
