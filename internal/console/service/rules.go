package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// RuleService читает правила сопоставления из движка правил бэкенда.
type RuleService struct {
	sender Sender
}

func NewRuleService(sender Sender) *RuleService {
	return &RuleService{sender: sender}
}

// List возвращает все правила.
func (s *RuleService) List(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, s.sender, domain.OpListRules)
}

// ByDomain возвращает правила одного домена, например LifeSciences.
func (s *RuleService) ByDomain(ctx context.Context, name string) (json.RawMessage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Required("domain")
	}
	return s.sender.Send(ctx, domain.OpListRulesByDomain, map[string]string{"domain": name}, nil, nil)
}
