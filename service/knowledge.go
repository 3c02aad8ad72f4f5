package service

import (
	"context"
	"fmt"

	"github.com/viant/edicheck/knowledge"
)

// SearchRules returns the k approved entries nearest to a query vector.
func (s *Service) SearchRules(ctx context.Context, query []float32, k int) ([]knowledge.Match, error) {
	return s.knowledge.Search(ctx, query, k)
}

// SearchRulesText embeds text and searches with the resulting vector.
func (s *Service) SearchRulesText(ctx context.Context, text string, k int) ([]knowledge.Match, error) {
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.knowledge.Search(ctx, vec, k)
}

// AddRule embeds and stores a rule. An empty status admits it as approved.
func (s *Service) AddRule(ctx context.Context, topic, text string, status knowledge.Status) (*knowledge.Entry, error) {
	if status == "" {
		status = knowledge.StatusApproved
	}
	entry, err := s.knowledge.AddWithStatus(ctx, topic, text, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("rule added", "ruleId", entry.ID, "topic", topic, "status", string(entry.Status))
	return entry, nil
}

func (s *Service) SetRuleStatus(ctx context.Context, id int64, status knowledge.Status) error {
	if err := s.knowledge.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("rule status changed", "ruleId", id, "status", string(status))
	return nil
}
