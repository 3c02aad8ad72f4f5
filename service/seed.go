package service

import (
	"context"
	"errors"

	"github.com/viant/edicheck/prompt"
	"github.com/viant/edicheck/store"
)

const (
	seedRuleTopic = "Validation"
	seedRuleText  = "Document total cannot be negative."
)

// SeedReport tells which seed artifacts were installed.
type SeedReport struct {
	Rule     bool `json:"rule"`
	Template bool `json:"template"`
}

// Seed installs a base approved rule when the knowledge base is empty and
// the first analysis template when none is active.
func (s *Service) Seed(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}
	count, err := s.knowledge.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		if _, err := s.AddRule(ctx, seedRuleTopic, seedRuleText, ""); err != nil {
			return nil, err
		}
		report.Rule = true
	}
	_, err = s.templates.Active(ctx, prompt.DefaultTemplateName)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if _, err := s.CreateTemplateVersion(ctx, prompt.DefaultTemplateName, prompt.SeedTemplate, "Base template", prompt.SeedConfig()); err != nil {
			return nil, err
		}
		report.Template = true
	case err != nil:
		return nil, err
	}
	s.logger.Info("seed completed", "rule", report.Rule, "template", report.Template)
	return report, nil
}
