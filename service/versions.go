package service

import (
	"context"

	"github.com/viant/edicheck/prompt"
	"github.com/viant/edicheck/xmlschema"
)

// RenderPrompt renders the active version of a template with bindings.
func (s *Service) RenderPrompt(ctx context.Context, req RenderRequest) (string, error) {
	name := req.TemplateName
	if name == "" {
		name = prompt.DefaultTemplateName
	}
	tpl, err := s.templates.Active(ctx, name)
	if err != nil {
		return "", err
	}
	return prompt.Render(tpl.Text, req.Bindings)
}

// CreateTemplateVersion validates and stores a new active template version.
func (s *Service) CreateTemplateVersion(ctx context.Context, name, text, description string, cfg prompt.Config) (*prompt.Template, error) {
	tpl, err := s.templates.CreateVersion(ctx, name, text, description, cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Info("template version created", "template", name, "version", tpl.Version)
	return tpl, nil
}

// Templates lists all versions of a template, oldest first.
func (s *Service) Templates(ctx context.Context, name string) ([]*prompt.Template, error) {
	return s.templates.Versions(ctx, name)
}

// CreateSchemaVersion validates and stores a new active schema version.
func (s *Service) CreateSchemaVersion(ctx context.Context, name, content string) (*xmlschema.Schema, error) {
	if name == "" {
		name = s.schemaName
	}
	schema, err := s.schemas.CreateVersion(ctx, name, content)
	if err != nil {
		return nil, err
	}
	s.logger.Info("schema version created", "schema", name, "version", schema.Version)
	return schema, nil
}

// Schemas lists all versions of a schema, oldest first.
func (s *Service) Schemas(ctx context.Context, name string) ([]*xmlschema.Schema, error) {
	if name == "" {
		name = s.schemaName
	}
	return s.schemas.Versions(ctx, name)
}
