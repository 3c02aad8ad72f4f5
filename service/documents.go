package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/edicheck/cache"
	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/store"
	"github.com/viant/edicheck/validation"
)

// Ingest stores a document, deduplicating by content hash.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if strings.TrimSpace(req.Markup) == "" {
		return nil, fmt.Errorf("markup is required")
	}
	hash, err := cache.HashString(req.Markup)
	if err != nil {
		return nil, err
	}
	existing, err := store.FindDocumentByHash(ctx, s.store, hash)
	if err == nil {
		s.logger.Info("duplicate document, skipping ingest", "documentId", existing.ID, "filename", req.Filename)
		return &IngestResult{Document: existing, Duplicate: true}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	doc := &document.Document{
		Filename:    req.Filename,
		Type:        req.Type,
		Markup:      req.Markup,
		ContentHash: hash,
		OwnerID:     req.OwnerID,
	}
	if err := store.InsertDocument(ctx, s.store, doc); err != nil {
		return nil, err
	}
	s.logger.Info("document ingested", "documentId", doc.ID, "filename", doc.Filename, "docType", doc.Type)
	result := &IngestResult{Document: doc}
	if req.Validate {
		verdict, err := s.ValidateDocument(ctx, doc.ID, req.SchemaName)
		if err != nil {
			return nil, err
		}
		result.Verdict = verdict
		if result.Document, err = store.GetDocument(ctx, s.store, doc.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ValidateAndParse runs the schema gate, the structural parser and the
// arithmetic check on markup. Nothing is persisted.
func (s *Service) ValidateAndParse(ctx context.Context, req ValidateRequest) (*validation.Verdict, error) {
	content := req.Schema
	if content == "" && req.SchemaName != "" {
		schema, err := s.schemas.Active(ctx, req.SchemaName)
		if err != nil {
			return nil, err
		}
		content = schema.Content
	}
	return validation.Validate(s.logger, req.Markup, content), nil
}

// ValidateDocument validates a stored document and records its status,
// parsed metadata and diagnostic. The named schema, or the default schema
// when schemaName is empty, is applied when an active version exists.
func (s *Service) ValidateDocument(ctx context.Context, documentID int64, schemaName string) (*validation.Verdict, error) {
	logger := s.logger.With("documentId", documentID)
	doc, err := store.GetDocument(ctx, s.store, documentID)
	if err != nil {
		return nil, err
	}
	content, err := s.schemaContent(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	verdict := validation.Validate(logger, doc.Markup, content)
	if err := store.UpdateVerdict(ctx, s.store, doc.ID, verdict.Status, verdict.Invoice, verdict.Diagnostic); err != nil {
		return nil, err
	}
	logger.Info("document validated", "status", string(verdict.Status))
	return verdict, nil
}

// schemaContent resolves the active schema content. An explicitly named
// schema must exist; a missing default schema disables the schema gate.
func (s *Service) schemaContent(ctx context.Context, name string) (string, error) {
	explicit := name != ""
	if !explicit {
		name = s.schemaName
	}
	schema, err := s.schemas.Active(ctx, name)
	if err == nil {
		return schema.Content, nil
	}
	if !explicit && errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return "", err
}

// Document loads a stored document.
func (s *Service) Document(ctx context.Context, id int64) (*document.Document, error) {
	return store.GetDocument(ctx, s.store, id)
}

// Documents lists documents, newest first, optionally filtered by status.
func (s *Service) Documents(ctx context.Context, status document.Status, limit int) ([]*document.Document, error) {
	return store.ListDocuments(ctx, s.store, status, limit)
}

// Results lists the analysis results of a document.
func (s *Service) Results(ctx context.Context, documentID int64) ([]*document.AnalysisResult, error) {
	return store.ListResults(ctx, s.store, documentID)
}

// SubmitFeedback records a reviewer verdict on an analysis result.
func (s *Service) SubmitFeedback(ctx context.Context, resultID int64, feedback document.Feedback) error {
	if err := store.SetFeedback(ctx, s.store, resultID, feedback); err != nil {
		return err
	}
	s.logger.Info("feedback recorded", "resultId", resultID, "helpful", feedback.Helpful)
	return nil
}
