package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/service"
)

//go:embed tools/validate.md
var descValidate string

//go:embed tools/ingest.md
var descIngest string

//go:embed tools/analyze.md
var descAnalyze string

//go:embed tools/searchRules.md
var descSearchRules string

//go:embed tools/renderPrompt.md
var descRenderPrompt string

//go:embed tools/feedback.md
var descFeedback string

const defaultRuleLimit = 3

func registerTools(registry *protoserver.Registry, h *Handler) error {
	if err := protoserver.RegisterTool[*ValidateInput, *ValidateOutput](registry, "validate", descValidate, func(ctx context.Context, in *ValidateInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.validate(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*IngestInput, *IngestOutput](registry, "ingest", descIngest, func(ctx context.Context, in *IngestInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.ingest(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*AnalyzeInput, *AnalyzeOutput](registry, "analyze", descAnalyze, func(ctx context.Context, in *AnalyzeInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.analyze(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*SearchRulesInput, *SearchRulesOutput](registry, "searchRules", descSearchRules, func(ctx context.Context, in *SearchRulesInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.searchRules(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*RenderPromptInput, *RenderPromptOutput](registry, "renderPrompt", descRenderPrompt, func(ctx context.Context, in *RenderPromptInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.renderPrompt(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*FeedbackInput, *FeedbackOutput](registry, "feedback", descFeedback, func(ctx context.Context, in *FeedbackInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.feedback(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	return nil
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	b, _ := json.Marshal(payload)
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: string(b)},
		},
		StructuredContent: map[string]any{"result": payload},
	}, nil
}

func (h *Handler) validate(ctx context.Context, in *ValidateInput) (*ValidateOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.Markup == "" {
		return nil, fmt.Errorf("mcp: missing markup")
	}
	verdict, err := h.service.ValidateAndParse(ctx, service.ValidateRequest{Markup: in.Markup, Schema: in.Schema, SchemaName: in.SchemaName})
	if err != nil {
		return nil, err
	}
	return &ValidateOutput{Verdict: verdict}, nil
}

func (h *Handler) ingest(ctx context.Context, in *IngestInput) (*IngestOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.Markup == "" {
		return nil, fmt.Errorf("mcp: missing markup")
	}
	result, err := h.service.Ingest(ctx, service.IngestRequest{
		Filename:   in.Filename,
		Markup:     in.Markup,
		Type:       in.DocType,
		Validate:   in.Validate,
		SchemaName: in.SchemaName,
	})
	if err != nil {
		return nil, err
	}
	out := &IngestOutput{
		DocumentID: result.Document.ID,
		Status:     result.Document.Status,
		Duplicate:  result.Duplicate,
		Verdict:    result.Verdict,
	}
	if in.Analyze && !result.Duplicate {
		msg, err := h.service.Enqueue(ctx, result.Document.ID)
		if err != nil {
			return nil, err
		}
		out.MessageID = msg.ID
	}
	return out, nil
}

func (h *Handler) analyze(ctx context.Context, in *AnalyzeInput) (*AnalyzeOutput, error) {
	start := time.Now()
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.DocumentID <= 0 {
		return nil, fmt.Errorf("mcp: missing documentId")
	}
	if in.Async {
		msg, err := h.service.Enqueue(ctx, in.DocumentID)
		if err != nil {
			return nil, err
		}
		return &AnalyzeOutput{MessageID: msg.ID}, nil
	}
	outcome, err := h.service.Analyze(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("mcp analyze", "documentId", in.DocumentID, "status", string(outcome.Status), "duration", time.Since(start).String())
	return &AnalyzeOutput{Outcome: outcome}, nil
}

func (h *Handler) searchRules(ctx context.Context, in *SearchRulesInput) (*SearchRulesOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &SearchRulesInput{}
	}
	k := in.K
	if k <= 0 {
		k = defaultRuleLimit
	}
	vec := in.Vector
	cacheHit := false
	if len(vec) == 0 {
		var err error
		if vec, cacheHit, err = h.queryEmbedding(ctx, in.Query); err != nil {
			return nil, err
		}
	}
	matches, err := h.service.SearchRules(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	out := &SearchRulesOutput{Rules: make([]RuleMatch, 0, len(matches)), CacheHit: cacheHit}
	for _, m := range matches {
		out.Rules = append(out.Rules, RuleMatch{ID: m.Entry.ID, Topic: m.Entry.Topic, Rule: m.Entry.RuleText, Distance: m.Distance})
	}
	return out, nil
}

func (h *Handler) renderPrompt(ctx context.Context, in *RenderPromptInput) (*RenderPromptOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &RenderPromptInput{}
	}
	text, err := h.service.RenderPrompt(ctx, service.RenderRequest{TemplateName: in.TemplateName, Bindings: in.Bindings})
	if err != nil {
		return nil, err
	}
	return &RenderPromptOutput{Text: text}, nil
}

func (h *Handler) feedback(ctx context.Context, in *FeedbackInput) (*FeedbackOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ResultID <= 0 {
		return nil, fmt.Errorf("mcp: missing resultId")
	}
	if err := h.service.SubmitFeedback(ctx, in.ResultID, document.Feedback{Helpful: in.Helpful, Comment: in.Comment}); err != nil {
		return nil, err
	}
	return &FeedbackOutput{ResultID: in.ResultID}, nil
}
