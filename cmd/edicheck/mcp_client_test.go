package main

import (
	"context"
	"testing"

	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"

	emcp "github.com/viant/edicheck/mcp"
)

func TestDecodeToolResult(t *testing.T) {
	isError := true
	testCases := []struct {
		name    string
		res     *mcpschema.CallToolResult
		wantErr bool
		wantHit bool
	}{
		{name: "nil", wantErr: true},
		{
			name:    "structured",
			res:     &mcpschema.CallToolResult{StructuredContent: map[string]interface{}{"result": map[string]interface{}{"cacheHit": true}}},
			wantHit: true,
		},
		{
			name:    "typed text",
			res:     &mcpschema.CallToolResult{Content: []mcpschema.CallToolResultContentElem{mcpschema.TextContent{Type: "text", Text: `{"cacheHit":true}`}}},
			wantHit: true,
		},
		{
			name:    "decoded text",
			res:     &mcpschema.CallToolResult{Content: []mcpschema.CallToolResultContentElem{map[string]interface{}{"type": "text", "text": `{"cacheHit":true}`}}},
			wantHit: true,
		},
		{
			name:    "tool error",
			res:     &mcpschema.CallToolResult{IsError: &isError, Content: []mcpschema.CallToolResultContentElem{mcpschema.TextContent{Type: "text", Text: "missing query"}}},
			wantErr: true,
		},
		{name: "empty", res: &mcpschema.CallToolResult{}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out emcp.SearchRulesOutput
			err := decodeToolResult("searchRules", tc.res, &out)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if out.CacheHit != tc.wantHit {
				t.Fatalf("CacheHit = %v, want %v", out.CacheHit, tc.wantHit)
			}
		})
	}
}

func TestRejectServerRequests(t *testing.T) {
	req := &jsonrpc.Request{Id: 3, Jsonrpc: "2.0", Method: mcpschema.MethodRootsList}
	resp := &jsonrpc.Response{}
	rejectServerRequests{}.Serve(context.Background(), req, resp)
	if resp.Error == nil || resp.Error.Code != jsonrpc.MethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
	if resp.Id != req.Id {
		t.Fatalf("response id %v, want %v", resp.Id, req.Id)
	}
}
