package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/viant/jsonrpc"
	streamingclient "github.com/viant/jsonrpc/transport/client/http/streamable"
	mcpschema "github.com/viant/mcp-protocol/schema"
	mcpclient "github.com/viant/mcp/client"

	emcp "github.com/viant/edicheck/mcp"
)

// rejectServerRequests answers server initiated requests (roots, sampling,
// elicitation) with method not found; the CLI only calls tools.
type rejectServerRequests struct{}

func (rejectServerRequests) Serve(_ context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not supported by edicheck cli", request.Method), nil)
}

func (rejectServerRequests) OnNotification(context.Context, *jsonrpc.Notification) {}

func mcpSearchRules(ctx context.Context, addr, query string, k int) (*emcp.SearchRulesOutput, error) {
	start := time.Now()
	url := normalizeMCPURL(addr)
	transport, err := streamingclient.New(ctx, url, streamingclient.WithHandler(rejectServerRequests{}))
	if err != nil {
		return nil, err
	}
	cli := mcpclient.New("edicheck-cli", "0.1.0", transport)
	defer cli.Close()
	if _, err := cli.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("mcp initialize %s: %w", url, err)
	}
	var out emcp.SearchRulesOutput
	err = callTool(ctx, cli, "searchRules", &emcp.SearchRulesInput{Query: query, K: k}, &out)
	log.Printf("mcp op=searchRules addr=%s dur=%s err=%v", addr, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func callTool(ctx context.Context, cli *mcpclient.Client, name string, input, out any) error {
	params, err := mcpschema.NewCallToolRequestParams(name, input)
	if err != nil {
		return err
	}
	res, err := cli.CallTool(ctx, params)
	if err != nil {
		return fmt.Errorf("mcp %s: %w", name, err)
	}
	return decodeToolResult(name, res, out)
}

// decodeToolResult prefers structured content and falls back to the first
// text block; a result flagged as error is returned as one.
func decodeToolResult(name string, res *mcpschema.CallToolResult, out any) error {
	if res == nil {
		return fmt.Errorf("mcp %s: empty response", name)
	}
	text := firstText(res.Content)
	if res.IsError != nil && *res.IsError {
		return fmt.Errorf("mcp %s: %s", name, text)
	}
	if v, ok := res.StructuredContent["result"]; ok {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("mcp %s: empty result", name)
	}
	return json.Unmarshal([]byte(text), out)
}

// firstText round trips content blocks through JSON, which covers both
// typed and decoded map forms.
func firstText(content []mcpschema.CallToolResultContentElem) string {
	for _, elem := range content {
		data, err := json.Marshal(elem)
		if err != nil {
			continue
		}
		var block mcpschema.TextContent
		if json.Unmarshal(data, &block) == nil && block.Text != "" {
			return block.Text
		}
	}
	return ""
}

func normalizeMCPURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if strings.HasSuffix(addr, "/mcp") {
		return addr
	}
	return strings.TrimSuffix(addr, "/") + "/mcp"
}
