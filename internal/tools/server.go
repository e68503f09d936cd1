package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mudler/x-mcp/internal/xapi"
)

var descriptions = map[Name]string{
	GetUser:       "Get a user's profile by username or user id",
	PostTweet:     "Post a new tweet, optionally as a reply",
	SearchTweets:  "Search recent tweets by keyword, hashtag or query operators",
	GetTweet:      "Get a single tweet by id, with its author",
	GetUserTweets: "Get a user's most recent tweets",
}

// Tool returns the MCP definition of n, including its input schema.
func Tool(n Name) (*mcp.Tool, error) {
	var (
		schema *jsonschema.Schema
		err    error
	)
	switch n {
	case GetUser:
		schema, err = jsonschema.For[GetUserArgs](nil)
	case PostTweet:
		schema, err = jsonschema.For[PostTweetArgs](nil)
	case SearchTweets:
		schema, err = jsonschema.For[SearchTweetsArgs](nil)
	case GetTweet:
		schema, err = jsonschema.For[GetTweetArgs](nil)
	case GetUserTweets:
		schema, err = jsonschema.For[GetUserTweetsArgs](nil)
	default:
		return nil, &UnknownToolError{Name: string(n)}
	}
	if err != nil {
		return nil, fmt.Errorf("%s schema: %w", n, err)
	}
	// Unknown keys are ignored by the dispatcher.
	schema.AdditionalProperties = nil
	if _, ok := schema.Properties["max_results"]; ok {
		schema.Properties["max_results"] = maxResultsSchema()
	}

	openWorld := true
	annotations := &mcp.ToolAnnotations{
		ReadOnlyHint:   n.ReadOnly(),
		IdempotentHint: n.ReadOnly(),
		OpenWorldHint:  &openWorld,
	}
	if !n.ReadOnly() {
		destructive := false
		annotations.DestructiveHint = &destructive
	}

	return &mcp.Tool{
		Name:        string(n),
		Description: descriptions[n],
		InputSchema: schema,
		Annotations: annotations,
	}, nil
}

func maxResultsSchema() *jsonschema.Schema {
	lo, hi := float64(xapi.MinResults), float64(xapi.MaxResults)
	return &jsonschema.Schema{
		Type:        "integer",
		Description: fmt.Sprintf("max tweets to return (default %d, %d-%d)", xapi.DefaultResults, xapi.MinResults, xapi.MaxResults),
		Default:     json.RawMessage(fmt.Sprint(xapi.DefaultResults)),
		Minimum:     &lo,
		Maximum:     &hi,
	}
}

// Register adds every tool to server.
func (d *Dispatcher) Register(server *mcp.Server) error {
	for _, n := range Names {
		tool, err := Tool(n)
		if err != nil {
			return err
		}
		server.AddTool(tool, d.handler(n))
	}
	return nil
}

func (d *Dispatcher) handler(n Name) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		return d.Call(ctx, string(n), args), nil
	}
}

// Call runs one invocation and renders its outcome. Failures become tool
// results with IsError set, never protocol errors.
func (d *Dispatcher) Call(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult {
	logger := d.logger.With("request_id", uuid.NewString(), "tool", name)
	start := time.Now()

	out, err := d.Dispatch(ctx, name, args)
	if err != nil {
		res := ErrorResult(err)
		logger.Warn("tool call failed", "duration", time.Since(start), "error_type", res.ErrorType, "error", res.Error)
		return render(res, true)
	}
	logger.Info("tool call succeeded", "duration", time.Since(start))
	return render(out, false)
}

func render(v any, isError bool) *mcp.CallToolResult {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		v = ErrorResult(fmt.Errorf("encode result: %w", err))
		text, _ = json.Marshal(v)
		isError = true
	}
	res := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		IsError: isError,
	}
	if !isError {
		res.StructuredContent = v
	}
	return res
}
