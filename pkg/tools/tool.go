package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface for all tools. Args arrive as a JSON object string;
// Schema describes that object so LLM function calling and MCP clients can
// build valid invocations.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Run(ctx context.Context, args string) (string, error)
}
