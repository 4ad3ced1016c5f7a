package stdio

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// JSONRPCVersion is the only protocol version the client speaks.
	JSONRPCVersion = "2.0"

	// ProtocolVersion is the MCP protocol revision sent with initialize.
	ProtocolVersion = "2024-11-05"

	// DefaultClientName and DefaultClientVersion identify the client when the
	// caller does not supply its own clientInfo.
	DefaultClientName    = "mcp-test-client"
	DefaultClientVersion = "1.0.0"

	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// Request is a JSON-RPC 2.0 request as written to the server.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int64          `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

// Response is a decoded JSON-RPC response object, kept exactly as the server
// sent it.
type Response map[string]any

// ID returns the raw id field.
func (r Response) ID() any {
	return r["id"]
}

// HasResult reports whether the response carries a result field.
func (r Response) HasResult() bool {
	_, ok := r["result"]
	return ok
}

// Result returns the result field, or nil if it is absent.
func (r Response) Result() any {
	return r["result"]
}

// ResultObject returns the result field when it is a JSON object.
func (r Response) ResultObject() (map[string]any, bool) {
	m, ok := r["result"].(map[string]any)
	return m, ok
}

// Tools returns result.tools as tool definitions. Entries that are not
// objects are dropped; a missing list yields an empty, non-nil slice.
func (r Response) Tools() []ToolDefinition {
	tools := []ToolDefinition{}
	result, ok := r.ResultObject()
	if !ok {
		return tools
	}
	list, ok := result["tools"].([]any)
	if !ok {
		return tools
	}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			tools = append(tools, ToolDefinition(m))
		}
	}
	return tools
}

// IsToolError reports whether a tools/call result is flagged with isError.
func (r Response) IsToolError() bool {
	result, ok := r.ResultObject()
	if !ok {
		return false
	}
	isErr, _ := result["isError"].(bool)
	return isErr
}

// RPCError returns the error field decoded into an RPCError, or nil when the
// response has no error.
func (r Response) RPCError() *RPCError {
	raw, ok := r["error"]
	if !ok || raw == nil {
		return nil
	}
	rpcErr := &RPCError{}
	if err := remarshal(raw, rpcErr); err != nil {
		rpcErr.Message = fmt.Sprintf("%v", raw)
	}
	return rpcErr
}

// DecodeResult unmarshals the result field into v.
func (r Response) DecodeResult(v any) error {
	if !r.HasResult() {
		return fmt.Errorf("response has no result")
	}
	return remarshal(r["result"], v)
}

// InitializeResult decodes the result of an initialize response into the
// typed MCP view.
func (r Response) InitializeResult() (*mcp.InitializeResult, error) {
	result := &mcp.InitializeResult{}
	if err := r.DecodeResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ToolDefinition is one entry of a tools/list result. It is not validated.
type ToolDefinition map[string]any

// Name returns the tool's name, or "" if missing.
func (t ToolDefinition) Name() string {
	s, _ := t["name"].(string)
	return s
}

// Description returns the tool's description, or "" if missing.
func (t ToolDefinition) Description() string {
	s, _ := t["description"].(string)
	return s
}

// Tool decodes the definition into mcp-go's typed Tool.
func (t ToolDefinition) Tool() (mcp.Tool, error) {
	var tool mcp.Tool
	if err := remarshal(map[string]any(t), &tool); err != nil {
		return mcp.Tool{}, fmt.Errorf("decode tool %q: %w", t.Name(), err)
	}
	return tool, nil
}

func remarshal(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// idMatches compares a decoded JSON id against the id that was sent.
func idMatches(raw any, want int64) bool {
	switch v := raw.(type) {
	case float64:
		return v == float64(want)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return err == nil && n == want
	default:
		return false
	}
}
