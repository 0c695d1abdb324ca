package types

import "encoding/json"

// Message is the canonical chat message shape, both on the /api/chat wire
// and in requests to the model provider. Tool-call fields follow the
// OpenAI chat completions format.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a structured function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // always "function"
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON string
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ValidRole reports whether role is accepted on the inbound wire.
// Assistant messages with tool calls and tool results are allowed so the
// client can replay full conversation history.
func ValidRole(role string) bool {
	switch role {
	case "system", "user", "assistant", "tool":
		return true
	}
	return false
}

// ToolDefinition describes one callable tool in the provider wire format.
type ToolDefinition struct {
	Type     string             `json:"type"` // always "function"
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
