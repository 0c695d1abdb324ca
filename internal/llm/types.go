package llm

import "github.com/civicworks/billchat/internal/types"

// ChatRequest is the OpenAI chat completions request body.
type ChatRequest struct {
	Model       string                 `json:"model"`
	Messages    []types.Message        `json:"messages"`
	Temperature float64                `json:"temperature,omitempty"`
	Stream      bool                   `json:"stream"`
	Tools       []types.ToolDefinition `json:"tools,omitempty"`
	ToolChoice  string                 `json:"tool_choice,omitempty"`
}

// StreamChunk is one SSE data event of a streaming completion.
type StreamChunk struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"` // only in the final chunk
}

type StreamChoice struct {
	Index        int          `json:"index"`
	Delta        MessageDelta `json:"delta"`
	FinishReason *string      `json:"finish_reason"`
}

// MessageDelta is the incremental content in one stream chunk.
type MessageDelta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is incremental tool call data; arguments arrive in fragments
// keyed by index.
type ToolCallDelta struct {
	Index    int                `json:"index"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function *FunctionCallDelta `json:"function,omitempty"`
}

type FunctionCallDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EmbeddingRequest is the OpenAI embeddings request body.
type EmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage Usage `json:"usage"`
}
