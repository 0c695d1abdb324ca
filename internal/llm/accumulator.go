package llm

import (
	"strings"

	"github.com/civicworks/billchat/internal/types"
)

// StreamAccumulator folds streaming chunks into a complete assistant turn.
// Tool-call arguments arrive as fragments keyed by index and are concatenated
// per the OpenAI streaming pattern.
type StreamAccumulator struct {
	content      strings.Builder
	toolCalls    []types.ToolCall
	usage        *Usage
	role         string
	finishReason string
}

// Add processes one streaming chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Usage != nil {
		a.usage = chunk.Usage
	}
	if len(chunk.Choices) == 0 {
		return
	}

	choice := chunk.Choices[0]
	delta := choice.Delta

	if delta.Role != "" {
		a.role = delta.Role
	}
	if delta.Content != "" {
		a.content.WriteString(delta.Content)
	}
	for _, tc := range delta.ToolCalls {
		a.accumulateToolCall(tc)
	}
	if choice.FinishReason != nil && *choice.FinishReason != "" {
		a.finishReason = *choice.FinishReason
	}
}

func (a *StreamAccumulator) accumulateToolCall(delta ToolCallDelta) {
	// A malformed chunk can carry a negative index; drop it.
	if delta.Index < 0 {
		return
	}
	for len(a.toolCalls) <= delta.Index {
		a.toolCalls = append(a.toolCalls, types.ToolCall{Type: "function"})
	}

	tc := &a.toolCalls[delta.Index]
	if delta.ID != "" {
		tc.ID = delta.ID
	}
	if delta.Type != "" {
		tc.Type = delta.Type
	}
	if delta.Function != nil {
		if delta.Function.Name != "" {
			tc.Function.Name += delta.Function.Name
		}
		tc.Function.Arguments += delta.Function.Arguments
	}
}

// Message returns the accumulated assistant message.
func (a *StreamAccumulator) Message() types.Message {
	role := a.role
	if role == "" {
		role = "assistant"
	}
	return types.Message{
		Role:      role,
		Content:   a.content.String(),
		ToolCalls: a.toolCalls,
	}
}

// FinishReason returns the last finish_reason seen, e.g. "stop" or "tool_calls".
func (a *StreamAccumulator) FinishReason() string { return a.finishReason }

// HasToolCalls reports whether the turn requested any tool invocations.
func (a *StreamAccumulator) HasToolCalls() bool { return len(a.toolCalls) > 0 }

// Usage returns token usage when the final chunk carried it.
func (a *StreamAccumulator) Usage() *Usage { return a.usage }
