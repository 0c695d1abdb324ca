package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/civicworks/billchat/internal/llm"
	"github.com/civicworks/billchat/internal/telemetry"
	"github.com/civicworks/billchat/internal/tools"
	"github.com/civicworks/billchat/internal/types"
)

// ModelClient is the slice of llm.Client the loop depends on.
type ModelClient interface {
	ChatCompletionStream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, <-chan error)
}

// Loop drives the model through bounded tool-call rounds. Tool invocations
// requested by the model are resolved sequentially, in emission order,
// before the model continues generating.
type Loop struct {
	client      ModelClient
	registry    *tools.Registry
	model       string
	temperature float64
	maxRounds   int
	metrics     *telemetry.Metrics
}

func NewLoop(client ModelClient, registry *tools.Registry, model string, temperature float64, maxRounds int, metrics *telemetry.Metrics) *Loop {
	if maxRounds <= 0 {
		maxRounds = 10
	}
	return &Loop{
		client:      client,
		registry:    registry,
		model:       model,
		temperature: temperature,
		maxRounds:   maxRounds,
		metrics:     metrics,
	}
}

// Run streams a conversation to completion, emitting events as they are
// produced. messages must not include the system instruction; the loop
// prepends it.
func (l *Loop) Run(ctx context.Context, reqID string, messages []types.Message, emit func(Event) error) error {
	history := make([]types.Message, 0, len(messages)+1)
	history = append(history, types.Message{Role: "system", Content: systemPrompt})
	history = append(history, messages...)

	for round := 0; round < l.maxRounds; round++ {
		req := llm.ChatRequest{
			Model:       l.model,
			Messages:    history,
			Temperature: l.temperature,
			Tools:       l.registry.Definitions(),
		}
		// Last round: withhold the tools to force a final answer.
		if round == l.maxRounds-1 {
			req.Tools = nil
		}

		acc, err := l.streamRound(ctx, req, emit)
		if err != nil {
			return err
		}

		if l.metrics != nil && acc.Usage() != nil {
			l.metrics.RecordTokens(acc.Usage().PromptTokens, acc.Usage().CompletionTokens)
		}

		if acc.FinishReason() == "length" {
			slog.Warn("model output truncated", "request_id", reqID, "round", round)
		}

		assistant := acc.Message()
		if !acc.HasToolCalls() {
			return nil
		}

		history = append(history, assistant)
		for _, call := range assistant.ToolCalls {
			result, err := l.invokeTool(ctx, reqID, call, emit)
			if err != nil {
				return err
			}
			history = append(history, result)
		}
	}

	slog.Warn("tool round budget exhausted without final answer", "request_id", reqID, "max_rounds", l.maxRounds)
	return nil
}

func (l *Loop) streamRound(ctx context.Context, req llm.ChatRequest, emit func(Event) error) (*llm.StreamAccumulator, error) {
	chunkCh, errCh := l.client.ChatCompletionStream(ctx, req)

	var acc llm.StreamAccumulator
	for chunk := range chunkCh {
		acc.Add(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := emit(Event{Type: "text", Content: chunk.Choices[0].Delta.Content}); err != nil {
				return nil, err
			}
		}
	}
	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("model stream: %w", err)
	}
	return &acc, nil
}

// invokeTool dispatches one tool call and wraps the outcome as a tool
// message. Tool failures are serialized into the result so the model can
// explain them conversationally instead of aborting the request.
func (l *Loop) invokeTool(ctx context.Context, reqID string, call types.ToolCall, emit func(Event) error) (types.Message, error) {
	name := call.Function.Name
	if err := emit(Event{Type: "tool_call", Tool: name, Content: call.Function.Arguments}); err != nil {
		return types.Message{}, err
	}

	start := time.Now()
	result, err := l.registry.Dispatch(ctx, name, json.RawMessage(call.Function.Arguments))
	durationMs := float64(time.Since(start).Milliseconds())

	var payload []byte
	outcome := "ok"
	if err != nil {
		outcome = "error"
		slog.Warn("tool invocation failed",
			"request_id", reqID,
			"tool", name,
			"error", err,
			"duration_ms", durationMs,
		)
		payload, _ = json.Marshal(map[string]string{"error": err.Error()})
	} else {
		payload, err = json.Marshal(result)
		if err != nil {
			outcome = "error"
			payload, _ = json.Marshal(map[string]string{"error": "tool result not serializable"})
		}
		slog.Info("tool invocation complete",
			"request_id", reqID,
			"tool", name,
			"duration_ms", durationMs,
		)
	}

	if l.metrics != nil {
		l.metrics.RecordToolCall(name, outcome, durationMs)
	}

	if err := emit(Event{Type: "tool_result", Tool: name, Content: string(payload)}); err != nil {
		return types.Message{}, err
	}

	return types.Message{
		Role:       "tool",
		Content:    string(payload),
		ToolCallID: call.ID,
		Name:       name,
	}, nil
}
