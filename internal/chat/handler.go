package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/civicworks/billchat/internal/config"
	"github.com/civicworks/billchat/internal/httputil"
	"github.com/civicworks/billchat/internal/ratelimit"
	"github.com/civicworks/billchat/internal/telemetry"
	"github.com/civicworks/billchat/internal/types"
)

// Handler serves the conversational endpoints. Rate limiting runs in
// middleware before any of these are reached.
type Handler struct {
	loop    *Loop
	cfg     func() *config.Config
	metrics *telemetry.Metrics
}

func NewHandler(loop *Loop, cfg func() *config.Config, metrics *telemetry.Metrics) *Handler {
	return &Handler{loop: loop, cfg: cfg, metrics: metrics}
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	slog.Info("incoming chat request",
		"request_id", reqID,
		"client_ip", ratelimit.ClientIP(r),
	)

	var chatReq types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		h.record("400", receivedAt)
		return
	}
	if err := validateMessages(chatReq.Messages); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		h.record("400", receivedAt)
		return
	}

	sse, err := newSSEWriter(w, reqID)
	if err != nil {
		httputil.WriteInternalError(w, reqID, err.Error())
		h.record("500", receivedAt)
		return
	}

	// Hard wall-clock budget for the whole cycle; client disconnect also
	// cancels through the request context.
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg().Chat.RequestBudget)
	defer cancel()

	slog.Info("processing messages", "request_id", reqID, "count", len(chatReq.Messages))

	if err := h.loop.Run(ctx, reqID, chatReq.Messages, sse.WriteEvent); err != nil {
		slog.Error("chat request failed",
			"request_id", reqID,
			"error", err,
			"duration_ms", time.Since(receivedAt).Milliseconds(),
		)
		if !sse.Started() {
			httputil.WriteInternalError(w, reqID, err.Error())
		} else if !errors.Is(err, context.Canceled) {
			sse.WriteEvent(Event{Type: "error", Content: "An error occurred while processing your request."})
			sse.WriteDone()
		}
		h.record("500", receivedAt)
		return
	}

	sse.WriteDone()
	h.record("200", receivedAt)

	slog.Info("chat request complete",
		"request_id", reqID,
		"duration_ms", time.Since(receivedAt).Milliseconds(),
	)
}

// Suggestions handles GET /api/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	count := 3
	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			count = n
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"suggestions": RandomSuggestions(count),
	})
}

func (h *Handler) record(status string, receivedAt time.Time) {
	if h.metrics != nil {
		h.metrics.RecordRequest(status, float64(time.Since(receivedAt).Milliseconds()))
	}
}

func validateMessages(messages []types.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages is required")
	}
	for i, m := range messages {
		if !types.ValidRole(m.Role) {
			return fmt.Errorf("message %d: invalid role %q", i, m.Role)
		}
		if m.Role != "assistant" && m.Content == "" {
			return fmt.Errorf("message %d: content is required", i)
		}
	}
	return nil
}
