package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Event is one SSE data payload on the /api/chat stream.
type Event struct {
	Type    string `json:"type"` // text, tool_call, tool_result, error
	Content string `json:"content,omitempty"`
	Tool    string `json:"tool,omitempty"`
}

// sseWriter streams events to the client. Headers are written lazily on the
// first event so early failures can still produce a plain JSON error
// response.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	reqID   string
	started bool
}

func newSSEWriter(w http.ResponseWriter, reqID string) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported by transport")
	}
	return &sseWriter{w: w, flusher: flusher, reqID: reqID}, nil
}

// Started reports whether the SSE response has begun; after that point
// errors can only be delivered in-stream.
func (s *sseWriter) Started() bool { return s.started }

func (s *sseWriter) start() {
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.Header().Set("X-Request-ID", s.reqID)
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
	s.started = true
}

// WriteEvent sends one event and flushes it to the transport.
func (s *sseWriter) WriteEvent(ev Event) error {
	if !s.started {
		s.start()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteDone terminates the stream.
func (s *sseWriter) WriteDone() {
	if !s.started {
		s.start()
	}
	fmt.Fprintf(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
