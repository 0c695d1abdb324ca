package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/civicworks/billchat/internal/config"
	"github.com/civicworks/billchat/internal/govinfo"
	"github.com/civicworks/billchat/internal/llm"
	"github.com/civicworks/billchat/internal/tools"
)

func testConfig() func() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Chat.RequestBudget = 10 * time.Second
	return func() *config.Config { return cfg }
}

// newChatHandler wires a real registry, GovInfo client, and llm client
// against mock upstream servers.
func newChatHandler(t *testing.T) *Handler {
	t.Helper()

	govServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"count": 1,
			"results": []map[string]any{{
				"packageId":  "BILLS-118hr10150ih",
				"title":      "Clean Energy Act",
				"dateIssued": "2024-03-01",
			}},
		})
	}))
	t.Cleanup(govServer.Close)

	rounds := 0
	modelServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rounds++
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		var chunks []string
		if rounds == 1 {
			chunks = []string{
				`{"choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"search_bills","arguments":"{\"query\":\"climate change\"}"}}]},"finish_reason":null}]}`,
				`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
			}
		} else {
			chunks = []string{
				`{"choices":[{"index":0,"delta":{"content":"I found 1 bill."},"finish_reason":null}]}`,
				`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
			}
		}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	t.Cleanup(modelServer.Close)

	registry := tools.NewRegistry()
	govClient := govinfo.NewClient(govServer.URL, "test-key", 15*time.Second, govServer.Client())
	if err := tools.RegisterBillTools(registry, govClient); err != nil {
		t.Fatalf("register tools: %v", err)
	}

	modelClient := llm.NewClient(modelServer.URL, "test-key", modelServer.Client())
	loop := NewLoop(modelClient, registry, "gpt-4o-mini", 0.7, 10, nil)
	return NewHandler(loop, testConfig(), nil)
}

func TestChat_EndToEndSearchFlow(t *testing.T) {
	handler := newChatHandler(t)

	body := `{"messages":[{"role":"user","content":"climate change bills"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event stream, got %s", ct)
	}

	stream := w.Body.String()
	if !strings.Contains(stream, `"type":"tool_call"`) || !strings.Contains(stream, `"tool":"search_bills"`) {
		t.Errorf("expected search_bills tool call in stream: %q", stream)
	}
	if !strings.Contains(stream, `\"count\":1`) {
		t.Errorf("expected normalized count in tool result: %q", stream)
	}
	if !strings.Contains(stream, `https://www.govinfo.gov/app/details/BILLS-118hr10150ih`) {
		t.Errorf("expected bill detail URL in tool result: %q", stream)
	}
	if !strings.Contains(stream, "I found 1 bill.") {
		t.Errorf("expected final answer text in stream: %q", stream)
	}
	if !strings.HasSuffix(stream, "data: [DONE]\n\n") {
		t.Errorf("expected [DONE] terminator: %q", stream)
	}
}

func TestChat_MalformedJSONRejected(t *testing.T) {
	handler := newChatHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages": [`))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.Error, "Invalid JSON") {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestChat_EmptyMessagesRejected(t *testing.T) {
	handler := newChatHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChat_InvalidRoleRejected(t *testing.T) {
	handler := newChatHandler(t)

	body := `{"messages":[{"role":"wizard","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Chat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSuggestions(t *testing.T) {
	handler := newChatHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?count=5", nil)
	w := httptest.NewRecorder()
	handler.Suggestions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Suggestions) != 5 {
		t.Errorf("expected 5 suggestions, got %d", len(resp.Suggestions))
	}
	seen := map[string]bool{}
	for _, s := range resp.Suggestions {
		if seen[s] {
			t.Errorf("duplicate suggestion %q", s)
		}
		seen[s] = true
	}
}

func TestRandomSuggestions_BadCountDefaultsToThree(t *testing.T) {
	for _, n := range []int{0, -1, 1000} {
		if got := RandomSuggestions(n); len(got) != 3 {
			t.Errorf("RandomSuggestions(%d): expected 3, got %d", n, len(got))
		}
	}
}
