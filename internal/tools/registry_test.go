package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	err := r.Register("search_bills", "Search bills.", searchBillsSchema,
		func(_ context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Query string `json:"query"`
			}
			json.Unmarshal(args, &params)
			return map[string]any{"count": 1, "query": params.Query}, nil
		})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return r
}

func TestRegistry_DispatchValidArgs(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Dispatch(context.Background(), "search_bills",
		json.RawMessage(`{"query":"climate change"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := result.(map[string]any)
	if m["query"] != "climate change" {
		t.Errorf("unexpected result %+v", m)
	}
}

func TestRegistry_DispatchRejectsMissingRequired(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Dispatch(context.Background(), "search_bills", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected validation error for missing query")
	}
	if !strings.Contains(err.Error(), "invalid arguments") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRegistry_DispatchRejectsWrongType(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Dispatch(context.Background(), "search_bills",
		json.RawMessage(`{"query":"ok","pageSize":"ten"}`))
	if err == nil {
		t.Fatal("expected validation error for non-integer pageSize")
	}
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Dispatch(context.Background(), "delete_bills", json.RawMessage(`{}`))
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Fatalf("expected unknown tool error, got %v", err)
	}
}

func TestRegistry_DefinitionsStableOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(name, "d", emptySchema, nil); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	defs := r.Definitions()
	got := make([]string, len(defs))
	for i, d := range defs {
		got[i] = d.Function.Name
		if d.Type != "function" {
			t.Errorf("expected type function, got %s", d.Type)
		}
	}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestRegistry_EmptyArgsDefaultToObject(t *testing.T) {
	r := NewRegistry()
	err := r.Register("list_collections", "List collections.", emptySchema,
		func(_ context.Context, _ json.RawMessage) (any, error) {
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := r.Dispatch(context.Background(), "list_collections", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("unexpected result %v", result)
	}
}
