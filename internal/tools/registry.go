// Package tools declares the operations the model may call, with schema
// validation at the dispatch boundary.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kaptinlin/jsonschema"

	"github.com/civicworks/billchat/internal/types"
)

// Handler executes one tool call with already-validated raw arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is one callable operation exposed to the model.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage

	compiled *jsonschema.Schema
	handler  Handler
}

// Registry holds the tool set bound into each model invocation.
type Registry struct {
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register compiles the tool's parameter schema and adds it to the set.
func (r *Registry) Register(name, description string, schema json.RawMessage, handler Handler) error {
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(schema)
	if err != nil {
		return fmt.Errorf("compile schema for tool %s: %w", name, err)
	}
	r.tools[name] = &Tool{
		Name:        name,
		Description: description,
		Schema:      schema,
		compiled:    compiled,
		handler:     handler,
	}
	return nil
}

// Definitions returns the tool set in the provider wire format, in stable order.
func (r *Registry) Definitions() []types.ToolDefinition {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]types.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, types.ToolDefinition{
			Type: "function",
			Function: types.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema,
			},
		})
	}
	return defs
}

// Dispatch validates arguments against the tool's schema and executes it.
// Unknown tools and invalid arguments return errors; the caller decides how
// to feed those back to the model.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	result := t.compiled.ValidateJSON(args)
	if !result.IsValid() {
		return nil, fmt.Errorf("invalid arguments for %s: %v", name, result.Errors)
	}

	slog.Debug("executing tool", "tool", name, "args", string(args))
	return t.handler(ctx, args)
}
