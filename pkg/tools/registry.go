// Package tools provides the registry of pipeline stage tools exposed to the
// reasoning service. The stage set is fixed; the registry exists to describe
// the stages as callable actions, not to support arbitrary extensibility.
package tools

import (
	"errors"
	"fmt"
	"sync"
)

// Registry errors.
var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	// Silent overwrite would let stage identity drift, so collisions fail.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrUnknownTool is returned when a tool name is not in the registry.
	ErrUnknownTool = errors.New("unknown tool")
)

// Property describes a single parameter in a tool's input schema.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
}

// InputSchema describes the typed parameters a tool accepts, in the
// JSON-schema subset understood by the reasoning service.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition describes one callable pipeline stage. Immutable once
// registered.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Registry holds tool definitions. Registration order is preserved because it
// is surfaced to the reasoning service as the candidate action set.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]ToolDefinition
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]ToolDefinition),
	}
}

// Register adds a tool definition. Fails with ErrDuplicateTool on a name
// collision; the original registration remains retrievable.
func (r *Registry) Register(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}

	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// List returns all definitions in registration order.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.defs[name])
	}
	return result
}

// Describe returns the definition for name, or ErrUnknownTool.
func (r *Registry) Describe(name string) (ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.defs[name]
	if !exists {
		return ToolDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return def, nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
