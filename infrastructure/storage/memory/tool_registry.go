// Package memory provides in-memory storage implementations.
package memory

import (
	"sort"
	"sync"

	"github.com/felixgeelhaar/gridbalancer/domain/tool"
)

// ToolRegistry is an in-memory implementation of tool.Registry. Aliases
// resolve to the canonical name.
type ToolRegistry struct {
	tools   map[string]tool.Tool
	aliases map[string]string
	mu      sync.RWMutex
}

// NewToolRegistry creates a new in-memory tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:   make(map[string]tool.Tool),
		aliases: make(map[string]string),
	}
}

// Register adds a tool and its aliases to the registry. Nothing is
// registered when any name collides.
func (r *ToolRegistry) Register(t tool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{t.Name()}, t.Aliases()...)
	for _, name := range names {
		if _, exists := r.aliases[name]; exists {
			return tool.ErrToolExists
		}
	}

	r.tools[t.Name()] = t
	for _, name := range names {
		r.aliases[name] = t.Name()
	}
	return nil
}

// Get retrieves a tool by name or alias.
func (r *ToolRegistry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical, ok := r.aliases[name]
	if !ok {
		return nil, false
	}
	t, ok := r.tools[canonical]
	return t, ok
}

// Resolve maps a name or alias to the canonical tool name.
func (r *ToolRegistry) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical, ok := r.aliases[name]
	return canonical, ok
}

// List returns all registered tools ordered by name.
func (r *ToolRegistry) List() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]tool.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// Names returns all canonical tool names, sorted.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a name or alias is registered.
func (r *ToolRegistry) Has(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// Unregister removes a tool and its aliases.
func (r *ToolRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical, ok := r.aliases[name]
	if !ok {
		return tool.ErrToolNotFound
	}

	for alias, target := range r.aliases {
		if target == canonical {
			delete(r.aliases, alias)
		}
	}
	delete(r.tools, canonical)
	return nil
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

var _ tool.Registry = (*ToolRegistry)(nil)
