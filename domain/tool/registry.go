package tool

// Registry defines the interface for tool registration and lookup.
// Implementations live in infrastructure.
type Registry interface {
	// Register adds a tool and its aliases to the registry.
	Register(tool Tool) error

	// Get retrieves a tool by name or alias.
	Get(name string) (Tool, bool)

	// Resolve maps a name or alias to the canonical tool name.
	Resolve(name string) (string, bool)

	// List returns all registered tools.
	List() []Tool

	// Names returns all canonical tool names, sorted.
	Names() []string
}
