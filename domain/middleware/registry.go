package middleware

// Registry is an ordered list of middleware applied to every tool call.
type Registry struct {
	middlewares []Middleware
}

// NewRegistry creates an empty middleware registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Use appends middleware. Earlier middleware wrap later ones.
func (r *Registry) Use(m Middleware) *Registry {
	r.middlewares = append(r.middlewares, m)
	return r
}

// UseMany appends several middleware in order.
func (r *Registry) UseMany(ms ...Middleware) *Registry {
	r.middlewares = append(r.middlewares, ms...)
	return r
}

// Chain returns the composed middleware, or Noop when empty.
func (r *Registry) Chain() Middleware {
	if len(r.middlewares) == 0 {
		return Noop()
	}
	return Chain(r.middlewares...)
}

// Len returns the number of registered middleware.
func (r *Registry) Len() int {
	return len(r.middlewares)
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	clone.middlewares = append([]Middleware(nil), r.middlewares...)
	return clone
}
