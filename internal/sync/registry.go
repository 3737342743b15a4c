package sync

// Registry holds the adapter for every synchronizable entity type, keyed by
// wire name, with a stable registration order. Push processes adapters in
// that order so creates land before anything that might reference them.
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter. Registering the same entity type twice is a
// programming error and panics at startup.
func (r *Registry) Register(a Adapter) {
	name := a.EntityType()
	if _, exists := r.adapters[name]; exists {
		panic("sync: adapter already registered for " + name)
	}
	r.order = append(r.order, name)
	r.adapters[name] = a
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// All returns the adapters in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}
