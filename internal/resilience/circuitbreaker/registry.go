package circuitbreaker

import "sync"

// Registry owns all named circuit breakers in a process.
//
// Breakers are created lazily on first lookup and live for the registry's
// lifetime; operation identity (the name), not call-site configuration,
// determines breaker lifetime. The registry is constructed once at process
// start and injected into the components that need it, which keeps tests
// isolated from each other.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty breaker registry.
func NewRegistry() *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
	}
}

// GetOrCreate returns the breaker registered under name, creating it with
// the given config on first use.
//
// The first caller for a name wins on configuration; later calls return the
// existing instance and their config argument is ignored. Concurrent
// first-time creation for the same name yields exactly one live breaker.
func (r *Registry) GetOrCreate(name string, config Config) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	cb := New(name, config)
	r.breakers[name] = cb
	return cb
}

// Get returns the breaker registered under name, or nil if none exists.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.breakers[name]
}

// States returns a snapshot of breaker states by name, for health reporting.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		states[name] = cb.State()
	}
	return states
}

// ResetAll forces every registered breaker back to the closed state.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cb := range r.breakers {
		cb.Reset()
	}
}
