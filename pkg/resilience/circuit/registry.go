package circuit

import "sync"

// Registry holds one breaker per named operation, created lazily. It is the
// only breaker state shared across concurrent sessions, so all access is
// mutex-guarded. Construct one per process (or per test) and inject it.
type Registry struct {
	mu       sync.Mutex
	config   Config
	breakers map[string]*Breaker

	onStateChange func(StateChange)
}

// NewRegistry creates a registry whose breakers use the given config.
func NewRegistry(config Config) *Registry {
	return &Registry{
		config:   config,
		breakers: make(map[string]*Breaker),
	}
}

// OnStateChange installs an observer inherited by every breaker the registry
// creates. Must be called before Get.
func (r *Registry) OnStateChange(fn func(StateChange)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStateChange = fn
}

// Get returns the breaker for the named operation, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}

	b := New(name, r.config)
	if r.onStateChange != nil {
		b.onStateChange = r.onStateChange
	}
	r.breakers[name] = b
	return b
}

// Names returns the operation names with live breakers.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	return names
}

// ResetAll closes every breaker. Intended for tests and operator tooling.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	for _, b := range breakers {
		b.Reset()
	}
}
