package provider

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

// Registry maps (provider, service) pairs to adapter constructors.
// Providers register their families at facade construction; future
// providers use Register as the extension point.
type Registry struct {
	mu    sync.RWMutex
	ctors map[types.Provider]map[ServiceID]Constructor
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[types.Provider]map[ServiceID]Constructor)}
}

// Register adds a constructor for the pair. Registering an existing
// pair fails with a conflict unless override is set.
func (r *Registry) Register(p types.Provider, id ServiceID, ctor Constructor, override bool) error {
	if ctor == nil {
		return errdefs.NewValidation("nil constructor for %s/%s", p, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	services, ok := r.ctors[p]
	if !ok {
		services = make(map[ServiceID]Constructor)
		r.ctors[p] = services
	}
	if _, exists := services[id]; exists && !override {
		return errdefs.NewConflict("constructor already registered for %s/%s", p, id)
	}
	services[id] = ctor
	return nil
}

// MustRegister panics on registration failure. Used by the built-in
// provider families where a conflict is a programming mistake.
func (r *Registry) MustRegister(p types.Provider, id ServiceID, ctor Constructor) {
	if err := r.Register(p, id, ctor, false); err != nil {
		panic(err)
	}
}

// Providers returns the providers with at least one registered
// constructor, sorted for stable output.
func (r *Registry) Providers() []types.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := lo.Keys(r.ctors)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Supports reports whether the pair has a constructor
func (r *Registry) Supports(p types.Provider, id ServiceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[p][id]
	return ok
}

func (r *Registry) lookup(p types.Provider, id ServiceID) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[p][id]
	return ctor, ok
}
