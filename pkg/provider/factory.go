package provider

import (
	"fmt"
	"io"
	"sync"

	"github.com/lcplatform/platform/pkg/cache"
	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/log"
	"github.com/lcplatform/platform/pkg/metrics"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

// Factory constructs and caches one adapter per service for a single
// facade. It is the only place provider-specific types are permitted.
type Factory struct {
	cfg  *types.ProviderConfig
	reg  *Registry
	deps Deps

	mu        sync.Mutex
	instances map[ServiceID]interface{}
	failures  map[ServiceID]error
	collector *metrics.Collector
}

// NewFactory resolves the configuration and prepares shared adapter
// dependencies (retry policy, data-plane cache, logger).
func NewFactory(cfg types.ProviderConfig, reg *Registry) (*Factory, error) {
	resolved, err := ResolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	f := &Factory{
		cfg:       resolved,
		reg:       reg,
		instances: make(map[ServiceID]interface{}),
		failures:  make(map[ServiceID]error),
	}
	f.deps = Deps{
		Config: resolved,
		Retry:  retry.FromOptions(resolved.Options.Retry),
		Cache:  cache.New(resolved.Options.Cache.Capacity, resolved.Options.Cache.DefaultTTL),
		Logger: log.WithComponent("provider." + string(resolved.Provider)),
	}
	f.collector = metrics.NewCollector(f.deps.Cache)
	f.collector.Start()
	return f, nil
}

// Config returns the resolved provider configuration
func (f *Factory) Config() *types.ProviderConfig {
	return f.cfg
}

// Deps returns the shared adapter dependencies. Callers hold
// non-owning handles; the factory retains ownership.
func (f *Factory) Deps() Deps {
	return f.deps
}

// For returns the adapter for a service, constructing it on first use
// and reusing it afterwards. Construction failures are wrapped as
// service-unavailable with the cause preserved and stick: later calls
// for the same service return the same error without reconstructing.
func (f *Factory) For(id ServiceID) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if inst, ok := f.instances[id]; ok {
		return inst, nil
	}
	if err, ok := f.failures[id]; ok {
		return nil, err
	}

	ctor, ok := f.reg.lookup(f.cfg.Provider, id)
	if !ok {
		if !knownService(id) {
			return nil, errdefs.NewValidation("unknown service %q", id)
		}
		return nil, errdefs.NewUnavailable("service %s is not implemented by provider %s", id, f.cfg.Provider).
			WithContext(errdefs.CtxService, string(id))
	}

	inst, err := ctor(f.deps)
	if err != nil {
		metrics.AdapterConstructionFailures.WithLabelValues(string(f.cfg.Provider), string(id)).Inc()
		wrapped := errdefs.NewUnavailable("constructing %s adapter for provider %s", id, f.cfg.Provider).
			WithCause(err).
			WithContext(errdefs.CtxService, string(id))
		f.failures[id] = wrapped
		return nil, wrapped
	}
	f.instances[id] = inst
	metrics.AdapterConstructions.WithLabelValues(string(f.cfg.Provider), string(id)).Inc()
	metrics.AdaptersActive.WithLabelValues(string(f.cfg.Provider)).Set(float64(len(f.instances)))
	f.deps.Logger.Debug().Str("service", string(id)).Msg("adapter constructed")
	return inst, nil
}

// Close tears down every constructed adapter. The facade owns the
// factory; destruction is top-down and idempotent.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.collector.Stop()

	var firstErr error
	for id, inst := range f.instances {
		if closer, ok := inst.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("closing %s adapter: %w", id, err)
			}
		}
		delete(f.instances, id)
	}
	metrics.AdaptersActive.WithLabelValues(string(f.cfg.Provider)).Set(0)
	return firstErr
}

func knownService(id ServiceID) bool {
	for _, s := range ControlServices() {
		if s == id {
			return true
		}
	}
	for _, c := range DataClients() {
		if c == id {
			return true
		}
	}
	return false
}
