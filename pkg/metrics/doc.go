/*
Package metrics provides Prometheus metrics collection and health
reporting for the platform library.

All metrics are registered against the default Prometheus registry at
package init and are safe for concurrent updates from any package.
Metric categories:

Adapter metrics:
  - platform_adapter_constructions_total{provider, service}: counter of
    adapters built by factories
  - platform_adapter_construction_failures_total{provider, service}:
    counter of constructions that returned an error
  - platform_adapters_active{provider}: gauge of live adapter instances

Operation metrics:
  - platform_operation_duration_seconds: histogram of provider
    operation durations, retries included
  - platform_retry_attempts_total: counter of attempts made under a
    retry policy
  - platform_retries_exhausted_total: counter of operations that failed
    after their last attempt

Cache metrics:
  - platform_cache_hits_total / platform_cache_misses_total: counters
    fed by the Collector from cache statistics
  - platform_cache_entries: gauge of resident cache entries

Validation metrics:
  - platform_validation_failures_total: counter of records rejected by
    schema validation

The Timer helper measures an operation and observes its duration into
a histogram:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.OperationDuration)

The Collector samples a cache on an interval and publishes its hit,
miss, and occupancy figures; factories run one per data-plane cache.

Health checking is a process-wide component registry. Components
register with RegisterComponent and flip state with UpdateComponent;
HealthHandler, ReadyHandler, and LivenessHandler expose the aggregate
over HTTP alongside the Prometheus Handler.
*/
package metrics
