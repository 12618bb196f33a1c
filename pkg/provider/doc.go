/*
Package provider contains the factory and registry that turn a
ProviderConfig into concrete service adapters.

The registry maps (provider, service) pairs to constructors; provider
families register themselves when a facade is built, and Register is
the extension point for future providers. The factory constructs one
adapter per service, caches it for the life of the facade, and owns
teardown. Configuration resolution applies environment fallbacks with
the precedence explicit config > environment > defaults.
*/
package provider
