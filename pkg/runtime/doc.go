// Package runtime is the data-plane facade. It groups typed accessors
// to the per-request clients (send, receive, publish, read secrets,
// validate tokens) and wraps the secrets and configuration clients
// with the shared LRU+TTL cache.
package runtime
