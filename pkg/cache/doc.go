/*
Package cache provides the bounded LRU+TTL cache used by the
data-plane secrets and configuration clients.

Capacity is enforced by the underlying LRU; TTL is tracked per entry
with lazy purging on access. Error results are never cached; that
discipline belongs to the callers populating the cache.
*/
package cache
