// Package cache is the storage engine behind method-result caching.
//
// A caller asks a Backend for a key and, on a miss, computes the value and
// stores it with a TTL (see Remember). Four backends implement the contract:
//
//   - LocalBackend: concurrent map with per-entry TTL, lazy removal on read
//     and a background Sweeper. The default and the fallback.
//   - ExpiringBackend: ristretto-bounded cache with per-entry TTL.
//   - OriginBackend: bounded LRU with fixed access and write windows.
//   - RemoteBackend: redis-compatible store with native TTL and INCRBY.
//
// A Selector picks exactly one of them at startup. Store faults never reach
// callers; they degrade to a miss.
package cache
