// Package cache provides the bounded key/value cache shared by the search
// router and the context selector.
//
// An LRU evicts the least recently used entry when an insert would exceed
// its capacity, except that an expired entry is always evicted first.
// Expiry is lazy: Get treats an expired entry as absent but leaves it in
// place, so GetStale can still serve it when every provider is down.
//
// Keys are spread over independently locked shards. With one shard (the
// default) eviction order is exact global LRU; with more shards it is LRU
// within each shard and unrelated keys never contend.
package cache
