// Package cache provides the two-tier caching layer that fronts speech
// synthesis: an in-memory LRU tier backed by a persistent disk tier with a
// JSON index, TTL expiry, and tag-based bulk invalidation.
package cache
