// Package cache implements the optional plan fingerprint cache: finished
// plans keyed by a normalized request fingerprint. Disabled by default so
// every run re-queries retrieval and generation, matching the pipeline's
// no-caching contract unless explicitly opted in.
package cache

import "time"

// Cache stores assembled plan text by fingerprint key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key namespaces a request fingerprint. The version segment guards against
// stale entries after a cache format change.
func Key(fingerprint string) string {
	return "plan:v1:" + fingerprint
}
