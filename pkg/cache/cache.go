// Package cache stores solved schedules and rendered artifacts so repeated
// runs on the same graph skip the search.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP service
//   - [MemoryCache]: process-local, for tests and single-instance servers
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// Keys are built by a [Keyer] from a content hash of the task graph and the
// options that influence the result. Two runs that could produce different
// schedules never share a key. A [ScopedKeyer] adds a prefix for
// namespacing.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any connections held by the cache.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// SolveKey identifies a search result for a graph under opts.
	SolveKey(graphHash string, opts SolveKeyOpts) string

	// ArtifactKey identifies a rendered output of a solve result.
	ArtifactKey(solveHash string, opts ArtifactKeyOpts) string
}

// SolveKeyOpts are the search options that change a solve result.
type SolveKeyOpts struct {
	Processors int    `json:"processors"`
	Algorithm  string `json:"algorithm"`
	NodeBudget int    `json:"node_budget,omitempty"`
}

// ArtifactKeyOpts are the rendering options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// Default TTLs.
const (
	// SolveTTL is how long a solve result is kept. Results for a given
	// graph and options never change, so this only bounds disk usage.
	SolveTTL = 30 * 24 * time.Hour

	// ArtifactTTL is how long rendered artifacts are kept.
	ArtifactTTL = 7 * 24 * time.Hour
)

// DefaultKeyer builds keys of the form "solve:<sha256>" and
// "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SolveKey implements [Keyer].
func (DefaultKeyer) SolveKey(graphHash string, opts SolveKeyOpts) string {
	return hashKey("solve", graphHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(solveHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", solveHash, opts)
}
