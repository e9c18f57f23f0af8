// Package cache provides the optional partition cache: a byte-oriented
// key/value store consulted before the partition stage recomputes basin
// membership for a large network. Backends exist for local files, Redis,
// and a no-op null cache. The cache is purely a performance convenience -
// a miss, a corrupt entry, or a backend failure all degrade to
// recomputation, never to pipeline failure.
package cache

import (
	"context"
	"time"
)

// TTLPartition is how long cached partition snapshots stay valid. Partition
// keys are derived from the network content hash, so stale entries are
// unreachable rather than wrong; the TTL just bounds disk/keyspace growth.
const TTLPartition = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with TTL support.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was found; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// PartitionKey generates the key for a partition snapshot from the
	// network content hash. Everything that influences basin membership
	// (ids, downstream references, names, weights) is part of the hashed
	// content, so two networks share a key only when the snapshot applies
	// to both.
	PartitionKey(networkHash string) string
}

// DefaultKeyer is the standard key scheme: "<stage>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// PartitionKey generates a key for a partition snapshot.
func (k *DefaultKeyer) PartitionKey(networkHash string) string {
	return hashKey("partition", networkHash)
}
