// Package store persists augmented network tables under a user-chosen name,
// so expensive runs over large networks can be saved once and re-fetched by
// the CLI or API later. The only backend is MongoDB; deployments that don't
// configure one simply run without persistence.
package store

import (
	"context"
	"time"

	"github.com/kmallard/riverseq/pkg/vaa"
)

// Record is one saved augmentation run.
type Record struct {
	// Name is the user-chosen identifier. Saving under an existing name
	// replaces the previous record.
	Name string `bson:"name" json:"name"`

	// NetworkHash is the content hash of the input network, letting callers
	// detect whether a saved table still matches their current network.
	NetworkHash string `bson:"network_hash" json:"network_hash"`

	// CreatedAt is when the record was saved.
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// Rows is the augmented segment table.
	Rows []vaa.Augmented `bson:"rows" json:"rows"`
}

// Store saves and retrieves augmentation records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record, replacing any existing record with the same name.
	Save(ctx context.Context, rec Record) error

	// Load retrieves a record by name. A missing name yields a
	// NETWORK_NOT_FOUND error.
	Load(ctx context.Context, name string) (Record, error)

	// List returns the names of all saved records in ascending order.
	List(ctx context.Context) ([]string, error)

	// Delete removes a record. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
