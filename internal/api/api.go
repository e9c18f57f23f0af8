// Package api exposes the augmentation pipeline over HTTP. It is a thin
// layer over pipeline.Runner: requests carry a network plus options, and
// responses carry the augmented segment table. Saved results are served
// from the configured store when one is present.
package api

import (
	"encoding/json"

	"github.com/kmallard/riverseq/pkg/pipeline"
	"github.com/kmallard/riverseq/pkg/vaa"
)

// AugmentRequest is the body of POST /v1/augment.
type AugmentRequest struct {
	// Segments is the input network, in the same JSON form the network
	// codec reads ({"id": ..., "downstream": ..., ...} objects). Kept raw
	// here so absent-vs-zero weight semantics survive decoding.
	Segments json.RawMessage `json:"segments"`

	// Options configures the pipeline run. Zero values select defaults.
	Options pipeline.Options `json:"options"`

	// Save, when set, persists the result under this name. Requires a
	// configured store.
	Save string `json:"save,omitempty"`
}

// AugmentResponse is the body of a successful augment call.
type AugmentResponse struct {
	NetworkHash string          `json:"network_hash"`
	Rows        []vaa.Augmented `json:"rows"`

	// UndefinedPathLength lists segment ids whose distance to an outlet is
	// undefined. Omitted when every segment resolved.
	UndefinedPathLength []int64 `json:"undefined_path_length,omitempty"`

	// PartitionCached reports whether the basin partition came from cache.
	PartitionCached bool `json:"partition_cached"`
}

// ErrorResponse is the body of any failed call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
