package serialization

import (
	"encoding/json"
	"time"
)

// Format constants.
const (
	FormatTag     = "lle"
	FormatVersion = "1.1" // 1.1: weights checksum and parameter identifiers
	bytesPerValue = 4     // float32

	MemberMetadata = "metadata.json"
	MemberGraph    = "graph.json"
	MemberWeights  = "weights.bin"
	MemberIndex    = "weights_index.json"
	MemberConfig   = "config.json"
)

// supportedVersions lists the format versions Load accepts.
var supportedVersions = map[string]bool{"1.0": true, "1.1": true}

// Metadata is the content of metadata.json.
type Metadata struct {
	Version    string          `json:"version"`              // Format version
	Format     string          `json:"format"`               // Always "lle"
	Checksum   string          `json:"checksum,omitempty"`   // Hex SHA-256 of weights.bin
	CreatedAt  time.Time       `json:"createdAt,omitzero"`   // When the file was written
	Parameters int             `json:"parameters,omitempty"` // Number of trainable scalars
	Checkpoint *CheckpointMeta `json:"checkpoint,omitempty"` // Set when written by a training checkpoint
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	Epoch     int     `json:"epoch"`     // Training epoch number (1-based)
	Loss      float32 `json:"loss"`      // Loss value the checkpoint was selected by
	Optimizer string  `json:"optimizer"` // Optimizer name ("sgd", "adam", etc.)
	LR        float32 `json:"lr"`        // Learning rate at the end of the epoch
}

// GraphEntry describes one layer in graph.json.
type GraphEntry struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}

// IndexEntry locates one parameter inside weights.bin.
type IndexEntry struct {
	Shape  []int  `json:"shape"`          // Parameter shape
	Offset int64  `json:"offset"`         // Byte offset into weights.bin
	Size   int64  `json:"size"`           // Byte size
	Name   string `json:"name,omitempty"` // Parameter name (e.g., "dense.weight")
	ID     string `json:"id,omitempty"`   // Stable parameter identifier
}

// Options controls optional parts of a saved file.
type Options struct {
	// Config, when non-nil, is marshaled into config.json.
	Config any

	// Checkpoint, when non-nil, is recorded in metadata.json.
	Checkpoint *CheckpointMeta
}
