// Package serialization provides the .lle container for saving and loading
// trained models.
//
// An .lle file is a zip archive with these members:
//
//	metadata.json       {"version": "1.1", "format": "lle", "checksum": ...}
//	graph.json          [{"type": "dense", "config": {...}}, ...]
//	weights.bin         every parameter as little-endian float32, concatenated
//	weights_index.json  [{"shape": [...], "offset": 0, "size": 48, ...}, ...]
//	config.json         optional training configuration
//
// The graph lists one record per layer in model order. The weights blob and
// its index follow Model.Parameters order; offsets and sizes are in bytes.
// Each index entry also records the parameter name and identifier so that
// a reloaded model keeps the identities its optimizer state was keyed by.
//
// Loading rebuilds each layer through an nn.Registry and then checks that
// the rebuilt parameters match the index one-for-one before any weights are
// assigned.
//
// Example usage:
//
//	// Save a model
//	if err := serialization.Save("model.lle", model, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load a model
//	model, meta, err := serialization.Load("model.lle")
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
