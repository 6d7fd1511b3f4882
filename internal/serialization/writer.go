package serialization

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/born-ml/lle/internal/nn"
)

// Save writes model to path as an .lle archive.
//
// The archive is first written to a temporary file in the same directory
// and then renamed over path, so readers never observe a partial file.
func Save(path string, model *nn.Model, opts *Options) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".lle-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	shouldDeleteTempFile := true
	defer func() {
		if shouldDeleteTempFile {
			_ = os.Remove(tempFile.Name())
		}
	}()

	if err := Write(tempFile, model, opts); err != nil {
		_ = tempFile.Close()
		return err
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempFile.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	shouldDeleteTempFile = false
	return nil
}

// Write encodes model as an .lle archive to w.
func Write(w io.Writer, model *nn.Model, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	graph, err := buildGraph(model)
	if err != nil {
		return err
	}
	weights, index := packWeights(model.Parameters())

	meta := Metadata{
		Version:    FormatVersion,
		Format:     FormatTag,
		Checksum:   ComputeChecksum(weights),
		CreatedAt:  time.Now().UTC(),
		Parameters: model.NumParams(),
		Checkpoint: opts.Checkpoint,
	}

	zw := zip.NewWriter(w)
	if err := writeJSON(zw, MemberMetadata, meta); err != nil {
		return err
	}
	if err := writeJSON(zw, MemberGraph, graph); err != nil {
		return err
	}
	if err := writeMember(zw, MemberWeights, weights); err != nil {
		return err
	}
	if err := writeJSON(zw, MemberIndex, index); err != nil {
		return err
	}
	if opts.Config != nil {
		if err := writeJSON(zw, MemberConfig, opts.Config); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// buildGraph records one {type, config} entry per layer.
func buildGraph(model *nn.Model) ([]GraphEntry, error) {
	layers := model.Layers()
	graph := make([]GraphEntry, len(layers))
	for i, l := range layers {
		cfg, err := json.Marshal(l.Config())
		if err != nil {
			return nil, fmt.Errorf("encoding config of layer %d (%s): %w", i, l.Type(), err)
		}
		graph[i] = GraphEntry{Type: l.Type(), Config: cfg}
	}
	return graph, nil
}

// packWeights concatenates every parameter as little-endian float32 and
// returns the blob with its index, both in parameter order.
func packWeights(params []*nn.Parameter) ([]byte, []IndexEntry) {
	total := 0
	for _, p := range params {
		total += p.Tensor().NumElements()
	}

	blob := make([]byte, total*bytesPerValue)
	index := make([]IndexEntry, len(params))
	var offset int64
	for i, p := range params {
		data := p.Tensor().Data()
		for j, v := range data {
			binary.LittleEndian.PutUint32(blob[offset+int64(j*bytesPerValue):], math.Float32bits(v))
		}
		size := int64(len(data) * bytesPerValue)
		index[i] = IndexEntry{
			Shape:  []int(p.Shape().Clone()),
			Offset: offset,
			Size:   size,
			Name:   p.Name(),
			ID:     p.ID(),
		}
		offset += size
	}
	return blob, index
}

func writeJSON(zw *zip.Writer, name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return writeMember(zw, name, buf.Bytes())
}

func writeMember(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
