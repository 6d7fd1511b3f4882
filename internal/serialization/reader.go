package serialization

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/tensor"
)

// Load reads an .lle archive from path and rebuilds the model using the
// default layer registry.
func Load(path string) (*nn.Model, *Metadata, error) {
	return LoadWithRegistry(path, nn.DefaultRegistry())
}

// LoadWithRegistry reads an .lle archive from path and rebuilds the model
// using reg.
func LoadWithRegistry(path string, reg *nn.Registry) (*nn.Model, *Metadata, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat model: %w", err)
	}
	return Read(f, info.Size(), reg)
}

// Read decodes an .lle archive of the given size. A nil registry selects
// nn.DefaultRegistry.
//
// The returned model is in training mode.
func Read(r io.ReaderAt, size int64, reg *nn.Registry) (*nn.Model, *Metadata, error) {
	if reg == nil {
		reg = nn.DefaultRegistry()
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	var meta Metadata
	if err := readJSON(zr, MemberMetadata, &meta); err != nil {
		return nil, nil, err
	}
	if meta.Format != FormatTag {
		return nil, nil, fmt.Errorf("%w: format %q", ErrInvalidFormat, meta.Format)
	}
	if !supportedVersions[meta.Version] {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, meta.Version)
	}

	var graph []GraphEntry
	if err := readJSON(zr, MemberGraph, &graph); err != nil {
		return nil, nil, err
	}
	var index []IndexEntry
	if err := readJSON(zr, MemberIndex, &index); err != nil {
		return nil, nil, err
	}
	weights, err := readMember(zr, MemberWeights, weightsLimit(index))
	if err != nil {
		return nil, nil, err
	}

	if err := ValidateChecksum(ComputeChecksum(weights), meta.Checksum); err != nil {
		return nil, nil, err
	}
	if err := ValidateIndex(index, int64(len(weights))); err != nil {
		return nil, nil, err
	}

	layers := make([]nn.Layer, len(graph))
	for i, entry := range graph {
		l, err := reg.Build(entry.Type, entry.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers[i] = l
	}
	model := nn.NewModel(layers...)

	if err := restoreWeights(model.Parameters(), index, weights); err != nil {
		return nil, nil, err
	}
	return model, &meta, nil
}

// ReadConfig decodes the optional config.json member of the archive at
// path into dst. It reports false when the archive has no such member.
func ReadConfig(path string, dst any) (bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer zr.Close()

	if err := readJSON(&zr.Reader, MemberConfig, dst); err != nil {
		if errors.Is(err, ErrMissingMember) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// restoreWeights checks that params and index correspond one-for-one and
// then swaps each parameter's buffer for its stored values.
func restoreWeights(params []*nn.Parameter, index []IndexEntry, blob []byte) error {
	if len(params) != len(index) {
		return &WeightIndexMismatchError{
			Index:   -1,
			Details: fmt.Sprintf("model has %d parameters, index has %d entries", len(params), len(index)),
		}
	}

	for i, p := range params {
		e := index[i]
		shape := tensor.Shape(e.Shape)
		if shape.NumElements() != p.Tensor().NumElements() {
			return &WeightIndexMismatchError{
				Index:   i,
				Details: fmt.Sprintf("%s expects %d values (shape %v), index holds shape %v", p.Name(), p.Tensor().NumElements(), p.Shape(), shape),
			}
		}
		if e.Name != "" && e.Name != p.Name() {
			return &WeightIndexMismatchError{
				Index:   i,
				Details: fmt.Sprintf("index entry %q does not match parameter %q", e.Name, p.Name()),
			}
		}
	}

	for i, p := range params {
		e := index[i]
		data := make([]float32, e.Size/bytesPerValue)
		for j := range data {
			data[j] = math.Float32frombits(binary.LittleEndian.Uint32(blob[e.Offset+int64(j*bytesPerValue):]))
		}
		p.Restore(e.ID, tensor.New(data, e.Shape...))
	}
	return nil
}

func findMember(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingMember, name)
}

// readMember returns the content of a member. A non-negative limit rejects
// members larger than limit bytes.
func readMember(zr *zip.Reader, name string, limit int64) ([]byte, error) {
	f, err := findMember(zr, name)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, &ValidationError{
			Kind:    ErrInvalidFormat,
			Tensor:  name,
			Details: fmt.Sprintf("member is %d bytes, max %d", f.UncompressedSize64, limit),
		}
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func readJSON(zr *zip.Reader, name string, dst any) error {
	data, err := readMember(zr, name, MaxMemberSize)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}
