package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/google/go-cmp/cmp"
	"github.com/sbinet/npyio/npz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequenceDataset(t *testing.T, n int) *Dataset {
	t.Helper()
	rows := make([][]float32, n)
	targets := make([]float32, n)
	for i := range rows {
		rows[i] = []float32{float32(i), float32(-i)}
		targets[i] = float32(i)
	}
	ds, err := FromRows(rows, targets)
	require.NoError(t, err)
	return ds
}

func batchSizes(l *Loader) []int {
	var sizes []int
	for b := range l.Batches() {
		sizes = append(sizes, b.Inputs.Dim(0))
	}
	return sizes
}

func TestLoader_BatchSizes(t *testing.T) {
	ds := sequenceDataset(t, 10)

	keep, err := NewLoader(ds, LoaderConfig{BatchSize: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3, 1}, batchSizes(keep))
	assert.Equal(t, 4, keep.Len())

	drop, err := NewLoader(ds, LoaderConfig{BatchSize: 3, DropLast: true})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3}, batchSizes(drop))
	assert.Equal(t, 3, drop.Len())
}

func TestLoader_StacksExamples(t *testing.T) {
	ds := sequenceDataset(t, 4)
	l, err := NewLoader(ds, LoaderConfig{BatchSize: 2})
	require.NoError(t, err)

	var batches []Batch
	for b := range l.Batches() {
		batches = append(batches, b)
	}
	require.Len(t, batches, 2)
	assert.Equal(t, tensor.Shape{2, 2}, batches[0].Inputs.Shape())
	assert.Equal(t, tensor.Shape{2, 1}, batches[0].Targets.Shape())
	assert.Equal(t, []float32{2, -2, 3, -3}, batches[1].Inputs.Data())
	assert.Equal(t, []float32{2, 3}, batches[1].Targets.Data())
}

func TestLoader_ShuffleIsPermutation(t *testing.T) {
	ds := sequenceDataset(t, 20)
	l, err := NewLoader(ds, LoaderConfig{BatchSize: 7, Shuffle: true, Seed: 3})
	require.NoError(t, err)

	seen := make(map[float32]int)
	for b := range l.Batches() {
		for _, v := range b.Targets.Data() {
			seen[v]++
		}
	}
	require.Len(t, seen, 20)
	for v, n := range seen {
		assert.Equal(t, 1, n, "target %v", v)
	}
}

func TestLoader_Errors(t *testing.T) {
	ds := sequenceDataset(t, 3)
	_, err := NewLoader(ds, LoaderConfig{})
	assert.Error(t, err)

	bad := &Dataset{Inputs: ds.Inputs, Targets: ds.Targets[:2]}
	_, err = NewLoader(bad, LoaderConfig{BatchSize: 1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	ragged := &Dataset{
		Inputs:  []*tensor.Tensor{tensor.Zeros(2), tensor.Zeros(3)},
		Targets: []*tensor.Tensor{tensor.Zeros(1), tensor.Zeros(1)},
	}
	_, err = NewLoader(ragged, LoaderConfig{BatchSize: 1})
	assert.True(t, tensor.IsShapeError(err))
}

func TestDataset_Split(t *testing.T) {
	ds := sequenceDataset(t, 10)
	train, val := ds.Split(0.8)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, val.Len())
	assert.Equal(t, float32(8), val.Targets[0].Item())
}

func TestReadCSV(t *testing.T) {
	in := "x1,x2,y\n1,2,0\n3, 4,1\nbad,row,2\n\n5,6,1\n"
	ds, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	var got [][]float32
	for _, x := range ds.Inputs {
		got = append(got, x.Data())
	}
	if diff := cmp.Diff([][]float32{{1, 2}, {3, 4}, {5, 6}}, got); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, tensor.Shape{1}, ds.Targets[1].Shape())
	assert.Equal(t, float32(1), ds.Targets[2].Item())

	_, err = ReadCSV(strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestReadJSON(t *testing.T) {
	ds, err := ReadJSON(strings.NewReader(`[[[0.5, 1], 1], [[2, 3], [0, 1]]]`))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []float32{0.5, 1}, ds.Inputs[0].Data())
	assert.Equal(t, float32(1), ds.Targets[0].Item())
	assert.Equal(t, []float32{0, 1}, ds.Targets[1].Data())

	_, err = ReadJSON(strings.NewReader(`{"x": 1}`))
	assert.Error(t, err)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[[1, 2], 0]]`), 0o600))

	ds, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadNPZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.npz")
	w, err := npz.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Write("x.npy", []float64{0.25, 0.5, 0.75}))
	require.NoError(t, w.Write("y.npy", []uint8{0, 1, 1}))
	require.NoError(t, w.Close())

	ds, err := LoadNPZ(path)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, tensor.Shape{1}, ds.Inputs[0].Shape())
	assert.Equal(t, float32(0.75), ds.Inputs[2].Item())
	assert.Equal(t, float32(1), ds.Targets[1].Item())

	_, err = LoadNPZArrays(path, "x.npy", "x")
	require.NoError(t, err)
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "train.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("1,2,3\n"), 0o600))

	ds, err := Load(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = Load(filepath.Join(dir, "train.parquet"))
	assert.ErrorContains(t, err, "unsupported dataset format")
}
