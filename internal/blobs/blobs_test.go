package blobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestDirBlobstore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	work := t.TempDir()
	store := &DirBlobstore{Dir: filepath.Join(t.TempDir(), "blobs")}

	src := writeFile(t, work, "model.lle", "weights")
	info, err := HashFile(src)
	require.NoError(t, err)
	require.Len(t, info.Hash, 64)

	require.NoError(t, store.Upload(ctx, src, info))
	require.NoError(t, store.Upload(ctx, src, info), "second upload is a no-op")

	dest := filepath.Join(work, "pulled.lle")
	require.NoError(t, store.Download(ctx, info, dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(got))
}

func TestDirBlobstore_Errors(t *testing.T) {
	ctx := context.Background()
	work := t.TempDir()
	store := &DirBlobstore{Dir: t.TempDir()}

	missing := BlobInfo{Hash: strings.Repeat("ab", 32)}
	err := store.Download(ctx, missing, filepath.Join(work, "out"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)

	src := writeFile(t, work, "model.lle", "weights")
	err = store.Upload(ctx, src, missing)
	assert.ErrorIs(t, err, ErrHashMismatch)
	_, statErr := os.Stat(filepath.Join(store.Dir, missing.Hash))
	assert.True(t, os.IsNotExist(statErr), "mismatched upload must not be stored")

	entries, err := os.ReadDir(store.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file left behind")

	err = store.Upload(ctx, src, BlobInfo{Hash: "../escape"})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open("gs://models/")
	require.NoError(t, err)
	assert.Equal(t, &GCSBlobstore{Bucket: "models"}, s)

	s, err = Open("file:///var/lib/lle")
	require.NoError(t, err)
	assert.Equal(t, &DirBlobstore{Dir: "/var/lib/lle"}, s)

	_, err = Open("gs://")
	assert.Error(t, err)
	_, err = Open("")
	assert.Error(t, err)
}
