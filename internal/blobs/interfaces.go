// Package blobs stores saved models by content hash, locally or in Google
// Cloud Storage, so trained .lle files can be pushed and pulled by hash.
package blobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/born-ml/lle/internal/serialization"
)

// BlobReader fetches blobs.
type BlobReader interface {
	// Download writes the blob to destPath. If no such object exists the
	// error satisfies errors.Is(err, os.ErrNotExist).
	Download(ctx context.Context, info BlobInfo, destPath string) error
}

// Blobstore fetches and stores blobs.
type Blobstore interface {
	BlobReader
	// Upload stores the file at sourcePath under info.Hash. Uploading a
	// hash that already exists does nothing.
	Upload(ctx context.Context, sourcePath string, info BlobInfo) error
}

// BlobInfo identifies a blob.
type BlobInfo struct {
	Hash string // Hex SHA-256 of the content
}

// HashFile returns the BlobInfo of the file at path.
func HashFile(path string) (BlobInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("opening %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	hash, err := serialization.ComputeChecksumReader(f)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("hashing %q: %w", path, err)
	}
	return BlobInfo{Hash: hash}, nil
}

// validHash reports whether hash looks like a hex SHA-256 digest, which
// keeps object keys and file names free of path separators.
func validHash(hash string) error {
	if len(hash) != sha256.Size*2 {
		return fmt.Errorf("invalid blob hash %q: want %d hex characters", hash, sha256.Size*2)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return fmt.Errorf("invalid blob hash %q: %w", hash, err)
	}
	return nil
}

// Open returns the Blobstore for a location: "gs://bucket" selects Google
// Cloud Storage, anything else (optionally "file://"-prefixed) a local
// directory.
func Open(location string) (Blobstore, error) {
	switch {
	case strings.HasPrefix(location, "gs://"):
		bucket := strings.TrimSuffix(strings.TrimPrefix(location, "gs://"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("blob location %q has no bucket", location)
		}
		return &GCSBlobstore{Bucket: bucket}, nil
	case location == "":
		return nil, fmt.Errorf("blob location is required")
	default:
		return &DirBlobstore{Dir: strings.TrimPrefix(location, "file://")}, nil
	}
}
