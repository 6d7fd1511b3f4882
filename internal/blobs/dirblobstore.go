package blobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"
)

// ErrHashMismatch reports downloaded content whose SHA-256 differs from the
// requested hash.
var ErrHashMismatch = errors.New("blob content does not match its hash")

// DirBlobstore keeps blobs as files named by hash in a local directory.
type DirBlobstore struct {
	Dir string
}

var _ Blobstore = (*DirBlobstore)(nil)

// Upload implements Blobstore.
func (d *DirBlobstore) Upload(ctx context.Context, sourcePath string, info BlobInfo) error {
	log := klog.FromContext(ctx)

	if err := validHash(info.Hash); err != nil {
		return err
	}
	dest := filepath.Join(d.Dir, info.Hash)
	if _, err := os.Stat(dest); err == nil {
		log.Info("blob already exists", "path", dest)
		return nil
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("creating blob directory %q: %w", d.Dir, err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	startedAt := time.Now()
	n, err := writeToFile(ctx, src, dest, info)
	if err != nil {
		return fmt.Errorf("storing blob: %w", err)
	}
	log.Info("stored blob", "source", sourcePath, "destination", dest, "bytes", n, "duration", time.Since(startedAt))
	return nil
}

// Download implements BlobReader.
func (d *DirBlobstore) Download(ctx context.Context, info BlobInfo, destPath string) error {
	if err := validHash(info.Hash); err != nil {
		return err
	}
	src, err := os.Open(filepath.Join(d.Dir, info.Hash))
	if err != nil {
		return fmt.Errorf("opening blob: %w", err)
	}
	defer func() { _ = src.Close() }()

	if _, err := writeToFile(ctx, src, destPath, info); err != nil {
		return fmt.Errorf("copying blob: %w", err)
	}
	return nil
}

// writeToFile copies src to destinationPath through a temporary file in
// the same directory, verifying the content against info.Hash before the
// file is renamed into place.
func writeToFile(ctx context.Context, src io.Reader, destinationPath string, info BlobInfo) (int64, error) {
	log := klog.FromContext(ctx)

	dir := filepath.Dir(destinationPath)
	tempFile, err := os.CreateTemp(dir, "download")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	shouldDeleteTempFile := true
	defer func() {
		if shouldDeleteTempFile {
			if err := os.Remove(tempFile.Name()); err != nil {
				log.Error(err, "removing temp file", "path", tempFile.Name())
			}
		}
	}()

	shouldCloseTempFile := true
	defer func() {
		if shouldCloseTempFile {
			if err := tempFile.Close(); err != nil {
				log.Error(err, "closing temp file", "path", tempFile.Name())
			}
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tempFile, h), src)
	if err != nil {
		return n, fmt.Errorf("copying from source: %w", err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != info.Hash {
		return n, fmt.Errorf("%w: got %s, want %s", ErrHashMismatch, got, info.Hash)
	}

	if err := tempFile.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	shouldCloseTempFile = false

	if err := os.Rename(tempFile.Name(), destinationPath); err != nil {
		return n, fmt.Errorf("renaming temp file: %w", err)
	}
	shouldDeleteTempFile = false

	return n, nil
}
