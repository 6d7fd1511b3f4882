package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"k8s.io/klog/v2"
)

// GCSBlobstore keeps blobs in a Google Cloud Storage bucket, one object per
// hash.
type GCSBlobstore struct {
	Bucket string
}

var _ Blobstore = (*GCSBlobstore)(nil)

// Upload implements Blobstore.
func (j *GCSBlobstore) Upload(ctx context.Context, sourcePath string, info BlobInfo) error {
	log := klog.FromContext(ctx)

	if err := validHash(info.Hash); err != nil {
		return err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	objectKey := info.Hash
	gcsURL := "gs://" + j.Bucket + "/" + objectKey

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating GCS storage client: %w", err)
	}
	defer func() { _ = client.Close() }()

	obj := client.Bucket(j.Bucket).Object(objectKey)
	if _, err := obj.Attrs(ctx); err == nil {
		log.Info("object already exists in GCS", "url", gcsURL)
		return nil
	} else if !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("getting object attributes for %q: %w", gcsURL, err)
	}

	log.Info("uploading blob to GCS", "source", sourcePath, "destination", gcsURL)

	startedAt := time.Now()
	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/zip"
	n, err := io.Copy(w, src)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("uploading to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing GCS writer: %w", err)
	}

	log.Info("uploaded blob to GCS", "url", gcsURL, "bytes", n, "duration", time.Since(startedAt))
	return nil
}

// Download implements BlobReader.
func (j *GCSBlobstore) Download(ctx context.Context, info BlobInfo, destinationPath string) error {
	log := klog.FromContext(ctx)

	if err := validHash(info.Hash); err != nil {
		return err
	}

	objectKey := info.Hash
	gcsURL := "gs://" + j.Bucket + "/" + objectKey

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating GCS storage client: %w", err)
	}
	defer func() { _ = client.Close() }()

	log.Info("downloading blob from GCS", "source", gcsURL, "destination", destinationPath)

	startedAt := time.Now()
	r, err := client.Bucket(j.Bucket).Object(objectKey).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("object %q: %w", gcsURL, os.ErrNotExist)
		}
		return fmt.Errorf("opening object from GCS %q: %w", gcsURL, err)
	}
	defer func() { _ = r.Close() }()

	n, err := writeToFile(ctx, r, destinationPath, info)
	if err != nil {
		return fmt.Errorf("downloading from GCS: %w", err)
	}

	log.Info("downloaded blob from GCS", "source", gcsURL, "destination", destinationPath, "bytes", n, "duration", time.Since(startedAt))
	return nil
}
