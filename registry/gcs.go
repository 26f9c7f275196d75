package registry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSReader opens an object for reading.
type GCSReader func(ctx context.Context, bucket, object string) (io.ReadCloser, error)

// GCSSource reads the registry object from Google Cloud Storage.
type GCSSource struct {
	open   GCSReader
	bucket string
	object string
	client *storage.Client
}

// NewGCSSource builds a client from application default credentials. A
// non-empty project is billed for the reads (requester pays).
func NewGCSSource(ctx context.Context, bucket, object, project string) (*GCSSource, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	open := func(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
		b := client.Bucket(bucket)
		if project != "" {
			b = b.UserProject(project)
		}
		return b.Object(object).NewReader(ctx)
	}
	src := NewGCSSourceWithReader(open, bucket, object)
	src.client = client
	return src, nil
}

// NewGCSSourceWithReader uses open to read objects.
func NewGCSSourceWithReader(open GCSReader, bucket, object string) *GCSSource {
	return &GCSSource{open: open, bucket: bucket, object: object}
}

func (s *GCSSource) Location() string { return "gs://" + s.bucket + "/" + s.object }

func (s *GCSSource) Fetch(ctx context.Context) ([]byte, error) {
	r, err := s.open(ctx, s.bucket, s.object)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", s.Location(), ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", s.Location(), err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Close releases the client created by NewGCSSource.
func (s *GCSSource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
