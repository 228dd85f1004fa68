package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig configures a Cloud Storage blob store.
type GCSConfig struct {
	Bucket          string
	Prefix          string // Object name prefix, e.g. "uploads/"
	CredentialsFile string // Service account key; empty uses application default credentials
	Endpoint        string // Custom endpoint, e.g. a local emulator
}

// GCSStore keeps blobs as objects in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a Cloud Storage client and returns a store on cfg.Bucket.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSStore) objectName(ref string) string {
	return s.prefix + ref
}

// Put uploads data as a new object.
func (s *GCSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	ref := NewRef(name)
	obj := s.client.Bucket(s.bucket).Object(s.objectName(ref))

	// Fail instead of overwriting if the ref is somehow taken.
	writer := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = ContentType(name)

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", fmt.Errorf("writing object data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing object writer: %w", err)
	}

	return ref, nil
}

// Open returns a reader for the object behind ref.
func (s *GCSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}
	reader, err := s.client.Bucket(s.bucket).Object(s.objectName(ref)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	return reader, nil
}

// Delete removes the object behind ref.
func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	if err := ValidateRef(ref); err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(s.objectName(ref)).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Close closes the underlying storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
