package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig selects how the GCS client authenticates.
type GCSConfig struct {
	// EmulatorHost points the client at a local fake-gcs-server; no credentials are used.
	EmulatorHost string
	// CredentialsFile is a service account key file. Empty means application default credentials.
	CredentialsFile string
}

// GCSStore is a Store backed by Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a storage client for cfg.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) NewReader(ctx context.Context, addr Address) (io.ReadCloser, int64, error) {
	r, err := s.client.Bucket(addr.Bucket).Object(addr.Key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open GCS reader for %s: %w", addr, err)
	}
	return r, r.Attrs.Size, nil
}

func (s *GCSStore) NewWriter(ctx context.Context, addr Address) io.WriteCloser {
	return s.client.Bucket(addr.Bucket).Object(addr.Key).NewWriter(ctx)
}

func (s *GCSStore) Delete(ctx context.Context, addr Address) error {
	err := s.client.Bucket(addr.Bucket).Object(addr.Key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	if err != nil {
		return fmt.Errorf("failed to delete GCS object %s: %w", addr, err)
	}
	return nil
}

func (s *GCSStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		out = append(out, ObjectInfo{
			Address:     Address{Bucket: attrs.Bucket, Key: attrs.Name},
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Updated:     attrs.Updated,
		})
	}
	return out, nil
}
