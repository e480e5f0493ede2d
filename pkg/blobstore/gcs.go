package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps blobs as objects in a single bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore prefers explicit credentials JSON and falls back to application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON, prefix string) (*GCSStore, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not accessible: %w", bucket, err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *GCSStore) objectKey(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "..") || strings.HasPrefix(ref, "/") {
		return "", ErrInvalidPath
	}
	if s.prefix == "" {
		return ref, nil
	}
	return s.prefix + "/" + ref, nil
}

func (s *GCSStore) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	ref := SafeName(name)
	key, err := s.objectKey(ref)
	if err != nil {
		return "", err
	}

	wc := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", key, err)
	}
	return ref, nil
}

func (s *GCSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	key, err := s.objectKey(ref)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	key, err := s.objectKey(ref)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
