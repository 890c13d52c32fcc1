package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore is backed by Google Cloud Storage. A container maps to a bucket.
type GCSStore struct {
	cl        *storage.Client
	projectID string
	timeout   time.Duration
}

func NewGCSStore(ctx context.Context, projectID string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{cl: client, projectID: projectID, timeout: 50 * time.Second}, nil
}

func (s *GCSStore) Close() error {
	return s.cl.Close()
}

func (s *GCSStore) EnsureContainer(ctx context.Context, name string) (Container, EnsureStatus, error) {
	bucket := s.cl.Bucket(name)

	err := bucket.Create(ctx, s.projectID, &storage.BucketAttrs{
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
	})
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusConflict {
			return s.bucket(name), Existing, nil
		}
		return nil, Existing, fmt.Errorf("create bucket %s: %w", name, err)
	}

	if err := makeBucketPublic(ctx, bucket); err != nil {
		return nil, Created, fmt.Errorf("make bucket %s public: %w", name, err)
	}

	return s.bucket(name), Created, nil
}

func (s *GCSStore) Container(ctx context.Context, name string) (Container, error) {
	if _, err := s.cl.Bucket(name).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return nil, fmt.Errorf("get bucket %s: %w", name, err)
	}
	return s.bucket(name), nil
}

func (s *GCSStore) bucket(name string) *gcsBucket {
	return &gcsBucket{handle: s.cl.Bucket(name), name: name, timeout: s.timeout}
}

// Grant allUsers the objectViewer role so uploaded objects are publicly readable.
func makeBucketPublic(ctx context.Context, bucket *storage.BucketHandle) error {
	policy, err := bucket.IAM().Policy(ctx)
	if err != nil {
		return err
	}

	policy.Add("allUsers", "roles/storage.objectViewer")

	return bucket.IAM().SetPolicy(ctx, policy)
}

type gcsBucket struct {
	handle  *storage.BucketHandle
	name    string
	timeout time.Duration
}

func (b *gcsBucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.handle.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("object attrs %s: %w", key, err)
	}
	return true, nil
}

func (b *gcsBucket) Delete(ctx context.Context, key string) error {
	if err := b.handle.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (b *gcsBucket) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	wc := b.handle.Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, url.PathEscape(key)), nil
}
