// Package storage abstracts the blob store that holds answer image bytes.
// A Store hands out Containers; a Container holds blobs addressed by key
// and reports the public URL of what it stores.
package storage

import (
	"context"
	"errors"
)

// ErrContainerNotFound is returned by Store.Container when the named
// container has not been provisioned.
var ErrContainerNotFound = errors.New("storage: container not found")

// EnsureStatus reports what EnsureContainer had to do.
type EnsureStatus int

const (
	Created EnsureStatus = iota
	Existing
)

func (s EnsureStatus) String() string {
	if s == Created {
		return "created"
	}
	return "existing"
}

// Store is a blob service addressed by container name.
type Store interface {
	// EnsureContainer creates the container with public read access for
	// blobs, or returns the existing one. Already existing is not an error.
	EnsureContainer(ctx context.Context, name string) (Container, EnsureStatus, error)

	// Container resolves a container that is expected to exist.
	Container(ctx context.Context, name string) (Container, error)
}

// Container holds blobs by key.
type Container interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
	// Upload writes data under key, replacing nothing: callers delete an
	// existing blob first. Returns the blob's public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
