package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

// MemoryStore keeps blobs in process. Used for local runs and tests; the
// server exposes its contents under <baseURL>/blobs/<container>/<key>.
type MemoryStore struct {
	mu         sync.RWMutex
	baseURL    string
	containers map[string]map[string]memoryBlob
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		containers: make(map[string]map[string]memoryBlob),
	}
}

func (m *MemoryStore) EnsureContainer(ctx context.Context, name string) (Container, EnsureStatus, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Existing, fmt.Errorf("storage: container name required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.containers[name]; ok {
		return &memoryContainer{store: m, name: name}, Existing, nil
	}
	m.containers[name] = make(map[string]memoryBlob)
	return &memoryContainer{store: m, name: name}, Created, nil
}

func (m *MemoryStore) Container(ctx context.Context, name string) (Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.containers[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
	}
	return &memoryContainer{store: m, name: name}, nil
}

// Get returns a copy of the blob bytes and its content type.
func (m *MemoryStore) Get(container, key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.containers[container][key]
	if !ok {
		return nil, "", false
	}
	out := make([]byte, len(blob.data))
	copy(out, blob.data)
	return out, blob.contentType, true
}

// Keys lists the blob keys held in a container.
func (m *MemoryStore) Keys(container string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.containers[container]))
	for k := range m.containers[container] {
		keys = append(keys, k)
	}
	return keys
}

type memoryContainer struct {
	store *MemoryStore
	name  string
}

func (c *memoryContainer) Exists(ctx context.Context, key string) (bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	_, ok := c.store.containers[c.name][key]
	return ok, nil
}

func (c *memoryContainer) Delete(ctx context.Context, key string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	delete(c.store.containers[c.name], key)
	return nil
}

func (c *memoryContainer) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	blobs, ok := c.store.containers[c.name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContainerNotFound, c.name)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	blobs[key] = memoryBlob{data: stored, contentType: contentType}

	return fmt.Sprintf("%s/blobs/%s/%s", c.store.baseURL, c.name, url.PathEscape(key)), nil
}
