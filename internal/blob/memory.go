package blob

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type memObject struct {
	contentType string
	data        []byte
}

// MemStore is an in-memory Store used by tests and local dry runs.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]memObject)}
}

// Seed places an object into the store.
func (s *MemStore) Seed(key, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{contentType: contentType, data: data}
}

// Object returns a stored object's content type, bytes, and presence.
func (s *MemStore) Object(key string) (string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj.contentType, obj.data, ok
}

// Attrs returns object metadata for the given key.
func (s *MemStore) Attrs(ctx context.Context, key string) (ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return ObjectInfo{ContentType: obj.contentType, Size: int64(len(obj.data))}, nil
}

// Download copies the object's bytes to a local file path.
func (s *MemStore) Download(ctx context.Context, key, destPath string) error {
	s.mu.Lock()
	obj, ok := s.objects[key]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return os.WriteFile(destPath, obj.data, 0o644)
}

// Upload reads a local file into the object under key.
func (s *MemStore) Upload(ctx context.Context, key, srcPath, contentType string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{contentType: contentType, data: data}
	return nil
}

// UploadBytes writes an in-memory payload into the object under key.
func (s *MemStore) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{contentType: contentType, data: append([]byte(nil), data...)}
	return nil
}

// Delete removes the object; missing keys are a no-op.
func (s *MemStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
