package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/vbonduro/perfumery/internal/imagestore"
)

type image struct {
	data     []byte
	mimeType string
}

// MemoryImageStore keeps images in process memory. Contents vanish on
// restart, matching the default in-memory catalog.
type MemoryImageStore struct {
	mu     sync.RWMutex
	images map[string]image
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{images: make(map[string]image)}
}

func (s *MemoryImageStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	key := prefix + "/" + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[key] = image{data: data, mimeType: mimeType}
	return key, nil
}

func (s *MemoryImageStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[key]
	if !ok {
		return nil, "", imagestore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(img.data)), img.mimeType, nil
}

func (s *MemoryImageStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[key]; !ok {
		return imagestore.ErrNotFound
	}
	delete(s.images, key)
	return nil
}

// Len reports how many images are stored.
func (s *MemoryImageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}
