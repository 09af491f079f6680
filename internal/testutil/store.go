package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

// FileStore keeps uploaded objects in memory.
type FileStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// SaveErr, when set, is returned by Save.
	SaveErr error
}

// NewFileStore returns an empty store.
func NewFileStore() *FileStore {
	return &FileStore{objects: make(map[string][]byte)}
}

func (s *FileStore) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return errors.New("object not found")
	}
	delete(s.objects, key)
	return nil
}

func (s *FileStore) URL(key, baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/uploads/" + key
}

// Keys lists stored object keys in order.
func (s *FileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
