package blob

import (
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps blobs in a map. It backs the unit tests.
type MemoryStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	baseURL string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte), baseURL: "http://localhost/storage"}
}

func (s *MemoryStore) Save(data []byte, dir, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	p := path.Join(dir, uuid.New().String()+ext)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[p] = append([]byte(nil), data...)
	return p, nil
}

func (s *MemoryStore) Exists(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[p]
	return ok
}

func (s *MemoryStore) Delete(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, p)
	return nil
}

func (s *MemoryStore) URL(p string) string {
	return s.baseURL + "/" + p
}

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
