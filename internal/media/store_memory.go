package media

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryBlob struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps blobs in a map with lazy expiry: expired entries are
// dropped on access rather than by a sweeper.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]memoryBlob
	ttl   time.Duration
	clock func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]memoryBlob),
		ttl:   ttl,
		clock: time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = memoryBlob{
		data:      append([]byte(nil), data...),
		expiresAt: s.clock().Add(s.ttl),
	}
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.clock().After(b.expiresAt) {
		delete(s.blobs, id)
		return nil, ErrNotFound
	}
	return append([]byte(nil), b.data...), nil
}
