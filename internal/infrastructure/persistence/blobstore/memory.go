package blobstore

import "sync"

// MemoryStore is an in-memory Store used by tests and single-process dev
// setups where persistence across restarts does not matter.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob

	// FailWrites makes Set return an error, simulating a full or broken
	// store in tests.
	FailWrites bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

func (s *MemoryStore) Get(key string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	return blob, ok
}

func (s *MemoryStore) Set(key string, blob Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errWriteFailed
	}
	s.blobs[key] = blob
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

type writeError string

func (e writeError) Error() string { return string(e) }

const errWriteFailed = writeError("blobstore: write failed")
