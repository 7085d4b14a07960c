// Package memory is an in-process Provider with a hard per-item quota and
// injectable per-key failures for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	items    map[string][]byte
	failures map[string]error
	quota    int
	writes   int
}

func New() *Store {
	return &Store{
		items:    make(map[string][]byte),
		failures: make(map[string]error),
		quota:    constants.HardItemQuota,
	}
}

func (s *Store) Init() error  { return nil }
func (s *Store) Load() error  { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) GetConfigPath() string {
	return constants.BackendMemory
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(v), nil
}

func (s *Store) GetAll(_ context.Context) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.items))
	for k, v := range s.items {
		out[k] = clone(v)
	}
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[key]; err != nil {
		return err
	}
	if size := len(key) + len(value); size > s.quota {
		return fmt.Errorf("QUOTA_BYTES_PER_ITEM quota exceeded for %q (%d bytes)", key, size)
	}
	s.items[key] = clone(value)
	s.writes++
	return nil
}

func (s *Store) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if err := s.failures[k]; err != nil {
			return err
		}
	}
	for _, k := range keys {
		delete(s.items, k)
	}
	s.writes++
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string][]byte)
	s.writes++
	return nil
}

// FailOn makes every Set or Remove of key return err. A nil err clears it.
func (s *Store) FailOn(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// Writes counts successful mutating calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
