package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// Store is a synchronous durable key/value store.
type Store interface {
	Get(key string) ([]byte, bool, error) // Get returns the value stored at key and whether it exists
	Set(key string, value []byte) error   // Set replaces the value at key
	Remove(key string) error              // Remove deletes key; removing a missing key is not an error
}

// Key derives the cache key for a domain snapshot owned by id.
func Key(domain string, id models.Identity) string {
	return domain + ":" + id.OwnerKey()
}

// Entry is the serialized snapshot of one domain for one owner.
type Entry[T any] struct {
	Domain  string    `json:"domain"`
	Owner   string    `json:"owner"`
	SavedAt time.Time `json:"savedAt"`
	Data    T         `json:"data"`
}

// Read loads the snapshot stored for (domain, id).
//
// A missing key returns ok=false. A value that does not decode, or that was written for another key, returns an
// error wrapping [shared.ErrCacheCorrupt].
func Read[T any](s Store, domain string, id models.Identity) (data T, ok bool, err error) {
	key := Key(domain, id)
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return data, false, err
	}

	var entry Entry[T]
	if err := json.Unmarshal(raw, &entry); err != nil {
		return data, false, fmt.Errorf("%w: %s: %v", shared.ErrCacheCorrupt, key, err)
	}
	if entry.Domain != domain || entry.Owner != id.OwnerKey() {
		return data, false, fmt.Errorf("%w: %s: entry belongs to %s:%s", shared.ErrCacheCorrupt, key, entry.Domain, entry.Owner)
	}
	return entry.Data, true, nil
}

// Write stores data as the snapshot for (domain, id).
func Write[T any](s Store, domain string, id models.Identity, data T) error {
	entry := Entry[T]{Domain: domain, Owner: id.OwnerKey(), SavedAt: time.Now().UTC(), Data: data}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.Set(Key(domain, id), raw)
}

// Drop removes the snapshot for (domain, id).
func Drop(s Store, domain string, id models.Identity) error {
	return s.Remove(Key(domain, id))
}

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Keys returns the stored keys in no particular order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
