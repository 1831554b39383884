package storage

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value  []byte
	expiry time.Time
}

// memoryStore keeps everything in process memory. It backs the "memory" and
// "none" storage types, so nothing survives a restart.
type memoryStore struct {
	mu        sync.Mutex
	kv        map[string]memoryEntry
	digests   map[string]memoryEntry
	digestTTL time.Duration
	now       func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		kv:        make(map[string]memoryEntry),
		digests:   make(map[string]memoryEntry),
		digestTTL: opts.DigestTTL,
		now:       time.Now,
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.kv[key]
	if !ok {
		return nil, false, nil
	}
	if expired(entry.expiry, m.now()) {
		delete(m.kv, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (m *memoryStore) Set(key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = memoryEntry{
		value:  append([]byte(nil), value...),
		expiry: expiryFor(m.now(), ttl),
	}
	return nil
}

func (m *memoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *memoryStore) LastDigest(kind string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.digests[kind]
	if !ok {
		return "", false, nil
	}
	if expired(entry.expiry, m.now()) {
		delete(m.digests, kind)
		return "", false, nil
	}
	return string(entry.value), true, nil
}

func (m *memoryStore) RecordDigest(kind, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digests[kind] = memoryEntry{value: []byte(digest), expiry: m.now().Add(m.digestTTL)}
	return nil
}
