package storage

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// Package storage provides the durable key-value layer behind session state,
// persisted cookies, preferences and snapshot digests.

// Store is a small KV store with optional per-entry expiry.
type Store interface {
	Close() error

	// Get returns the value for key. Missing and expired keys report ok=false.
	Get(key string) (value []byte, ok bool, err error)
	// Set stores value under key. ttl <= 0 means the entry never expires.
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error

	// LastDigest returns the digest last recorded for kind, if it was
	// recorded within the digest TTL.
	LastDigest(kind string) (digest string, ok bool, err error)
	// RecordDigest replaces the digest held for kind.
	RecordDigest(kind, digest string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	DigestTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultDigestTTL       = 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour

	expiryBytes = 8
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled", "memory":
		return newMemoryStore(opts), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.DigestTTL <= 0 {
		opts.DigestTTL = defaultDigestTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// encodeEntry prefixes value with its expiry as big-endian unix seconds (0 = never).
func encodeEntry(value []byte, expiry time.Time) []byte {
	buf := make([]byte, expiryBytes+len(value))
	if !expiry.IsZero() {
		binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	}
	copy(buf[expiryBytes:], value)
	return buf
}

// decodeEntry splits a stored entry. ok is false for malformed entries.
func decodeEntry(raw []byte) (value []byte, expiry time.Time, ok bool) {
	if len(raw) < expiryBytes {
		return nil, time.Time{}, false
	}
	if unix := int64(binary.BigEndian.Uint64(raw[:expiryBytes])); unix > 0 {
		expiry = time.Unix(unix, 0)
	}
	value = make([]byte, len(raw)-expiryBytes)
	copy(value, raw[expiryBytes:])
	return value, expiry, true
}

func expired(expiry, now time.Time) bool {
	return !expiry.IsZero() && !expiry.After(now)
}

func expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
