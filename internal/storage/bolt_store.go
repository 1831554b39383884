package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	kvBucket     = "kv"
	digestBucket = "digests"
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	digestTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{kvBucket, digestBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		digestTTL:       opts.DigestTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Get(key string) ([]byte, bool, error) {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, false, err
	}

	var (
		value []byte
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketFor(tx, kvBucket)
		if err != nil {
			return err
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		v, expiry, ok := decodeEntry(raw)
		if !ok || expired(expiry, now) {
			return bucket.Delete([]byte(key))
		}
		value, found = v, true
		return nil
	})
	return value, found, err
}

func (b *boltStore) Set(key string, value []byte, ttl time.Duration) error {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketFor(tx, kvBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), encodeEntry(value, expiryFor(now, ttl)))
	})
}

func (b *boltStore) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketFor(tx, kvBucket)
		if err != nil {
			return err
		}
		return bucket.Delete([]byte(key))
	})
}

// LastDigest returns the digest recorded for kind unless it has expired.
func (b *boltStore) LastDigest(kind string) (string, bool, error) {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return "", false, err
	}

	var (
		digest string
		found  bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketFor(tx, digestBucket)
		if err != nil {
			return err
		}

		key := []byte(kind)
		raw := bucket.Get(key)
		if raw == nil {
			return nil
		}
		value, expiry, ok := decodeEntry(raw)
		if !ok || expired(expiry, now) {
			return bucket.Delete(key)
		}
		digest, found = string(value), true
		return nil
	})
	return digest, found, err
}

// RecordDigest stores digest as the latest for kind, valid for the digest TTL.
func (b *boltStore) RecordDigest(kind, digest string) error {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketFor(tx, digestBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(kind), encodeEntry([]byte(digest), now.Add(b.digestTTL)))
	})
}

// maybeCleanupExpired removes expired entries on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{kvBucket, digestBucket} {
			bucket, err := bucketFor(tx, name)
			if err != nil {
				return err
			}
			cursor := bucket.Cursor()
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				_, expiry, ok := decodeEntry(v)
				if !ok || expired(expiry, now) {
					if err := cursor.Delete(); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func bucketFor(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket missing", name)
	}
	return bucket, nil
}
