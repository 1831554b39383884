package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestBolt(t *testing.T, opts Options) (*boltStore, *fakeClock) {
	t.Helper()
	raw, err := openBolt(filepath.Join(t.TempDir(), "nested", "bizdesk.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store.now = clock.now
	store.lastCleanup.Store(clock.t.Unix())
	return store, clock
}

func TestBoltStoreTracksLatestDigestPerKind(t *testing.T) {
	store, clock := openTestBolt(t, Options{
		DigestTTL:       10 * time.Second,
		CleanupInterval: time.Hour,
	})

	if _, ok, err := store.LastDigest("dashboard.metrics"); err != nil || ok {
		t.Fatalf("expected no digest yet, ok=%v err=%v", ok, err)
	}

	for _, d := range []string{"d1", "d2"} {
		if err := store.RecordDigest("dashboard.metrics", d); err != nil {
			t.Fatalf("RecordDigest %s: %v", d, err)
		}
	}
	if err := store.RecordDigest("contacts.stats", "c1"); err != nil {
		t.Fatalf("RecordDigest: %v", err)
	}

	got, ok, err := store.LastDigest("dashboard.metrics")
	if err != nil || !ok || got != "d2" {
		t.Fatalf("expected latest digest d2, got %q ok=%v err=%v", got, ok, err)
	}
	if got, _, _ := store.LastDigest("contacts.stats"); got != "c1" {
		t.Fatalf("kinds must not share digests, got %q", got)
	}

	clock.advance(11 * time.Second)

	if _, ok, err := store.LastDigest("dashboard.metrics"); err != nil || ok {
		t.Fatalf("expected digest to expire, ok=%v err=%v", ok, err)
	}
}

func TestBoltStoreKeyValueRoundTrip(t *testing.T) {
	store, clock := openTestBolt(t, Options{})

	if err := store.Set("forever", []byte("v1"), 0); err != nil {
		t.Fatalf("Set forever: %v", err)
	}
	if err := store.Set("short", []byte("v2"), 5*time.Second); err != nil {
		t.Fatalf("Set short: %v", err)
	}

	got, ok, err := store.Get("forever")
	if err != nil || !ok || string(got) != "v1" {
		t.Fatalf("Get forever = %q ok=%v err=%v", got, ok, err)
	}

	clock.advance(6 * time.Second)

	if _, ok, err := store.Get("short"); err != nil || ok {
		t.Fatalf("expected short-lived key to expire, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := store.Get("forever"); !ok {
		t.Fatalf("expected key without ttl to survive")
	}

	if err := store.Delete("forever"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get("forever"); ok {
		t.Fatalf("expected deleted key to be gone")
	}
}

func TestBoltStoreCleanupPurgesExpiredEntries(t *testing.T) {
	store, clock := openTestBolt(t, Options{
		DigestTTL:       time.Second,
		CleanupInterval: time.Minute,
	})

	if err := store.RecordDigest("dashboard.metrics", "old"); err != nil {
		t.Fatalf("RecordDigest: %v", err)
	}
	if err := store.Set("stale", []byte("x"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clock.advance(2 * time.Minute)
	if err := store.maybeCleanupExpired(clock.now()); err != nil {
		t.Fatalf("maybeCleanupExpired: %v", err)
	}

	for _, name := range []string{kvBucket, digestBucket} {
		var count int
		if err := store.db.View(func(tx *bolt.Tx) error {
			count = tx.Bucket([]byte(name)).Stats().KeyN
			return nil
		}); err != nil {
			t.Fatalf("view %s: %v", name, err)
		}
		if count != 0 {
			t.Fatalf("expected %s bucket to be empty after cleanup, got %d keys", name, count)
		}
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bizdesk.db")

	first, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := first.Set("session", []byte(`{"authenticated":true}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	got, ok, err := second.Get("session")
	if err != nil || !ok || string(got) != `{"authenticated":true}` {
		t.Fatalf("Get after reopen = %q ok=%v err=%v", got, ok, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for empty bbolt path")
	}
}
