package storage

import (
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func TestBoltStoreRemembersAndExpiresImports(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		TTL:             time.Hour,
		CleanupInterval: time.Hour,
	}

	storeRaw, err := openBolt(dir+"/imports.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	if _, ok, err := store.Lookup("k1"); err != nil || ok {
		t.Fatalf("expected unknown key, ok=%v err=%v", ok, err)
	}

	if err := store.Remember("k1", "page-1"); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	pageID, ok, err := store.Lookup("k1")
	if err != nil || !ok || pageID != "page-1" {
		t.Fatalf("expected page-1, got id=%q ok=%v err=%v", pageID, ok, err)
	}

	// Move past both the TTL and the cleanup cadence.
	now = now.Add(2 * time.Hour)

	if _, ok, err := store.Lookup("k1"); err != nil || ok {
		t.Fatalf("expected entry to expire, ok=%v err=%v", ok, err)
	}
}

func TestBoltStoreCleanupDropsExpiredEntries(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/nested/imports.db", Options{TTL: time.Minute, CleanupInterval: time.Minute})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	if err := store.Remember("old", "p-old"); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	now = now.Add(5 * time.Minute)
	if err := store.maybeCleanupExpired(now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var remaining int
	if err := store.db.View(func(tx *bolt.Tx) error {
		remaining = tx.Bucket([]byte(importBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected expired entry removed, %d left", remaining)
	}
}

func TestDecodeEntryRejectsShortValues(t *testing.T) {
	if _, _, ok := decodeEntry([]byte{1, 2}); ok {
		t.Fatalf("expected short value to be rejected")
	}
	expiry := time.Unix(1700000000, 0)
	got, id, ok := decodeEntry(encodeEntry(expiry, "abc"))
	if !ok || !got.Equal(expiry) || id != "abc" {
		t.Fatalf("unexpected decode %v %q %v", got, id, ok)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Remember("x", "p"); err != nil {
		t.Fatalf("noop store Remember: %v", err)
	}
	if _, ok, _ := store.Lookup("x"); ok {
		t.Fatalf("noop store must not remember")
	}
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected unsupported storage type error")
	}
}
