package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	data := []byte("jpeg bytes")
	if err := store.Put("feed_1.jpg", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get("feed_1.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("content mismatch: %q", got)
	}

	if err := store.Delete("feed_1.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("feed_1.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestDiskStoreDeleteMissingIsNoop(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if err := store.Delete("ghost.jpg"); err != nil {
		t.Fatalf("deleting a missing object should be a no-op, got %v", err)
	}
}

func TestDiskStoreRejectsEscapingNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	for _, name := range []string{"../evil.jpg", "/etc/passwd", "a/../../b"} {
		if err := store.Put(name, []byte("x")); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
}
