package store

import (
	"errors"
	"testing"
)

func TestLikeToggleAlternates(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	group := seedGroup(t, db, "hiking", "ABC234", alice.ID)
	feed := seedFeed(t, db, group.ID, alice.ID, 1)

	likes := NewLikeStore(db)

	liked, count, err := likes.Toggle(alice.ID, feed.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !liked || count != 1 {
		t.Fatalf("first toggle: want liked=true count=1, got %v %d", liked, count)
	}

	liked, count, err = likes.Toggle(alice.ID, feed.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if liked || count != 0 {
		t.Fatalf("second toggle: want liked=false count=0, got %v %d", liked, count)
	}

	liked, count, err = likes.Toggle(alice.ID, feed.ID)
	if err != nil {
		t.Fatalf("third toggle: %v", err)
	}
	if !liked || count != 1 {
		t.Fatalf("third toggle: want liked=true count=1, got %v %d", liked, count)
	}
}

func TestLikeToggleCountsAllUsers(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	group := seedGroup(t, db, "hiking", "ABC234", alice.ID)
	feed := seedFeed(t, db, group.ID, alice.ID, 1)

	likes := NewLikeStore(db)
	if _, _, err := likes.Toggle(alice.ID, feed.ID); err != nil {
		t.Fatalf("alice toggle: %v", err)
	}
	_, count, err := likes.Toggle(bob.ID, feed.ID)
	if err != nil {
		t.Fatalf("bob toggle: %v", err)
	}
	if count != 2 {
		t.Fatalf("want fresh count 2 after both like, got %d", count)
	}

	exists, err := likes.Exists(bob.ID, feed.ID)
	if err != nil || !exists {
		t.Fatalf("bob's like should exist, got %v %v", exists, err)
	}
}

func TestLikeToggleMissingFeed(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")

	_, _, err := NewLikeStore(db).Toggle(alice.ID, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
