package store

import (
	"errors"
	"testing"
	"time"

	"github.com/feedcircle/feedcircle/models"
)

func TestFeedListByGroupNewestFirst(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	group := seedGroup(t, db, "hiking", "ABC234", alice.ID)

	feeds := NewFeedStore(db)
	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 3; i++ {
		f := &models.Feed{
			Heading:   "h",
			Content:   "c",
			CreatedBy: alice.ID,
			GroupID:   group.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := feeds.Create(f); err != nil {
			t.Fatalf("create feed %d: %v", i, err)
		}
	}

	page, total, err := feeds.ListByGroup(group.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if total != 3 {
		t.Fatalf("want total 3, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("want 2 feeds on page 1, got %d", len(page))
	}
	if !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Fatal("feeds should be ordered newest first")
	}

	page2, _, err := feeds.ListByGroup(group.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListByGroup page 2: %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("want 1 feed on page 2, got %d", len(page2))
	}
}

func TestFeedListPreloadsCommentsInOrder(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	group := seedGroup(t, db, "hiking", "ABC234", alice.ID)
	feed := seedFeed(t, db, group.ID, alice.ID, 1)

	comments := NewCommentStore(db)
	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		c := &models.Comment{
			FeedID:  feed.ID,
			Comment: text,
			UserID:  alice.ID,
			AddedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := comments.Create(c); err != nil {
			t.Fatalf("create comment %q: %v", text, err)
		}
	}

	page, _, err := NewFeedStore(db).ListByGroup(group.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(page) != 1 || len(page[0].Comments) != 3 {
		t.Fatalf("want 1 feed with 3 comments, got %+v", page)
	}
	if page[0].Comments[0].Comment != "first" || page[0].Comments[2].Comment != "third" {
		t.Fatalf("comments out of order: %+v", page[0].Comments)
	}
	if page[0].Comments[0].Author.Username != "alice" {
		t.Fatal("comment author should be preloaded")
	}
}

func TestFeedUpdateMissing(t *testing.T) {
	db := testDB(t)
	err := NewFeedStore(db).Update(&models.Feed{ID: 999, Heading: "h", Content: "c"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFeedDeleteCascade(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	group := seedGroup(t, db, "hiking", "ABC234", alice.ID)
	feed := seedFeed(t, db, group.ID, alice.ID, 1)
	other := seedFeed(t, db, group.ID, alice.ID, 2)

	if err := NewCommentStore(db).Create(&models.Comment{FeedID: feed.ID, Comment: "hi", UserID: alice.ID}); err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	if _, _, err := NewLikeStore(db).Toggle(alice.ID, feed.ID); err != nil {
		t.Fatalf("seed like: %v", err)
	}

	feeds := NewFeedStore(db)
	if err := feeds.DeleteCascade(feed.ID); err != nil {
		t.Fatalf("DeleteCascade: %v", err)
	}

	if _, err := feeds.FindByID(feed.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("feed should be gone, got %v", err)
	}
	if _, err := feeds.FindByID(other.ID); err != nil {
		t.Fatalf("unrelated feed should survive, got %v", err)
	}

	var count int64
	db.Model(&models.Comment{}).Where("feed_id = ?", feed.ID).Count(&count)
	if count != 0 {
		t.Fatal("comments should be cascaded")
	}
	db.Model(&models.Like{}).Where("feed_id = ?", feed.ID).Count(&count)
	if count != 0 {
		t.Fatal("likes should be cascaded")
	}
}
