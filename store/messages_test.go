package store

import (
	"testing"
	"time"

	"github.com/feedcircle/feedcircle/models"
)

func TestMessageListByGroupOldestFirst(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	group := seedGroup(t, db, "hiking", "ABC234", alice.ID)

	messages := NewMessageStore(db)
	base := time.Now().Add(-time.Hour)
	for i, m := range []struct {
		user uint
		text string
	}{
		{alice.ID, "hello"},
		{bob.ID, "hey"},
		{alice.ID, "how are you"},
	} {
		msg := &models.ChatMessage{
			UserID:    m.user,
			GroupID:   group.ID,
			Message:   m.text,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := messages.Create(msg); err != nil {
			t.Fatalf("create message %q: %v", m.text, err)
		}
	}

	history, err := messages.ListByGroup(group.ID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("want 3 messages, got %d", len(history))
	}
	if history[0].Message != "hello" || history[2].Message != "how are you" {
		t.Fatalf("history out of order: %+v", history)
	}
	if history[1].Author.Username != "bob" {
		t.Fatal("author should be preloaded")
	}
}

func TestMessageListEmptyGroup(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	group := seedGroup(t, db, "hiking", "ABC234", alice.ID)

	history, err := NewMessageStore(db).ListByGroup(group.ID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("want empty history, got %d", len(history))
	}
}
