package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
)

// testClient builds a client without a live connection. The pumps are
// never started, so frames pile up in the send queue for inspection.
func testClient(hub *Hub, userID uint, username string) *Client {
	return NewClient(hub, nil, userID, username)
}

func drainFrames(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case frame := <-c.send:
			var env Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("bad frame %q: %v", frame, err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestHubJoinIdempotent(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, "alice")

	hub.Join(c, "ABC234")
	hub.Join(c, "ABC234")

	if got := len(hub.Members("ABC234")); got != 1 {
		t.Fatalf("want 1 member after double join, got %d", got)
	}

	hub.Publish("ABC234", EventMessage, MessagePayload{User: "alice", Content: "hi"})
	if frames := drainFrames(t, c); len(frames) != 1 {
		t.Fatalf("double join must not duplicate delivery, got %d frames", len(frames))
	}
}

func TestHubLeaveUnjoinedRoomIsNoop(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, "alice")

	hub.Leave(c, "NOROOM")

	hub.Join(c, "ABC234")
	hub.Leave(c, "ABC234")
	if hub.InRoom(c, "ABC234") {
		t.Fatal("client should have left the room")
	}
	if got := len(hub.Members("ABC234")); got != 0 {
		t.Fatalf("room should be empty, got %d members", got)
	}
}

func TestHubPublishOnlyReachesRoomMembers(t *testing.T) {
	hub := NewHub()
	in := testClient(hub, 1, "alice")
	out := testClient(hub, 2, "bob")

	hub.Join(in, "ABC234")
	hub.Join(out, "DEF567")

	hub.Publish("ABC234", EventNewFeed, FeedPayload{ID: 7, GroupCode: "ABC234"})

	if frames := drainFrames(t, in); len(frames) != 1 || frames[0].Event != EventNewFeed {
		t.Fatalf("member should get the event, got %+v", frames)
	}
	if frames := drainFrames(t, out); len(frames) != 0 {
		t.Fatalf("other rooms must stay silent, got %+v", frames)
	}
}

func TestHubPublishAfterLeaveDeliversNothing(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, "alice")

	hub.Join(c, "ABC234")
	hub.Leave(c, "ABC234")
	hub.Publish("ABC234", EventDeleteFeed, DeleteFeedPayload{FeedID: 1})

	if frames := drainFrames(t, c); len(frames) != 0 {
		t.Fatalf("membership is snapshotted at publish time, got %+v", frames)
	}
}

func TestHubPublishPreservesOrder(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, "alice")
	hub.Join(c, "ABC234")

	for i := 0; i < 5; i++ {
		hub.Publish("ABC234", EventMessage, MessagePayload{Content: fmt.Sprintf("m%d", i)})
	}

	frames := drainFrames(t, c)
	if len(frames) != 5 {
		t.Fatalf("want 5 frames, got %d", len(frames))
	}
	for i, env := range frames {
		var p MessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if want := fmt.Sprintf("m%d", i); p.Content != want {
			t.Fatalf("frame %d: want %q, got %q", i, want, p.Content)
		}
	}
}

func TestHubDropsFramesForSlowClient(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, "alice")
	hub.Join(c, "ABC234")

	for i := 0; i < sendQueueSize+10; i++ {
		hub.Publish("ABC234", EventMessage, MessagePayload{Content: "x"})
	}

	if frames := drainFrames(t, c); len(frames) != sendQueueSize {
		t.Fatalf("overflow should be dropped, not queued: got %d frames", len(frames))
	}
}

func TestHubDisconnectSweepsAllRooms(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, "alice")
	other := testClient(hub, 2, "bob")

	hub.Join(c, "ABC234")
	hub.Join(c, "DEF567")
	hub.Join(other, "ABC234")

	hub.Disconnect(c)

	if hub.InRoom(c, "ABC234") || hub.InRoom(c, "DEF567") {
		t.Fatal("disconnect should drop every room membership")
	}
	if got := len(hub.Members("ABC234")); got != 1 {
		t.Fatalf("other members should remain, got %d", got)
	}
	if got := len(hub.Members("DEF567")); got != 0 {
		t.Fatalf("emptied rooms should be dropped, got %d members", got)
	}
}

func TestClientSendTargetsOneClient(t *testing.T) {
	hub := NewHub()
	a := testClient(hub, 1, "alice")
	b := testClient(hub, 2, "bob")
	hub.Join(a, "ABC234")
	hub.Join(b, "ABC234")

	a.Send(EventError, ErrorPayload{Message: "not a member of this group"})

	if frames := drainFrames(t, a); len(frames) != 1 || frames[0].Event != EventError {
		t.Fatalf("want one error frame for alice, got %+v", frames)
	}
	if frames := drainFrames(t, b); len(frames) != 0 {
		t.Fatalf("error frames must not fan out, got %+v", frames)
	}
}
