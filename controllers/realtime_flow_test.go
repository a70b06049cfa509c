package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feedcircle/feedcircle/config"
	"github.com/feedcircle/feedcircle/models"
	"github.com/feedcircle/feedcircle/realtime"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

func TestMain(m *testing.M) {
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test-secret")
	}
	gin.SetMode(gin.TestMode)
	_ = utils.InitLogger(config.AppConfig{LogLevel: "error"})
	os.Exit(m.Run())
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// File-backed: in-memory sqlite would hand every pooled connection
	// its own empty schema.
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Feed{},
		&models.Comment{},
		&models.Like{},
		&models.ChatMessage{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type wsHarness struct {
	db    *gorm.DB
	hub   *realtime.Hub
	chat  *ChatController
	srv   *httptest.Server
	wsURL string
}

func newWSHarness(t *testing.T) *wsHarness {
	t.Helper()

	db := testDB(t)
	hub := realtime.NewHub()
	notifier := realtime.NewNotifier(hub)
	locks := store.NewKeyedMutex()
	chat := NewChatController(db, notifier, locks)
	rt := NewRealtimeController(db, hub, chat)

	r := gin.New()
	r.GET("/ws", rt.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsHarness{
		db:    db,
		hub:   hub,
		chat:  chat,
		srv:   srv,
		wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (h *wsHarness) seedMember(t *testing.T, username, groupCode string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	if err := store.NewUserStore(h.db).Create(u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	groups := store.NewGroupStore(h.db)
	g, err := groups.FindByCode(groupCode)
	if err != nil {
		g = &models.Group{Name: "group " + groupCode, Code: groupCode, CreatedBy: u.ID}
		if err := groups.Create(g); err != nil {
			t.Fatalf("seed group: %v", err)
		}
		return u
	}
	if err := groups.AddMember(g.ID, u.ID); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return u
}

func (h *wsHarness) dial(t *testing.T, u *models.User) *websocket.Conn {
	t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	if err := conn.WriteJSON(realtime.Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env realtime.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return env
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var env realtime.Envelope
	if err := conn.ReadJSON(&env); err == nil {
		t.Fatalf("expected no frame, got %+v", env)
	}
}

func TestWebsocketRejectsBadCredentials(t *testing.T) {
	h := newWSHarness(t)

	resp, err := http.Get(h.srv.URL + "/ws")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: want 401, got %d", resp.StatusCode)
	}

	if _, _, err := websocket.DefaultDialer.Dial(h.wsURL+"?token=garbage", nil); err == nil {
		t.Fatal("invalid token should fail the handshake")
	}
}

func TestWebsocketRefusesRevokedToken(t *testing.T) {
	h := newWSHarness(t)
	alice := h.seedMember(t, "alice", "ABC234")

	// 2h, not the 1h dial() uses: tokens are deterministic per claims and
	// second, and the blacklist is process-global, so a 1h token minted here
	// could be byte-identical to one a later test dials with.
	token, err := utils.GenerateToken(alice.ID, alice.Username, 2*time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	utils.BlacklistToken(token, claims.ExpiresAt.Time)

	// Still signed and unexpired, but logged out: the handshake must fail.
	conn, resp, err := websocket.DefaultDialer.Dial(h.wsURL+"?token="+token, nil)
	if err == nil {
		conn.Close()
		t.Fatal("revoked token should fail the handshake")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 refusal, got %+v", resp)
	}
}

func TestWebsocketJoinRequiresMembership(t *testing.T) {
	h := newWSHarness(t)
	member := h.seedMember(t, "alice", "ABC234")
	outsider := &models.User{Username: "mallory", Email: "mallory@example.com", PasswordHash: "x"}
	if err := store.NewUserStore(h.db).Create(outsider); err != nil {
		t.Fatalf("seed outsider: %v", err)
	}

	conn := h.dial(t, member)
	sendEvent(t, conn, realtime.EventJoin, realtime.RoomPayload{GroupCode: "ABC234"})
	if env := readEvent(t, conn); env.Event != realtime.EventJoin {
		t.Fatalf("member join should be acked, got %+v", env)
	}

	evil := h.dial(t, outsider)
	sendEvent(t, evil, realtime.EventJoin, realtime.RoomPayload{GroupCode: "ABC234"})
	if env := readEvent(t, evil); env.Event != realtime.EventError {
		t.Fatalf("non-member join should be rejected, got %+v", env)
	}
}

func TestChatMessagePersistsThenFansOut(t *testing.T) {
	h := newWSHarness(t)
	alice := h.seedMember(t, "alice", "ABC234")
	bob := h.seedMember(t, "bob", "ABC234")

	aliceConn := h.dial(t, alice)
	sendEvent(t, aliceConn, realtime.EventJoin, realtime.RoomPayload{GroupCode: "ABC234"})
	readEvent(t, aliceConn) // join ack

	bobConn := h.dial(t, bob)
	sendEvent(t, bobConn, realtime.EventJoin, realtime.RoomPayload{GroupCode: "ABC234"})
	readEvent(t, bobConn)

	sendEvent(t, bobConn, realtime.EventMessage, realtime.ChatSendPayload{
		GroupCode: "ABC234",
		Content:   "made it to camp",
	})

	env := readEvent(t, aliceConn)
	if env.Event != realtime.EventMessage {
		t.Fatalf("want message frame, got %+v", env)
	}
	var p realtime.MessagePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.User != "bob" || p.Content != "made it to camp" || p.GroupCode != "ABC234" {
		t.Fatalf("payload mismatch: %+v", p)
	}

	// The fan-out only ever happens after the row is durable.
	var count int64
	h.db.Model(&models.ChatMessage{}).Count(&count)
	if count != 1 {
		t.Fatalf("message should be persisted exactly once, got %d rows", count)
	}
}

func TestChatSendFailureFansOutNothing(t *testing.T) {
	h := newWSHarness(t)
	alice := h.seedMember(t, "alice", "ABC234")

	conn := h.dial(t, alice)
	sendEvent(t, conn, realtime.EventJoin, realtime.RoomPayload{GroupCode: "ABC234"})
	readEvent(t, conn)

	// Unknown group: the write fails, so only the sender hears about it.
	_, err := h.chat.Send(alice.ID, alice.Username, "NOROOM", "hello?")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	expectSilence(t, conn)
	var count int64
	h.db.Model(&models.ChatMessage{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed sends must not persist, got %d rows", count)
	}
}

func TestChatSendOutsideMembership(t *testing.T) {
	h := newWSHarness(t)
	h.seedMember(t, "alice", "ABC234")
	outsider := &models.User{Username: "mallory", Email: "mallory@example.com", PasswordHash: "x"}
	if err := store.NewUserStore(h.db).Create(outsider); err != nil {
		t.Fatalf("seed outsider: %v", err)
	}

	if _, err := h.chat.Send(outsider.ID, outsider.Username, "ABC234", "let me in"); err != errNotMember {
		t.Fatalf("want errNotMember, got %v", err)
	}
	var count int64
	h.db.Model(&models.ChatMessage{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected sends must not persist, got %d rows", count)
	}
}

func TestWebsocketLeaveStopsDelivery(t *testing.T) {
	h := newWSHarness(t)
	alice := h.seedMember(t, "alice", "ABC234")
	bob := h.seedMember(t, "bob", "ABC234")

	aliceConn := h.dial(t, alice)
	sendEvent(t, aliceConn, realtime.EventJoin, realtime.RoomPayload{GroupCode: "ABC234"})
	readEvent(t, aliceConn)
	sendEvent(t, aliceConn, realtime.EventLeave, realtime.RoomPayload{GroupCode: "ABC234"})
	if env := readEvent(t, aliceConn); env.Event != realtime.EventLeave {
		t.Fatalf("leave should be acked, got %+v", env)
	}

	if _, err := h.chat.Send(bob.ID, bob.Username, "ABC234", "anyone here?"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	expectSilence(t, aliceConn)
}
